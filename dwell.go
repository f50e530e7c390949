package trajplan

import "github.com/cncgo/trajplan/internal/ring"

// runDwell awaits motor-queue space and enqueues a dwell whose duration is
// the buffer's planner-internal time (minutes) converted to microseconds.
func (p *Planner) runDwell(buf *ring.Buffer) Status {
	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}
	us := MicrosecondsFromMinutes(buf.Time)
	if err := p.mq.QueueDwell(us); err != nil {
		return StatusEAGAIN
	}
	p.observe().ObserveSegmentRun(uint64(us) * 1000)
	return StatusOK
}
