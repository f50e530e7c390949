package trajplan

import "github.com/cncgo/trajplan/internal/ring"

// Line enqueues a single unplanned linear move: no S-curve region
// decomposition, no backward replanning. Used for rapid-style travel where
// jerk limiting does not apply.
func (p *Planner) Line(target []float64, minutes float64) (Status, error) {
	travel := make([]float64, len(target))
	for i := range target {
		travel[i] = target[i] - p.mm.position[i]
	}
	length := AxisVectorLength(travel)
	if length < p.cfg.MinLineLength || minutes < p.cfg.Epsilon {
		p.observe().ObserveTrap("zero_length")
		if p.cfg.Observer != nil {
			p.cfg.Observer.ObserveQueue("line_rejected")
		}
		return StatusZeroLengthMove, nil
	}

	buf, ok := p.pool.GetWriteBuffer()
	if !ok {
		return p.bufferFullFatal("Line")
	}
	copy(buf.Target, target)
	unit, _ := UnitVector(travel)
	copy(buf.UnitVec, unit)
	buf.Length = length
	buf.Time = minutes
	buf.Replannable = false

	copy(p.mm.position, target)
	p.pool.QueueWriteBuffer(ring.MoveLine)
	p.observe().ObserveQueue("line")
	return StatusOK, nil
}

// runLine is the LINE runner: awaits motor-queue space, converts the
// region's time to microseconds, pushes one line into the step queue via
// kinematics, and advances the runtime position cursor.
func (p *Planner) runLine(buf *ring.Buffer) Status {
	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}
	travel := make([]float64, len(buf.Target))
	for i := range buf.Target {
		travel[i] = buf.Target[i] - p.mr.position[i]
	}
	us := MicrosecondsFromMinutes(buf.Time)
	steps := p.kin.Convert(travel, us)
	if err := p.mq.QueueLine(steps, us); err != nil {
		return StatusEAGAIN
	}
	copy(p.mr.position, buf.Target)
	p.observe().ObserveSegmentRun(uint64(us) * 1000)
	return StatusOK
}
