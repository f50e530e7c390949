package trajplan

import "github.com/cncgo/trajplan/internal/ring"

// runNull clears replannability and completes immediately; used for
// degenerate (zero-length) regions folded out of an aline's HBT split.
func (p *Planner) runNull(buf *ring.Buffer) Status {
	buf.Replannable = false
	return StatusOK
}

// runStop awaits motor-queue space and enqueues a deferred stop directive.
func (p *Planner) runStop(buf *ring.Buffer) Status {
	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}
	if err := p.mq.QueueControl(MoveControlStop); err != nil {
		return StatusEAGAIN
	}
	return StatusOK
}

// runStart awaits motor-queue space and enqueues a deferred start
// directive.
func (p *Planner) runStart(buf *ring.Buffer) Status {
	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}
	if err := p.mq.QueueControl(MoveControlStart); err != nil {
		return StatusEAGAIN
	}
	return StatusOK
}

// runEnd awaits motor-queue space, enqueues a deferred end directive, and
// additionally reinitializes the stepper subsystem. Per the source's
// "+++ fix this" comment on mp_queued_end, this is a partial fix: it
// resets stepper-owned state, not a full G-code-level controller reset.
func (p *Planner) runEnd(buf *ring.Buffer) Status {
	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}
	if err := p.mq.QueueControl(MoveControlEnd); err != nil {
		return StatusEAGAIN
	}
	if p.stepperHook != nil {
		p.stepperHook.Reinit()
	}
	return StatusOK
}
