package trajplan

import "github.com/cncgo/trajplan/internal/ring"

// MoveDispatcher is the cooperative continuation driven by the outer
// controller loop. It asks the pool for a run buffer, routes it to its
// type-specific runner, and surfaces EAGAIN immediately so the caller can
// interleave other work; it never blocks or spins.
func (p *Planner) MoveDispatcher() (Status, error) {
	buf, ok := p.pool.GetRunBuffer()
	if !ok {
		return StatusNOOP, nil
	}

	if buf.MoveState == ring.StateNew {
		p.runFlag.Store(true)
	}

	status := p.runRunner(buf)

	if status == StatusEAGAIN {
		p.observe().ObserveTrap("eagain")
		return StatusEAGAIN, nil
	}

	p.runFlag.Store(false)
	p.pool.FinalizeRunBuffer()
	if status == StatusBufferFullFatal {
		return status, NewBufferError("MoveDispatcher", buf.Index(), ErrCodeBufferFull, "runner reported fatal buffer condition")
	}
	return status, nil
}

// runRunner is the tagged-variant dispatch the source expresses as a
// function-pointer table (mr.run_move); here it is a direct switch on
// move_type, the canonical form per the Design Notes.
func (p *Planner) runRunner(buf *ring.Buffer) Status {
	switch buf.MoveType {
	case ring.MoveNull:
		return p.runNull(buf)
	case ring.MoveLine:
		return p.runLine(buf)
	case ring.MoveDwell:
		return p.runDwell(buf)
	case ring.MoveStop:
		return p.runStop(buf)
	case ring.MoveStart:
		return p.runStart(buf)
	case ring.MoveEnd:
		return p.runEnd(buf)
	case ring.MoveArc:
		return p.runArc(buf)
	case ring.MoveAccel:
		return p.runAccelDecel(buf, true)
	case ring.MoveDecel:
		return p.runAccelDecel(buf, false)
	case ring.MoveCruise:
		return p.runCruise(buf)
	default:
		return StatusOK
	}
}
