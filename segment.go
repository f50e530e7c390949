package trajplan

import (
	"math"

	"github.com/cncgo/trajplan/internal/ring"
)

// runCruise emits a single constant-velocity line spanning the whole
// region, scaled by the region's own end velocity (cruise regions start
// and end at the same velocity, per §3 invariant 3).
func (p *Planner) runCruise(buf *ring.Buffer) Status {
	buf.Replannable = false
	if buf.Length < p.cfg.Epsilon || buf.EndVelocity < p.cfg.Epsilon {
		return StatusOK
	}
	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}

	t := buf.Length / buf.EndVelocity
	travel := make([]float64, len(buf.UnitVec))
	for i, u := range buf.UnitVec {
		travel[i] = u * buf.Length
	}
	us := MicrosecondsFromMinutes(t)
	steps := p.kin.Convert(travel, us)
	if err := p.mq.QueueLine(steps, us); err != nil {
		return StatusEAGAIN
	}
	for i := range p.mr.position {
		p.mr.position[i] += travel[i]
	}
	p.observe().ObserveSegmentRun(uint64(us) * 1000)
	return StatusOK
}

// runAccelDecel drives both ACCEL and DECEL regions through their shared
// two-half S-curve structure: a concave-then-convex velocity profile for
// ACCEL, convex-then-concave for DECEL.
func (p *Planner) runAccelDecel(buf *ring.Buffer, accel bool) Status {
	if buf.MoveState == ring.StateNew {
		vs, ve := buf.StartVelocity, buf.EndVelocity
		vmid := (vs + ve) / 2
		var t float64
		if vmid > p.cfg.Epsilon {
			t = buf.Length / vmid
		}
		p.mr.vMid = vmid
		p.mr.aMid = t * p.mm.jerkHalf
		copy(p.mr.target, buf.Target)

		segmentsPerHalf := int(math.Round(math.Round(OneMinuteOfMicroseconds*t/p.cfg.MinSegmentTime) / 2))
		if segmentsPerHalf <= 0 {
			return p.runAccelDecelDirect(buf, t)
		}
		p.mr.segmentsHalf = segmentsPerHalf
		p.mr.segmentTime = t / float64(2*segmentsPerHalf)
		p.mr.elapsed = p.mr.segmentTime / 2
		p.mr.segmentCount = segmentsPerHalf
		buf.MoveState = ring.StateRunning1
	}

	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}

	if buf.MoveState == ring.StateRunning2 && p.mr.segmentCount <= 1 {
		return p.finalizeAccelDecel(buf)
	}

	d := p.mr.elapsed * p.mr.elapsed
	var v float64
	switch buf.MoveState {
	case ring.StateRunning1:
		if accel {
			v = buf.StartVelocity + p.mm.jerkHalf*d
		} else {
			v = buf.StartVelocity - p.mm.jerkHalf*d
		}
	default: // StateRunning2
		if accel {
			v = p.mr.vMid + p.mr.elapsed*p.mr.aMid - p.mm.jerkHalf*d
		} else {
			v = p.mr.vMid - p.mr.elapsed*p.mr.aMid + p.mm.jerkHalf*d
		}
	}

	if status := p.emitAccelSegment(buf, v); status != StatusOK {
		return status
	}

	if p.mr.segmentCount <= 0 && buf.MoveState == ring.StateRunning1 {
		p.mr.elapsed = p.mr.segmentTime / 2
		p.mr.segmentCount = p.mr.segmentsHalf
		buf.MoveState = ring.StateRunning2
	}
	return StatusEAGAIN
}

// emitAccelSegment emits one fixed-time segment at instantaneous velocity
// v, advancing the runtime position and elapsed-time cursors.
func (p *Planner) emitAccelSegment(buf *ring.Buffer, v float64) Status {
	target := make([]float64, len(buf.UnitVec))
	for i, u := range buf.UnitVec {
		target[i] = p.mr.position[i] + u*v*p.mr.segmentTime
	}
	travel := make([]float64, len(target))
	for i := range target {
		travel[i] = target[i] - p.mr.position[i]
	}
	us := MicrosecondsFromMinutes(p.mr.segmentTime)
	steps := p.kin.Convert(travel, us)
	if err := p.mq.QueueLine(steps, us); err != nil {
		return StatusEAGAIN
	}
	copy(p.mr.position, target)
	p.mr.elapsed += p.mr.segmentTime
	p.mr.segmentCount--
	p.observe().ObserveSegmentRun(uint64(us) * 1000)
	return StatusOK
}

// finalizeAccelDecel emits one closing line spanning mr.target minus the
// current runtime position at the region's end velocity, so accumulated
// per-segment rounding error is nulled out and the post-move position
// matches the analytic endpoint exactly.
func (p *Planner) finalizeAccelDecel(buf *ring.Buffer) Status {
	travel := make([]float64, len(p.mr.target))
	for i := range p.mr.target {
		travel[i] = p.mr.target[i] - p.mr.position[i]
	}
	length := AxisVectorLength(travel)
	var t float64
	if buf.EndVelocity > p.cfg.Epsilon {
		t = length / buf.EndVelocity
	}
	us := MicrosecondsFromMinutes(t)
	steps := p.kin.Convert(travel, us)
	if err := p.mq.QueueLine(steps, us); err != nil {
		return StatusEAGAIN
	}
	copy(p.mr.position, p.mr.target)
	buf.Replannable = false
	p.observe().ObserveSegmentRun(uint64(us) * 1000)
	return StatusOK
}

// runAccelDecelDirect handles the degenerate case where the region's total
// time is too short to subdivide into even one segment pair: the whole
// region is emitted as a single line at the mean of start/end velocity.
func (p *Planner) runAccelDecelDirect(buf *ring.Buffer, t float64) Status {
	if !p.mq.TestMotorBuffer() {
		return StatusEAGAIN
	}
	travel := make([]float64, len(buf.Target))
	for i := range buf.Target {
		travel[i] = buf.Target[i] - p.mr.position[i]
	}
	us := MicrosecondsFromMinutes(t)
	steps := p.kin.Convert(travel, us)
	if err := p.mq.QueueLine(steps, us); err != nil {
		return StatusEAGAIN
	}
	copy(p.mr.position, buf.Target)
	buf.Replannable = false
	p.observe().ObserveSegmentRun(uint64(us) * 1000)
	return StatusOK
}
