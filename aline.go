package trajplan

import (
	"math"

	"github.com/google/uuid"

	"github.com/cncgo/trajplan/internal/ring"
)

// regionPlan is the result of compute_regions: up to three region lengths
// and the velocities at their boundaries. count identifies the case that
// produced the plan (3 for HBT, 1 for pure T/H/B, 2 for HT); it is not the
// number of non-zero lengths, since HBT and HT may fold a region to zero.
// 0 means the move is degenerate and must be dropped as
// StatusZeroLengthMove.
type regionPlan struct {
	count int

	initialVelocity float64
	cruiseVelocity  float64
	finalVelocity   float64

	headLength float64
	bodyLength float64
	tailLength float64
}

// Aline enqueues a jerk-limited linear move: three region buffers
// (head/body/tail, a folded-away region queued as a zero-length MoveNull)
// computed by compute_regions, followed synchronously by
// the backward replanner so that any predecessor whose tail assumed a zero
// final velocity gets a chance to raise it to this move's actual initial
// velocity.
//
// Grounded on the source firmware's mp_aline, reframed as a Planner method
// operating on explicit mm/mr cursors instead of process-wide globals, per
// the Design Notes.
func (p *Planner) Aline(target []float64, minutes float64) (Status, error) {
	travel := make([]float64, len(target))
	for i := range target {
		travel[i] = target[i] - p.mm.position[i]
	}
	unit, length := UnitVector(travel)
	if length < p.cfg.MinLineLength || minutes < p.cfg.Epsilon {
		p.observe().ObserveTrap("zero_length")
		return StatusZeroLengthMove, nil
	}

	vt := length / minutes

	vir, skipBackplan := p.resolveInitialVelocity(unit, vt)
	copy(p.mm.unitVec, unit)

	plan := p.computeRegions(vir, vt, 0, length)
	if plan.count == 0 {
		return StatusZeroLengthMove, nil
	}

	traceID := uuid.New()
	type spec struct {
		start, end, request, length float64
	}
	specs := [3]spec{
		{plan.initialVelocity, plan.cruiseVelocity, vir, plan.headLength},
		{plan.cruiseVelocity, plan.cruiseVelocity, vt, plan.bodyLength},
		{plan.cruiseVelocity, plan.finalVelocity, plan.finalVelocity, plan.tailLength},
	}

	// A StatusBufferFullFatal partway through these three regions is not
	// rolled back: queueRegion has already committed each prior region with
	// QueueWriteBuffer, so UngetWriteBuffer (which only undoes a single
	// still-Loading acquisition) cannot unwind them without desyncing the
	// queue cursor from the write cursor. This matches the source's
	// _mp_queue_move, which leaves partial state queued on this path too.
	for _, s := range specs {
		_, status, _ := p.queueRegion(s.start, s.end, s.request, s.length, traceID)
		if status == StatusBufferFullFatal {
			return p.bufferFullFatal("Aline")
		}
	}

	p.observe().ObserveQueue("aline")

	if !skipBackplan {
		p.backplan()
	}

	return StatusOK, nil
}

// resolveInitialVelocity selects Vir, the requested initial velocity for
// this move, from the most recently queued buffer. Per the source's
// junction-velocity handling:
//   - a predecessor ARC carries no usable unit vector for an angular-jerk
//     comparison, so its end velocity is inherited directly and the
//     backward replanner is skipped for this call (arc-to-line blending is
//     a documented non-goal; see DESIGN.md).
//   - otherwise, if the predecessor is not QUEUED — an empty queue, or a
//     prior move the dispatcher has already advanced into Pending/Running
//     (the ordinary steady state of a busy controller draining the queue
//     while new moves are produced) — it is no longer safe to assume its
//     requested velocity still reflects what will actually run, so the
//     junction is forced to an EXACT_STOP: Vir = 0.
//   - otherwise Vir is the predecessor's requested velocity scaled by the
//     angular jerk factor between the two unit vectors, clamped to this
//     move's own requested cruise velocity.
func (p *Planner) resolveInitialVelocity(unit []float64, vt float64) (vir float64, skipBackplan bool) {
	prev := p.pool.PrevBufferImplicit()

	switch {
	case prev.MoveType == ring.MoveArc:
		p.mm.pathMode = PathModeContinuous
		return prev.EndVelocity, true
	case prev.BufferState != ring.Queued:
		p.mm.pathMode = PathModeExactStop
		return 0, false
	default:
		requested := prev.RequestVelocity
		if body := p.pool.Prev(prev); body.BufferState == ring.Queued {
			requested = body.RequestVelocity
		}
		ajf := AngularJerkFactor(unit, prev.UnitVec)
		vir = requested * ajf
		if vir > vt {
			vir = vt
		}
		if vir < 0 {
			vir = 0
		}
		if ajf < p.cfg.Epsilon {
			p.mm.pathMode = PathModeExactStop
		} else {
			p.mm.pathMode = PathModeContinuous
		}
		return vir, false
	}
}

// computeRegions is compute_regions from the source: given a requested
// initial velocity vir, cruise velocity vt, final velocity vf, and total
// move length, decide how many of {head, body, tail} are needed and at
// what velocities, under the configured jerk maximum.
//
// Five cases, tried in order:
//   - HBT: all three fit; if head or tail folds below MinLineLength it is
//     absorbed into body.
//   - Pure-T: too short to reach vt at all, and decelerating toward vf.
//   - Pure-H: too short to reach vt at all, and accelerating toward vf.
//   - Pure-B: vir, vt, and vf already coincide; no curve needed.
//   - HT: no body fits; head and cruise velocity are solved by iterating
//     to convergence (bounded by a fixed 100-iteration cap, independent
//     of MaxLookbackDepth).
func (p *Planner) computeRegions(vir, vt, vf, length float64) regionPlan {
	jm := p.cfg.LinearJerkMax
	eps := p.cfg.Epsilon
	minLen := p.cfg.MinLineLength

	if length < minLen {
		return regionPlan{}
	}

	head := RegionLength(vir, vt, jm)
	tail := RegionLength(vt, vf, jm)
	body := length - head - tail

	if body >= 0 {
		if head < minLen {
			body += head
			head = 0
		}
		if tail < minLen {
			body += tail
			tail = 0
		}
		return regionPlan{
			count:           3,
			initialVelocity: vir,
			cruiseVelocity:  vt,
			finalVelocity:   vf,
			headLength:      head,
			bodyLength:      body,
			tailLength:      tail,
		}
	}

	fullSwing := RegionLength(vir, vf, jm)

	if vf < vir && length < fullSwing {
		vi := RegionVelocity(vf, length, jm)
		return regionPlan{
			count:           1,
			initialVelocity: vi,
			cruiseVelocity:  vi,
			finalVelocity:   vf,
			tailLength:      length,
		}
	}

	if vf > vir && length < fullSwing {
		vc := RegionVelocity(vir, length, jm)
		return regionPlan{
			count:           1,
			initialVelocity: vir,
			cruiseVelocity:  vc,
			finalVelocity:   vc,
			headLength:      length,
		}
	}

	if math.Abs(vf-vir) < eps && math.Abs(vf-vt) < eps {
		return regionPlan{
			count:           1,
			initialVelocity: vir,
			cruiseVelocity:  vt,
			finalVelocity:   vf,
			bodyLength:      length,
		}
	}

	return p.computeHeadTail(vir, vt, vf, length)
}

// computeHeadTail solves the HT case: no body region fits, so head and
// tail must share the whole length and meet at a single peak/valley
// velocity vc. There is no closed form, so the source iterates: split
// length proportionally to the velocity deltas, re-derive vc from the
// head split, re-derive both region lengths from vc, and repeat until the
// body residual (which should converge to zero) stops moving by more than
// epsilon, capped at 100 iterations.
func (p *Planner) computeHeadTail(vir, vt, vf, length float64) regionPlan {
	jm := p.cfg.LinearJerkMax
	eps := p.cfg.Epsilon
	minLen := p.cfg.MinLineLength

	vc := vt
	var head, tail float64
	prevResidual := math.Inf(1)
	converged := false

	for i := 0; i < 100; i++ {
		dvHead := math.Abs(vir - vc)
		denom := dvHead + math.Abs(vc-vf)
		if denom < eps {
			converged = true
			break
		}
		headShare := length * dvHead / denom
		vc = RegionVelocity(vir, headShare, jm)
		head = RegionLength(vir, vc, jm)
		tail = RegionLength(vc, vf, jm)
		residual := length - head - tail
		if math.Abs(residual-prevResidual) <= eps {
			converged = true
			break
		}
		prevResidual = residual
	}

	if !converged {
		p.observe().ObserveTrap("ht_convergence")
		p.cfg.trap("computeRegions", "head-tail convergence cap hit", "length", length)
	}

	if head < minLen {
		head = 0
	}
	if tail < minLen {
		tail = 0
	}
	body := length - head - tail
	if body < minLen {
		body = 0
	}

	return regionPlan{
		count:           2,
		initialVelocity: vir,
		cruiseVelocity:  vc,
		finalVelocity:   vf,
		headLength:      head,
		bodyLength:      body,
		tailLength:      tail,
	}
}

// queueRegion acquires one write buffer for a single head/body/tail region,
// advances the master position cursor by length along mm.unitVec, and
// derives the region's MoveType from how its start and end velocities
// compare (equal -> CRUISE, rising -> ACCEL, falling -> DECEL). A
// zero-length region is still queued, as MoveNull, so the three-buffer
// structure the backward replanner walks stays intact even when head or
// tail folded away.
func (p *Planner) queueRegion(start, end, request, length float64, traceID uuid.UUID) (*ring.Buffer, Status, error) {
	buf, ok := p.pool.GetWriteBuffer()
	if !ok {
		return nil, StatusBufferFullFatal, nil
	}

	for i := range p.mm.position {
		p.mm.position[i] += length * p.mm.unitVec[i]
	}
	copy(buf.Target, p.mm.position)
	copy(buf.UnitVec, p.mm.unitVec)
	buf.TraceID = traceID
	buf.Length = length
	buf.StartVelocity = start
	buf.EndVelocity = end
	buf.RequestVelocity = request
	buf.Replannable = true

	var mt ring.MoveType
	switch {
	case length < p.cfg.Epsilon:
		mt = ring.MoveNull
	case math.Abs(end-start) < p.cfg.Epsilon:
		mt = ring.MoveCruise
	case end > start:
		mt = ring.MoveAccel
	default:
		mt = ring.MoveDecel
	}
	p.pool.QueueWriteBuffer(mt)
	return buf, StatusOK, nil
}
