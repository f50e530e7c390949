package trajplan

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/cncgo/trajplan/internal/ring"
)

// regionGroup is the three physical buffers (head, body, tail) that make up
// one Aline call, in that order. Aline always queues exactly three buffers
// — folded-away regions are queued as zero-length MoveNull rather than
// omitted — so a group is always this fixed shape.
type regionGroup [3]*ring.Buffer

// backplan runs synchronously at the end of every Aline call. At an
// EXACT_STOP junction it only freezes the predecessor's regions and
// returns. Otherwise a backward braking pass clamps the velocities along
// the replannable chain to what can still brake to a stop by the end of
// the newest move, then a forward re-optimization pass re-plans each
// touched move's head/body/tail against the junction velocities.
//
// Grounded on the source firmware's mp_backplan/mp_plan_block_list pair,
// reframed as two Planner-local passes over the same Queued buffer range
// instead of mutating a linked list of process-wide move structs in place.
func (p *Planner) backplan() {
	p.observe().ObserveQueue("backplan_run")

	// An EXACT_STOP junction is a hard fence: the predecessor's (up to
	// three) queued regions are marked non-replannable so no later walk
	// crosses this move, and nothing behind it is replanned.
	if p.mm.pathMode == PathModeExactStop {
		head := p.pool.Prev(p.pool.Prev(p.pool.PrevBufferImplicit()))
		prev := p.pool.Prev(head)
		for i := 0; i < 3 && prev.BufferState == ring.Queued; i++ {
			prev.Replannable = false
			prev = p.pool.Prev(prev)
		}
		return
	}

	// Each pass can independently flag a non-fatal diagnostic (a depth cap
	// hit, a group whose re-optimization produced a degenerate plan); rather
	// than trap each one immediately as it's found, collect them across the
	// whole sweep and log the batch once.
	var diag error
	diag = multierr.Append(diag, p.runBrakingPass())
	groups, err := p.collectLookbackGroups()
	diag = multierr.Append(diag, err)
	diag = multierr.Append(diag, p.runForwardPass(groups))

	if diag != nil {
		p.cfg.trap("backplan", "non-fatal diagnostics during replan", "errors", diag)
	}
}

// runBrakingPass walks backward from the newest queued buffer, accumulating
// length, and clamps every crossed junction velocity to the fastest speed
// that could still be braked to a stop over the distance walked so far.
// This is the hard safety bound: no amount of forward re-optimization is
// allowed to violate it, which is why it runs first.
func (p *Planner) runBrakingPass() error {
	jm := p.cfg.LinearJerkMax
	buf := p.pool.PrevBufferImplicit()
	accumulated := 0.0
	depth := 0

	for depth < p.cfg.MaxLookbackDepth {
		if buf.BufferState != ring.Queued || !buf.Replannable {
			break
		}
		accumulated += buf.Length
		brakeVelocity := RegionVelocity(0, accumulated, jm)
		if buf.EndVelocity > brakeVelocity {
			buf.EndVelocity = brakeVelocity
		}
		if buf.StartVelocity > brakeVelocity {
			buf.StartVelocity = brakeVelocity
		}
		prev := p.pool.Prev(buf)
		if prev == buf {
			break
		}
		buf = prev
		depth++
	}

	p.observe().ObserveQueue("braking_pass")
	if depth >= p.cfg.MaxLookbackDepth {
		p.observe().ObserveTrap("lookback_cap")
		return errors.New("lookback depth cap hit during braking pass")
	}
	return nil
}

// collectLookbackGroups walks backward from the newest move, grouping
// buffers into regionGroups, stopping at the first non-Queued or
// non-replannable buffer (a RUNNING/PENDING predecessor, or the
// predecessor of an EXACT_STOP junction, whose regions backplan marked
// non-replannable) or at
// MaxLookbackDepth groups, whichever comes first. Index 0 is the newest
// group; the last index is the oldest one reached.
func (p *Planner) collectLookbackGroups() ([]regionGroup, error) {
	var groups []regionGroup
	cursor := p.pool.PrevBufferImplicit()
	depth := 0

	for depth < p.cfg.MaxLookbackDepth {
		tail := cursor
		if tail.BufferState != ring.Queued || !tail.Replannable {
			break
		}
		body := p.pool.Prev(tail)
		head := p.pool.Prev(body)
		if body.BufferState != ring.Queued || head.BufferState != ring.Queued {
			break
		}
		groups = append(groups, regionGroup{head, body, tail})

		predecessor := p.pool.Prev(head)
		if predecessor == head || predecessor.BufferState != ring.Queued || !predecessor.Replannable {
			break
		}
		cursor = predecessor
		depth++
	}

	if depth >= p.cfg.MaxLookbackDepth {
		p.observe().ObserveTrap("lookback_cap")
		return groups, errors.New("lookback depth cap hit collecting predecessor moves")
	}
	return groups, nil
}

// runForwardPass re-splits each group's head/body/tail lengths using
// compute_regions, now that the braking pass has fixed every junction
// velocity along the chain. The successor's initial velocity (vf for this
// group) is read directly off the next-newer group's already-braked head
// buffer rather than recomputed, since junction velocities are owned by
// the braking pass; only the internal region-length distribution is
// re-optimized here.
func (p *Planner) runForwardPass(groups []regionGroup) error {
	if len(groups) == 0 {
		return nil
	}

	var diag error
	for i := len(groups) - 1; i >= 0; i-- {
		h, b, t := groups[i][0], groups[i][1], groups[i][2]
		totalLength := h.Length + b.Length + t.Length
		if totalLength < p.cfg.Epsilon {
			continue
		}

		vir := h.StartVelocity
		vt := b.RequestVelocity
		vf := 0.0
		if i > 0 {
			vf = groups[i-1][0].StartVelocity
		}

		plan := p.computeRegions(vir, vt, vf, totalLength)
		if plan.count == 0 {
			diag = multierr.Append(diag, fmt.Errorf("group %d at buffer %d re-optimized to a degenerate plan, left unchanged", i, h.Index()))
			continue
		}

		unit := CopyVector(t.UnitVec)
		groupEnd := CopyVector(t.Target)
		groupStart := make([]float64, len(groupEnd))
		for k := range groupStart {
			groupStart[k] = groupEnd[k] - unit[k]*totalLength
		}

		p.rewriteRegion(h, groupStart, unit, plan.headLength, plan.initialVelocity, plan.cruiseVelocity, vir)
		p.rewriteRegion(b, CopyVector(h.Target), unit, plan.bodyLength, plan.cruiseVelocity, plan.cruiseVelocity, vt)
		p.rewriteRegion(t, CopyVector(b.Target), unit, plan.tailLength, plan.cruiseVelocity, plan.finalVelocity, plan.finalVelocity)
	}

	p.observe().ObserveQueue("forward_pass")
	p.observe().ObserveQueueDepth(uint32(p.queueDepth()))
	return diag
}

// queueDepth counts non-Empty ring buffers, for Observer.ObserveQueueDepth.
func (p *Planner) queueDepth() int {
	n := p.pool.Size()
	depth := 0
	w, _, r := p.pool.Cursors()
	if w == r && p.pool.PrevBufferImplicit().BufferState != ring.Empty {
		return n
	}
	idx := r
	for idx != w {
		depth++
		idx = (idx + 1) % n
	}
	return depth
}

// rewriteRegion overwrites one region buffer's length, velocities, and
// absolute target in place, recomputing its MoveType from the new
// start/end velocity relationship the same way queueRegion does for a
// freshly queued region.
func (p *Planner) rewriteRegion(buf *ring.Buffer, start, unit []float64, length, vs, ve, request float64) {
	buf.Length = length
	buf.StartVelocity = vs
	buf.EndVelocity = ve
	buf.RequestVelocity = request
	for i := range buf.Target {
		buf.Target[i] = start[i] + unit[i]*length
	}

	switch {
	case length < p.cfg.Epsilon:
		buf.MoveType = ring.MoveNull
	case math.Abs(ve-vs) < p.cfg.Epsilon:
		buf.MoveType = ring.MoveCruise
	case ve > vs:
		buf.MoveType = ring.MoveAccel
	default:
		buf.MoveType = ring.MoveDecel
	}
}
