// Package trajplan implements a jerk-limited cartesian trajectory planner:
// a fixed ring of move buffers, a cooperative dispatcher that drives move
// execution as non-blocking continuations, an S-curve acceleration planner
// with backward replanning, an arc-to-line segmenter, and the per-segment
// runtime that emits fixed-time motion segments to a downstream motor
// queue.
//
// Grounded on the teacher's internal/queue/runner.go cooperative
// completion loop and per-tag state machine, generalized from block I/O
// tags to trajectory-planner move buffers.
package trajplan

import (
	"math"
	"sync/atomic"

	"github.com/cncgo/trajplan/internal/ring"
)

// PathMode determines junction-velocity policy at the start of a new aline.
type PathMode int

const (
	PathModeContinuous PathMode = iota
	PathModeExactStop
)

// master is the planner-frame cursor (mm in the source): the cumulative
// position that producers advance as they commit regions, independent of
// what has actually run.
type master struct {
	position     []float64
	unitVec      []float64
	jerkHalf     float64 // Jm / 2
	jerkCubeRoot float64 // cbrt(Jm)
	pathMode     PathMode
}

// runtimeCursor is the runtime-frame cursor (mr in the source): the
// position reflecting what has actually been emitted to the motor queue,
// plus per-buffer scratch state for the currently running region.
type runtimeCursor struct {
	position []float64
	target   []float64
	velocity float64

	elapsed      float64
	segmentTime  float64
	segmentCount int
	segmentsHalf int
	vMid         float64
	aMid         float64

	// Arc-specific scratch, reset on each ARC buffer's NEW state.
	center1, center2     float64
	theta                float64
	segmentTheta         float64
	segmentLength        float64
	segmentMicroseconds  int64
}

// Planner ties together the buffer pool, the two position cursors, and the
// external collaborators (kinematics, motor queue) into the single
// stateful object spec.md's Design Notes recommend in place of the
// source's process-wide mm/mr/mb globals.
type Planner struct {
	cfg  *Config
	pool *ring.Pool

	mm master
	mr runtimeCursor

	kin         Kinematics
	mq          MotorQueue
	stepperHook Stepper

	runFlag atomic.Bool
}

// SetStepper attaches the hardware stop/start/reset collaborator. Optional:
// a Planner with no stepper attached treats IsBusy/AsyncStop/AsyncStart/
// AsyncEnd/QueuedEnd's Reinit call as no-ops on the stepper side.
func (p *Planner) SetStepper(st Stepper) { p.stepperHook = st }

// NewPlanner allocates a Planner with a fresh buffer pool sized per cfg.
func NewPlanner(cfg *Config, kin Kinematics, mq MotorQueue) *Planner {
	if cfg == nil {
		cfg = DefaultConfig(6)
	}
	p := &Planner{
		cfg:  cfg,
		pool: ring.NewPool(cfg.BufferSize, cfg.Axes),
		kin:  kin,
		mq:   mq,
	}
	p.mm.position = make([]float64, cfg.Axes)
	p.mm.unitVec = make([]float64, cfg.Axes)
	p.mm.jerkHalf = cfg.LinearJerkMax / 2
	p.mm.jerkCubeRoot = cubeRoot(cfg.LinearJerkMax)
	p.mr.position = make([]float64, cfg.Axes)
	p.mr.target = make([]float64, cfg.Axes)
	return p
}

func cubeRoot(x float64) float64 { return math.Cbrt(x) }

// SetPosition is an absolute teleport: it updates both the master and
// runtime cursors without touching the buffer pool. Used for G92-style
// repositioning.
func (p *Planner) SetPosition(pos []float64) Status {
	copy(p.mm.position, pos)
	copy(p.mr.position, pos)
	return StatusOK
}

// CheckWriteBuffers reports whether n write slots are currently available.
func (p *Planner) CheckWriteBuffers(n int) bool { return p.pool.CheckWriteBuffers(n) }

// IsBusy reports whether a run buffer is mid-dispatch or the attached
// stepper subsystem itself reports busy, supplementing the source's
// mp_isbusy() which only checked the run_flag.
func (p *Planner) IsBusy() bool {
	if p.runFlag.Load() {
		return true
	}
	if p.stepperHook != nil {
		return p.stepperHook.IsBusy()
	}
	return false
}

// Config and Pool accessors, for host introspection.
func (p *Planner) Config() *Config { return p.cfg }
func (p *Planner) Pool() *ring.Pool { return p.pool }

func (p *Planner) observe() Observer {
	if p.cfg.Observer != nil {
		return p.cfg.Observer
	}
	return NoOpObserver{}
}

func (p *Planner) logger() Logger { return p.cfg.Logger }

// Dwell enqueues a dwell of the given duration in seconds.
func (p *Planner) Dwell(seconds float64) (Status, error) {
	buf, ok := p.pool.GetWriteBuffer()
	if !ok {
		return p.bufferFullFatal("Dwell")
	}
	buf.Time = seconds / 60.0
	p.pool.QueueWriteBuffer(ring.MoveDwell)
	p.observe().ObserveQueue("dwell")
	return StatusOK, nil
}

// QueuedStop enqueues a deferred stop directive, ordered within the queue.
func (p *Planner) QueuedStop() (Status, error) { return p.queueControl(ring.MoveStop) }

// QueuedStart enqueues a deferred start directive.
func (p *Planner) QueuedStart() (Status, error) { return p.queueControl(ring.MoveStart) }

// QueuedEnd enqueues a deferred full-reinitialization directive. Per the
// source's "+++ fix this" comment on mp_queued_end, the runner forwards the
// END directive to the motor queue and additionally invokes Stepper.Reinit,
// which resets stepper-owned state only: the buffer pool and the mm/mr
// cursors are not reset by a queued END (AsyncEnd resets them). This is a
// partial fix, not a full G-code-level controller reset (see DESIGN.md).
func (p *Planner) QueuedEnd() (Status, error) { return p.queueControl(ring.MoveEnd) }

func (p *Planner) queueControl(mt ring.MoveType) (Status, error) {
	_, ok := p.pool.GetWriteBuffer()
	if !ok {
		return p.bufferFullFatal("QueuedControl")
	}
	p.pool.QueueWriteBuffer(mt)
	p.observe().ObserveQueue(mt.String())
	return StatusOK, nil
}

// AsyncStop acts immediately on hardware, bypassing the queue. Safe to call
// from an ISR-equivalent context.
func (p *Planner) AsyncStop() {
	if p.stepperHook != nil {
		p.stepperHook.Stop()
	}
}

// AsyncStart acts immediately on hardware, bypassing the queue.
func (p *Planner) AsyncStart() {
	if p.stepperHook != nil {
		p.stepperHook.Start()
	}
}

// AsyncEnd re-initializes the whole planner immediately: the pool is reset
// and both cursors are zeroed, then the stepper is reinitialized.
func (p *Planner) AsyncEnd() {
	p.pool.Reset()
	for i := range p.mm.position {
		p.mm.position[i] = 0
	}
	for i := range p.mr.position {
		p.mr.position[i] = 0
	}
	p.runFlag.Store(false)
	if p.stepperHook != nil {
		p.stepperHook.Reinit()
	}
}

// bufferFullFatal reports the one genuinely fatal producer condition: no
// write buffer was available. Per the source's _mp_queue_move, hitting this
// mid-move (e.g. partway through Aline's three regions) is not rolled back:
// whatever regions already committed stay queued and will run. UngetWriteBuffer
// only undoes a single still-Loading acquisition and cannot be used to unwind
// buffers that have already been committed with QueueWriteBuffer.
func (p *Planner) bufferFullFatal(op string) (Status, error) {
	p.observe().ObserveTrap("buffer_full")
	if p.cfg != nil {
		p.cfg.trap(op, "buffer pool exhausted")
	}
	return StatusBufferFullFatal, NewError(op, ErrCodeBufferFull, "buffer pool exhausted")
}
