// Package ring implements the fixed-capacity move-buffer ring that backs
// the trajectory planner: a contiguous arena of buffers addressed by index,
// linked into a closed ring via static prev/next indices, and exposed
// through three cursors (write, queue-commit, run).
//
// Grounded on the teacher's internal/queue/pool.go (sync.Pool byte-buffer
// pool) for the package-as-pool shape, generalized to the richer multi-state
// ring described in the source firmware's mpBufferPool.
package ring

import "github.com/google/uuid"

// BufferState is the lifecycle stage of a ring buffer. Ordering matters and
// the zero value MUST be Empty so bulk-zeroing a buffer re-initializes it.
type BufferState uint8

const (
	Empty BufferState = iota
	Loading
	Queued
	Pending
	Running
)

func (s BufferState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Queued:
		return "queued"
	case Pending:
		return "pending"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// MoveType dispatches a buffer to its runner. The zero value MUST be
// MoveNull.
type MoveType uint8

const (
	MoveNull MoveType = iota
	MoveAccel
	MoveCruise
	MoveDecel
	MoveLine
	MoveArc
	MoveDwell
	MoveStart
	MoveStop
	MoveEnd
)

func (t MoveType) String() string {
	switch t {
	case MoveNull:
		return "null"
	case MoveAccel:
		return "accel"
	case MoveCruise:
		return "cruise"
	case MoveDecel:
		return "decel"
	case MoveLine:
		return "line"
	case MoveArc:
		return "arc"
	case MoveDwell:
		return "dwell"
	case MoveStart:
		return "start"
	case MoveStop:
		return "stop"
	case MoveEnd:
		return "end"
	default:
		return "unknown"
	}
}

// MoveState is the re-entrant continuation state for a running buffer. The
// zero value MUST be StateNew.
type MoveState uint8

const (
	StateNew MoveState = iota
	StateRunning1
	StateRunning2
	StateFinalize
	StateEnd
)

// StateRunning is a convenience alias for the first running sub-state.
const StateRunning = StateRunning1

// Arc carries the angular/linear travel and plane-axis selection for ARC
// buffers only. Per the source, a unit vector for arcs is computed but
// never used downstream, so no UnitVec field is carried here.
type Arc struct {
	Theta         float64
	Radius        float64
	AngularTravel float64
	LinearTravel  float64
	Axis1         int
	Axis2         int
	AxisLinear    int
}

// Buffer is one ring element: the fundamental unit consumed by the runtime.
// prevIdx/nextIdx are structural ring links, set once at pool Init and never
// mutated afterward.
type Buffer struct {
	prevIdx int
	nextIdx int
	index   int

	// TraceID correlates the three region buffers emitted by one Aline
	// call, for logging purposes only; it is zeroed with the rest of the
	// payload when the buffer is cleared, and plays no role in planning
	// math.
	TraceID uuid.UUID

	BufferState BufferState
	MoveType    MoveType
	MoveState   MoveState
	Replannable bool

	Target  []float64
	UnitVec []float64
	Arc     Arc

	Time            float64
	Length          float64
	StartVelocity   float64
	EndVelocity     float64
	RequestVelocity float64
}

// Index returns this buffer's position in the pool arena, stable for the
// lifetime of the pool.
func (b *Buffer) Index() int { return b.index }

// Pool is the fixed ring of move buffers with three cursors: w (next free
// slot for a producer), q (next slot to commit), r (next slot to run).
type Pool struct {
	axes int
	bufs []Buffer
	w    int
	q    int
	r    int
}

// NewPool allocates a closed ring of size buffers (at least 4), each with axes-length
// Target/UnitVec slices, and sets w = q = r = 0.
func NewPool(size, axes int) *Pool {
	if size < 4 {
		size = 4
	}
	p := &Pool{axes: axes, bufs: make([]Buffer, size)}
	p.initRing()
	return p
}

func (p *Pool) initRing() {
	n := len(p.bufs)
	for i := range p.bufs {
		p.bufs[i] = Buffer{}
		p.bufs[i].index = i
		p.bufs[i].nextIdx = (i + 1) % n
		p.bufs[i].prevIdx = (i - 1 + n) % n
		p.bufs[i].Target = make([]float64, p.axes)
		p.bufs[i].UnitVec = make([]float64, p.axes)
	}
	p.w, p.q, p.r = 0, 0, 0
}

// Reset clears every buffer and rewinds all three cursors to slot 0. Used by
// a full controller re-init (async/queued END).
func (p *Pool) Reset() { p.initRing() }

// Size returns the ring's fixed capacity.
func (p *Pool) Size() int { return len(p.bufs) }

// Next returns the ring-successor of b.
func (p *Pool) Next(b *Buffer) *Buffer { return &p.bufs[b.nextIdx] }

// Prev returns the ring-predecessor of b.
func (p *Pool) Prev(b *Buffer) *Buffer { return &p.bufs[b.prevIdx] }

// CheckWriteBuffers reports whether the next n buffers starting at the
// write cursor are all Empty. It does not advance anything. An n larger
// than the ring's capacity always reports false.
func (p *Pool) CheckWriteBuffers(n int) bool {
	if n > len(p.bufs) {
		return false
	}
	idx := p.w
	for i := 0; i < n; i++ {
		if p.bufs[idx].BufferState != Empty {
			return false
		}
		idx = p.bufs[idx].nextIdx
	}
	return true
}

// clear zeroes a buffer's payload, preserving its structural ring links and
// index.
func (p *Pool) clear(b *Buffer) {
	prevIdx, nextIdx, index := b.prevIdx, b.nextIdx, b.index
	target, unit := b.Target, b.UnitVec
	*b = Buffer{}
	b.prevIdx, b.nextIdx, b.index = prevIdx, nextIdx, index
	for i := range target {
		target[i] = 0
	}
	for i := range unit {
		unit[i] = 0
	}
	b.Target = target
	b.UnitVec = unit
}

// GetWriteBuffer acquires the next free write slot, marks it Loading, and
// advances the write cursor. Returns (nil, false) if the slot is not Empty.
// Multiple write buffers may be open (Loading) at once; they commit in the
// order they were acquired.
func (p *Pool) GetWriteBuffer() (*Buffer, bool) {
	b := &p.bufs[p.w]
	if b.BufferState != Empty {
		return nil, false
	}
	p.clear(b)
	b.BufferState = Loading
	p.w = b.nextIdx
	return b, true
}

// UngetWriteBuffer releases the most recently acquired, still-Loading
// buffer back to Empty and steps the write cursor back. Only safe to call
// on that one buffer, immediately, before any other Get.
func (p *Pool) UngetWriteBuffer() {
	p.w = p.bufs[p.w].prevIdx
	p.bufs[p.w].BufferState = Empty
}

// QueueWriteBuffer stamps the queue cursor's buffer with moveType, marks it
// Queued with a fresh move-state, and advances the queue cursor.
func (p *Pool) QueueWriteBuffer(moveType MoveType) *Buffer {
	b := &p.bufs[p.q]
	b.MoveType = moveType
	b.MoveState = StateNew
	b.BufferState = Queued
	p.q = b.nextIdx
	return b
}

// GetRunBuffer returns the current run buffer, promoting it from Queued or
// Pending to Running. Calling it again before FinalizeRunBuffer returns the
// same buffer (idempotent re-entry for continuations). Returns (nil, false)
// if nothing is ready to run.
func (p *Pool) GetRunBuffer() (*Buffer, bool) {
	b := &p.bufs[p.r]
	if b.BufferState == Queued || b.BufferState == Pending {
		b.BufferState = Running
	}
	if b.BufferState == Running {
		return b, true
	}
	return nil, false
}

// FinalizeRunBuffer clears the current run buffer, marks it Empty, and
// advances the run cursor. If the new run buffer is already Queued, it is
// promoted to Pending so the backward replanner knows not to touch it.
func (p *Pool) FinalizeRunBuffer() {
	b := &p.bufs[p.r]
	p.clear(b)
	b.BufferState = Empty
	p.r = b.nextIdx
	if next := &p.bufs[p.r]; next.BufferState == Queued {
		next.BufferState = Pending
	}
}

// PrevBufferImplicit returns the buffer immediately before the next
// available write slot — the most recently queued buffer. Used by the
// planner to peek at the predecessor before acquiring new writes.
func (p *Pool) PrevBufferImplicit() *Buffer {
	return &p.bufs[p.bufs[p.w].prevIdx]
}

// Cursors returns the current write/queue/run indices, for diagnostics and
// the "no leaks" property test (w == q == r once drained).
func (p *Pool) Cursors() (w, q, r int) { return p.w, p.q, p.r }
