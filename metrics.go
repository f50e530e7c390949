package trajplan

import (
	"sync/atomic"
	"time"
)

// latencyBuckets are histogram buckets in nanoseconds for the values
// passed to RecordSegmentRun (the runners report each emitted segment's
// duration), logarithmically spaced from 1us to 10s.
var latencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics tracks planner-wide operational statistics: what was queued, what
// ran, and how many non-fatal traps the planner absorbed along the way.
type Metrics struct {
	LinesQueued  atomic.Uint64
	ArcsQueued   atomic.Uint64
	DwellsQueued atomic.Uint64
	SegmentsRun  atomic.Uint64

	ZeroLengthDropped    atomic.Uint64
	BufferFullRejections atomic.Uint64
	EAGAINCount          atomic.Uint64

	ReplansRun          atomic.Uint64
	LookbackCapTraps    atomic.Uint64
	HTConvergenceTraps  atomic.Uint64
	DegenerateRegionHit atomic.Uint64

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	TotalDispatchLatencyNs atomic.Uint64
	DispatchCount          atomic.Uint64
	LatencyBuckets         [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with StartTime stamped from
// time.Now().UnixNano().
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) RecordLine()  { m.LinesQueued.Add(1) }
func (m *Metrics) RecordArc()   { m.ArcsQueued.Add(1) }
func (m *Metrics) RecordDwell() { m.DwellsQueued.Add(1) }

func (m *Metrics) RecordSegmentRun(latencyNs uint64) {
	m.SegmentsRun.Add(1)
	m.recordLatency(latencyNs)
}

func (m *Metrics) RecordZeroLengthDrop()    { m.ZeroLengthDropped.Add(1) }
func (m *Metrics) RecordBufferFull()        { m.BufferFullRejections.Add(1) }
func (m *Metrics) RecordEAGAIN()            { m.EAGAINCount.Add(1) }
func (m *Metrics) RecordReplan()            { m.ReplansRun.Add(1) }
func (m *Metrics) RecordLookbackCapTrap()   { m.LookbackCapTraps.Add(1) }
func (m *Metrics) RecordHTConvergenceTrap() { m.HTConvergenceTraps.Add(1) }
func (m *Metrics) RecordDegenerateRegion()  { m.DegenerateRegionHit.Add(1) }

// RecordQueueDepth records the current count of occupied (non-Empty) ring
// buffers for utilization statistics.
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)
	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalDispatchLatencyNs.Add(latencyNs)
	m.DispatchCount.Add(1)
	for i, bucket := range latencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the planner as stopped, for uptime accounting.
func (m *Metrics) Stop() { m.StopTime.Store(time.Now().UnixNano()) }

// MetricsSnapshot is a point-in-time, plain-value copy of Metrics.
type MetricsSnapshot struct {
	LinesQueued  uint64
	ArcsQueued   uint64
	DwellsQueued uint64
	SegmentsRun  uint64

	ZeroLengthDropped    uint64
	BufferFullRejections uint64
	EAGAINCount          uint64

	ReplansRun          uint64
	LookbackCapTraps    uint64
	HTConvergenceTraps  uint64
	DegenerateRegionHit uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgDispatchLatencyNs uint64
	UptimeNs             uint64
	LatencyHistogram     [numLatencyBuckets]uint64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		LinesQueued:          m.LinesQueued.Load(),
		ArcsQueued:           m.ArcsQueued.Load(),
		DwellsQueued:         m.DwellsQueued.Load(),
		SegmentsRun:          m.SegmentsRun.Load(),
		ZeroLengthDropped:    m.ZeroLengthDropped.Load(),
		BufferFullRejections: m.BufferFullRejections.Load(),
		EAGAINCount:          m.EAGAINCount.Load(),
		ReplansRun:           m.ReplansRun.Load(),
		LookbackCapTraps:     m.LookbackCapTraps.Load(),
		HTConvergenceTraps:   m.HTConvergenceTraps.Load(),
		DegenerateRegionHit:  m.DegenerateRegionHit.Load(),
		MaxQueueDepth:        m.MaxQueueDepth.Load(),
	}

	if c := m.QueueDepthCount.Load(); c > 0 {
		snap.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(c)
	}
	if c := m.DispatchCount.Load(); c > 0 {
		snap.AvgDispatchLatencyNs = m.TotalDispatchLatencyNs.Load() / c
	}

	start := m.StartTime.Load()
	if stop := m.StopTime.Load(); stop > 0 {
		snap.UptimeNs = uint64(stop - start)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - start)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	return snap
}

// Reset zeroes all counters, useful between test cases sharing a planner.
func (m *Metrics) Reset() {
	m.LinesQueued.Store(0)
	m.ArcsQueued.Store(0)
	m.DwellsQueued.Store(0)
	m.SegmentsRun.Store(0)
	m.ZeroLengthDropped.Store(0)
	m.BufferFullRejections.Store(0)
	m.EAGAINCount.Store(0)
	m.ReplansRun.Store(0)
	m.LookbackCapTraps.Store(0)
	m.HTConvergenceTraps.Store(0)
	m.DegenerateRegionHit.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalDispatchLatencyNs.Store(0)
	m.DispatchCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable collection of planner events, mirroring the
// teacher's I/O Observer but over planning/dispatch events instead of
// block-device read/write/discard/flush ops.
type Observer interface {
	ObserveQueue(moveType string)
	ObserveSegmentRun(latencyNs uint64)
	ObserveTrap(kind string)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver discards every event.
type NoOpObserver struct{}

func (NoOpObserver) ObserveQueue(string)          {}
func (NoOpObserver) ObserveSegmentRun(uint64)      {}
func (NoOpObserver) ObserveTrap(string)            {}
func (NoOpObserver) ObserveQueueDepth(uint32)      {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver { return &MetricsObserver{metrics: m} }

func (o *MetricsObserver) ObserveQueue(moveType string) {
	switch moveType {
	case "line", "aline", "accel", "cruise", "decel":
		o.metrics.RecordLine()
	case "arc":
		o.metrics.RecordArc()
	case "dwell":
		o.metrics.RecordDwell()
	}
}

func (o *MetricsObserver) ObserveSegmentRun(latencyNs uint64) { o.metrics.RecordSegmentRun(latencyNs) }

func (o *MetricsObserver) ObserveTrap(kind string) {
	switch kind {
	case "lookback_cap":
		o.metrics.RecordLookbackCapTrap()
	case "ht_convergence":
		o.metrics.RecordHTConvergenceTrap()
	case "degenerate_region":
		o.metrics.RecordDegenerateRegion()
	}
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) { o.metrics.RecordQueueDepth(depth) }

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
