package trajplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsQueuing(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	assert.Zero(t, snap.LinesQueued)

	m.RecordLine()
	m.RecordLine()
	m.RecordArc()
	m.RecordDwell()
	m.RecordZeroLengthDrop()

	snap = m.Snapshot()
	assert.Equal(t, uint64(2), snap.LinesQueued)
	assert.Equal(t, uint64(1), snap.ArcsQueued)
	assert.Equal(t, uint64(1), snap.DwellsQueued)
	assert.Equal(t, uint64(1), snap.ZeroLengthDropped)
}

func TestMetricsQueueDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	m.RecordQueueDepth(20)
	m.RecordQueueDepth(15)

	snap := m.Snapshot()
	assert.Equal(t, uint32(20), snap.MaxQueueDepth)
	assert.InDelta(t, float64(10+20+15)/3.0, snap.AvgQueueDepth, 0.1)
}

func TestMetricsSegmentLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordSegmentRun(1_000_000)
	m.RecordSegmentRun(2_000_000)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.SegmentsRun)
	assert.Equal(t, uint64(1_500_000), snap.AvgDispatchLatencyNs)
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()
	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	assert.GreaterOrEqual(t, snap.UptimeNs, uint64(10*time.Millisecond))

	m.Stop()
	time.Sleep(5 * time.Millisecond)
	snap2 := m.Snapshot()
	assert.LessOrEqual(t, snap2.UptimeNs, snap.UptimeNs+uint64(2*time.Millisecond))
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordLine()
	m.RecordQueueDepth(10)

	snap := m.Snapshot()
	assert.NotZero(t, snap.LinesQueued)

	m.Reset()
	snap = m.Snapshot()
	assert.Zero(t, snap.LinesQueued)
	assert.Zero(t, snap.MaxQueueDepth)
}

func TestObserver(t *testing.T) {
	observer := &NoOpObserver{}
	observer.ObserveQueue("line")
	observer.ObserveSegmentRun(1000)
	observer.ObserveTrap("lookback_cap")
	observer.ObserveQueueDepth(10)

	m := NewMetrics()
	metricsObserver := NewMetricsObserver(m)
	metricsObserver.ObserveQueue("line")
	metricsObserver.ObserveQueue("arc")
	metricsObserver.ObserveTrap("ht_convergence")

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.LinesQueued)
	assert.Equal(t, uint64(1), snap.ArcsQueued)
	assert.Equal(t, uint64(1), snap.HTConvergenceTraps)
}

func TestMetricsTraps(t *testing.T) {
	m := NewMetrics()
	m.RecordLookbackCapTrap()
	m.RecordHTConvergenceTrap()
	m.RecordDegenerateRegion()
	m.RecordBufferFull()
	m.RecordEAGAIN()
	m.RecordReplan()

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.LookbackCapTraps)
	assert.Equal(t, uint64(1), snap.HTConvergenceTraps)
	assert.Equal(t, uint64(1), snap.DegenerateRegionHit)
	assert.Equal(t, uint64(1), snap.BufferFullRejections)
	assert.Equal(t, uint64(1), snap.EAGAINCount)
	assert.Equal(t, uint64(1), snap.ReplansRun)
}
