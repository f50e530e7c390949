package trajplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cncgo/trajplan/internal/ring"
)

func TestAlineRejectsSubMinimumLength(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	status, err := p.Aline([]float64{0.001, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusZeroLengthMove, status)
}

func TestAlineFirstMoveIsExactStopWithThreeRegions(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	status, err := p.Aline([]float64{100, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, PathModeExactStop, p.mm.pathMode)

	tail := p.Pool().PrevBufferImplicit()
	body := p.Pool().Prev(tail)
	head := p.Pool().Prev(body)
	assert.InDelta(t, 0, head.StartVelocity, 1e-9)
	assert.InDelta(t, 0, tail.EndVelocity, 1e-9)
}

func TestAlineRegionLengthsSumToTotal(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	length := 200.0
	status, err := p.Aline([]float64{length, 0, 0}, 2)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)

	tail := p.Pool().PrevBufferImplicit()
	body := p.Pool().Prev(tail)
	head := p.Pool().Prev(body)

	total := head.Length + body.Length + tail.Length
	assert.InDelta(t, length, total, 1e-6)
}

func TestAlineCollinearContinuationInheritsPredecessorVelocity(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	_, err := p.Aline([]float64{100, 0, 0}, 1)
	require.NoError(t, err)

	status, err := p.Aline([]float64{200, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, PathModeContinuous, p.mm.pathMode)

	newHead := p.Pool().Prev(p.Pool().Prev(p.Pool().PrevBufferImplicit()))
	assert.InDelta(t, 100, newHead.StartVelocity, 1e-6)
}

func TestAlineRightAngleTurnStaysContinuousButSlower(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	_, err := p.Aline([]float64{100, 0, 0}, 1)
	require.NoError(t, err)

	status, err := p.Aline([]float64{100, 100, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, PathModeContinuous, p.mm.pathMode)

	newHead := p.Pool().Prev(p.Pool().Prev(p.Pool().PrevBufferImplicit()))
	assert.Greater(t, newHead.StartVelocity, 0.0)
	assert.Less(t, newHead.StartVelocity, 100.0)
}

func TestAlineForcesExactStopWhenPredecessorTailLeftQueued(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	_, err := p.Aline([]float64{100, 0, 0}, 1)
	require.NoError(t, err)

	// Drain the predecessor's head and body regions so the dispatcher
	// promotes its tail buffer out of Queued (into Pending), mimicking a
	// busy controller that is continuously draining the queue while new
	// moves are produced.
	require.Equal(t, StatusOK, drainDispatcher(t, p))
	require.Equal(t, StatusOK, drainDispatcher(t, p))
	tail := p.Pool().PrevBufferImplicit()
	require.NotEqual(t, ring.Queued, tail.BufferState)

	status, err := p.Aline([]float64{200, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, PathModeExactStop, p.mm.pathMode)

	newTail := p.Pool().PrevBufferImplicit()
	newBody := p.Pool().Prev(newTail)
	newHead := p.Pool().Prev(newBody)
	assert.InDelta(t, 0, newHead.StartVelocity, 1e-9)
}

func TestAline180DegreeReversalYieldsZeroAngularJerkFactor(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	_, err := p.Aline([]float64{100, 0, 0}, 1)
	require.NoError(t, err)

	status, err := p.Aline([]float64{0, 0, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, PathModeExactStop, p.mm.pathMode)
}

func TestAlinePropagatesThroughDispatcherToMotorQueue(t *testing.T) {
	p, _, mq := newTestPlanner(t)
	status, err := p.Aline([]float64{50, 0, 0}, 0.1)
	require.NoError(t, err)
	require.Equal(t, StatusOK, status)

	for i := 0; i < 3; i++ {
		status = drainDispatcher(t, p)
		assert.Equal(t, StatusOK, status)
	}
	assert.Greater(t, mq.Lines(), 0)
}

func TestComputeRegionsHBTSplitsAllThreeRegions(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	plan := p.computeRegions(0, 1000, 0, 500)
	assert.Equal(t, 3, plan.count)
	assert.InDelta(t, 500, plan.headLength+plan.bodyLength+plan.tailLength, 1e-6)
}

func TestComputeRegionsPureBodyWhenVelocitiesCoincide(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	plan := p.computeRegions(300, 300, 300, 10)
	assert.InDelta(t, 10, plan.bodyLength, 1e-9)
	assert.InDelta(t, 0, plan.headLength, 1e-9)
	assert.InDelta(t, 0, plan.tailLength, 1e-9)
}

func TestComputeRegionsTooShortForMinimumLengthReturnsZero(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	plan := p.computeRegions(0, 1000, 0, 0.001)
	assert.Equal(t, 0, plan.count)
}
