package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolEnforcesMinimumSize(t *testing.T) {
	p := NewPool(1, 3)
	assert.Equal(t, 4, p.Size())
}

func TestGetWriteBufferAdvancesCursorAndMarksLoading(t *testing.T) {
	p := NewPool(8, 3)
	buf, ok := p.GetWriteBuffer()
	require.True(t, ok)
	assert.Equal(t, Loading, buf.BufferState)

	w, q, r := p.Cursors()
	assert.Equal(t, 1, w)
	assert.Equal(t, 0, q)
	assert.Equal(t, 0, r)
}

func TestUngetWriteBufferRewindsCursor(t *testing.T) {
	p := NewPool(8, 3)
	_, ok := p.GetWriteBuffer()
	require.True(t, ok)
	p.UngetWriteBuffer()

	w, _, _ := p.Cursors()
	assert.Equal(t, 0, w)
	assert.True(t, p.CheckWriteBuffers(1))
}

func TestQueueWriteBufferStampsMoveTypeAndAdvancesQueueCursor(t *testing.T) {
	p := NewPool(8, 3)
	buf, ok := p.GetWriteBuffer()
	require.True(t, ok)
	buf.Length = 10

	queued := p.QueueWriteBuffer(MoveLine)
	assert.Equal(t, MoveLine, queued.MoveType)
	assert.Equal(t, Queued, queued.BufferState)
	assert.Equal(t, StateNew, queued.MoveState)

	_, q, _ := p.Cursors()
	assert.Equal(t, 1, q)
}

func TestGetRunBufferIsIdempotentUntilFinalized(t *testing.T) {
	p := NewPool(8, 3)
	buf, _ := p.GetWriteBuffer()
	p.QueueWriteBuffer(MoveLine)

	run1, ok := p.GetRunBuffer()
	require.True(t, ok)
	assert.Equal(t, Running, run1.BufferState)

	run2, ok := p.GetRunBuffer()
	require.True(t, ok)
	assert.Same(t, run1, run2)
	assert.Same(t, buf, run1)
}

func TestFinalizeRunBufferPromotesQueuedSuccessorToPending(t *testing.T) {
	p := NewPool(8, 3)
	p.GetWriteBuffer()
	p.QueueWriteBuffer(MoveLine)
	p.GetWriteBuffer()
	p.QueueWriteBuffer(MoveLine)

	_, ok := p.GetRunBuffer()
	require.True(t, ok)
	p.FinalizeRunBuffer()
	assert.Equal(t, Pending, p.bufs[1].BufferState)

	second, ok := p.GetRunBuffer()
	require.True(t, ok)
	assert.Equal(t, Running, second.BufferState)
}

func TestCheckWriteBuffersReportsCapacity(t *testing.T) {
	p := NewPool(4, 3)
	assert.True(t, p.CheckWriteBuffers(4))
	assert.False(t, p.CheckWriteBuffers(5))

	p.GetWriteBuffer()
	assert.False(t, p.CheckWriteBuffers(4))
	assert.True(t, p.CheckWriteBuffers(3))
}

func TestPrevBufferImplicitTracksMostRecentlyQueued(t *testing.T) {
	p := NewPool(8, 3)
	first, _ := p.GetWriteBuffer()
	first.Length = 1
	p.QueueWriteBuffer(MoveLine)

	second, _ := p.GetWriteBuffer()
	second.Length = 2
	p.QueueWriteBuffer(MoveLine)

	assert.Same(t, second, p.PrevBufferImplicit())
}

func TestNoLeaksAfterFullDrainCursorsConverge(t *testing.T) {
	p := NewPool(8, 3)
	for i := 0; i < 3; i++ {
		p.GetWriteBuffer()
		p.QueueWriteBuffer(MoveLine)
	}
	for i := 0; i < 3; i++ {
		_, ok := p.GetRunBuffer()
		require.True(t, ok)
		p.FinalizeRunBuffer()
	}

	w, q, r := p.Cursors()
	assert.Equal(t, w, q)
	assert.Equal(t, q, r)
}

func TestResetRewindsAllCursorsAndClearsBuffers(t *testing.T) {
	p := NewPool(8, 3)
	buf, _ := p.GetWriteBuffer()
	buf.Length = 42
	p.QueueWriteBuffer(MoveLine)

	p.Reset()

	w, q, r := p.Cursors()
	assert.Zero(t, w)
	assert.Zero(t, q)
	assert.Zero(t, r)
	assert.Equal(t, Empty, p.bufs[0].BufferState)
}

func TestNextAndPrevAreRingInverses(t *testing.T) {
	p := NewPool(4, 3)
	b := &p.bufs[0]
	assert.Same(t, b, p.Prev(p.Next(b)))
	assert.Same(t, b, p.Next(p.Prev(b)))
}
