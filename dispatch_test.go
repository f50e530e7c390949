package trajplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveDispatcherReturnsNoopOnEmptyQueue(t *testing.T) {
	p, _, _ := newTestPlanner(t)
	status, err := p.MoveDispatcher()
	require.NoError(t, err)
	assert.Equal(t, StatusNOOP, status)
}

func TestMoveDispatcherDrainsMultipleMovesInOrder(t *testing.T) {
	p, _, mq := newTestPlanner(t)
	_, err := p.Line([]float64{10, 0, 0}, 1)
	require.NoError(t, err)
	_, err = p.Dwell(1.0)
	require.NoError(t, err)

	status, err := p.MoveDispatcher()
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	status, err = p.MoveDispatcher()
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)

	assert.Equal(t, 1, mq.Lines())
	assert.Len(t, mq.Dwells(), 1)

	status, err = p.MoveDispatcher()
	require.NoError(t, err)
	assert.Equal(t, StatusNOOP, status)
}
