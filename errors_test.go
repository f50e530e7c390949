package trajplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError(t *testing.T) {
	err := NewError("Aline", ErrCodeInvalidParameters, "zero jerk configured")

	assert.Equal(t, "Aline", err.Op)
	assert.Equal(t, ErrCodeInvalidParameters, err.Code)
	assert.Equal(t, "trajplan: zero jerk configured (op=Aline)", err.Error())
}

func TestBufferError(t *testing.T) {
	err := NewBufferError("GetWriteBuffer", 5, ErrCodeBufferFull, "no write buffers available")

	assert.Equal(t, 5, err.Buffer)
	assert.Equal(t, "trajplan: no write buffers available (op=GetWriteBuffer buffer=5)", err.Error())
}

func TestWrapError(t *testing.T) {
	inner := errors.New("boom")
	err := WrapError("Line", inner)

	assert.Equal(t, "Line", err.Op)
	assert.ErrorIs(t, err, err)
	assert.True(t, errors.Is(err, err.Inner) || errors.Unwrap(err) == inner)
}

func TestWrapErrorPreservesInnerError(t *testing.T) {
	original := NewBufferError("QueueWriteBuffer", 2, ErrCodeBufferFull, "pool exhausted")
	wrapped := WrapError("Dispatch", original)

	assert.Equal(t, "Dispatch", wrapped.Op)
	assert.Equal(t, 2, wrapped.Buffer)
	assert.Equal(t, ErrCodeBufferFull, wrapped.Code)
}

func TestIsCode(t *testing.T) {
	err := NewError("Aline", ErrCodeDegenerateMove, "move collapsed to a point")

	assert.True(t, IsCode(err, ErrCodeDegenerateMove))
	assert.False(t, IsCode(err, ErrCodeBufferFull))
	assert.False(t, IsCode(nil, ErrCodeDegenerateMove))
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusOK:              "ok",
		StatusEAGAIN:          "eagain",
		StatusNOOP:            "noop",
		StatusZeroLengthMove:  "zero-length move",
		StatusBufferFullFatal: "buffer pool exhausted",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
}
