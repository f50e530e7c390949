package trajplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(6)
	assert.Equal(t, 6, cfg.Axes)
	assert.Greater(t, cfg.BufferSize, 0)
	assert.Greater(t, cfg.MaxLookbackDepth, 0)
	assert.Greater(t, cfg.LinearJerkMax, 0.0)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Observer)
}

func TestDefaultConfigMinimumAxes(t *testing.T) {
	cfg := DefaultConfig(1)
	assert.Equal(t, 3, cfg.Axes)
}

func TestMicrosecondsFromMinutes(t *testing.T) {
	assert.Equal(t, int64(OneMinuteOfMicroseconds), MicrosecondsFromMinutes(1))
	assert.Equal(t, int64(OneMinuteOfMicroseconds/2), MicrosecondsFromMinutes(0.5))
}

func TestConfigTrapInvokesHook(t *testing.T) {
	cfg := DefaultConfig(3)
	var gotOp, gotMsg string
	cfg.TrapFunc = func(op, msg string, args ...any) {
		gotOp, gotMsg = op, msg
	}
	cfg.trap("ComputeRegions", "HT convergence cap hit")
	assert.Equal(t, "ComputeRegions", gotOp)
	assert.Equal(t, "HT convergence cap hit", gotMsg)
}
