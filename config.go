package trajplan

import "github.com/cncgo/trajplan/internal/logging"

// Config carries the tunables the planner consumes at construction time;
// it is read-only after Init, matching the source firmware's settings
// table.
type Config struct {
	// Axes is the configured axis count (>= 3; typically 6: X,Y,Z,A,B,C).
	Axes int
	// BufferSize is the fixed ring capacity (MP_BUFFER_SIZE).
	BufferSize int
	// MaxLookbackDepth caps the backward replanner's walk
	// (MP_MAX_LOOKBACK_DEPTH).
	MaxLookbackDepth int

	// LinearJerkMax is the maximum permitted jerk, mm/min^3.
	LinearJerkMax float64
	// MinSegmentLen is the minimum arc/runtime segment length, mm.
	MinSegmentLen float64
	// MinSegmentTime is the target ACCEL/DECEL runtime segment duration,
	// microseconds (MIN_SEGMENT_TIME). It sets segments_per_half alongside
	// the region's total time, not an arc segment count.
	MinSegmentTime float64
	// MinLineLength is the minimum accepted aline/line length, mm.
	MinLineLength float64
	// Epsilon is the planning-level float comparison tolerance.
	Epsilon float64

	Logger   Logger
	Observer Observer
	// TrapFunc receives non-fatal planning anomalies (iteration caps,
	// degenerate regions). If nil, traps are only logged and counted.
	TrapFunc func(op, msg string, args ...any)
}

// OneMinuteOfMicroseconds is ONE_MINUTE_OF_MICROSECONDS from the source:
// the conversion constant between planner-internal minutes and the
// motor-queue's microsecond time base.
const OneMinuteOfMicroseconds = 60 * 1_000_000

// MicrosecondsFromMinutes converts planner time (minutes) to the integer
// microseconds the motor queue expects, ported from the source's uSec().
func MicrosecondsFromMinutes(minutes float64) int64 {
	return int64(minutes*OneMinuteOfMicroseconds + 0.5)
}

// DefaultConfig returns sane defaults scaled to typical desktop-CNC mm/min
// feedrates, for the given axis count. Numeric defaults are carried over
// from the source firmware's settings.h-equivalent constants.
func DefaultConfig(axes int) *Config {
	if axes < 3 {
		axes = 3
	}
	return &Config{
		Axes:             axes,
		BufferSize:       48,
		MaxLookbackDepth: 16,

		LinearJerkMax:  50_000_000,
		MinSegmentLen:  0.05,
		MinSegmentTime: 5_000,
		MinLineLength:  0.01,
		Epsilon:        0.0001,

		Logger:   logging.Default(),
		Observer: NoOpObserver{},
	}
}

func (c *Config) trap(op, msg string, args ...any) {
	if c.TrapFunc != nil {
		c.TrapFunc(op, msg, args...)
	}
	if c.Logger != nil {
		c.Logger.Warn(msg, append([]any{"op", op}, args...)...)
	}
}
