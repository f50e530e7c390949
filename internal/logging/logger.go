// Package logging provides the structured, leveled logger used throughout
// the trajectory planner. It wraps stdlib log.Logger the same way the
// teacher package did, but generalizes the flat Config into a Format-aware
// (text/json) one and adds chainable context loggers so a caller can stamp
// every line in a region's lifecycle with its buffer index, trace id, or an
// attached error without repeating key-value pairs at every call site.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Config holds logging configuration.
type Config struct {
	Level LogLevel
	// Format is "text" (default, key=value) or "json".
	Format string
	Output io.Writer
	// Sync is accepted for interface parity with callers that expect a
	// forced-flush knob; both formats here already write synchronously, so
	// this is currently a no-op.
	Sync bool
	// NoColor is accepted for parity with terminal-aware callers; this
	// logger never emits ANSI color codes, so it is a no-op.
	NoColor bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

type field struct {
	key string
	val any
}

// Logger wraps stdlib log with level support and chainable context fields.
// A Logger produced by With/WithBuffer/WithMove/WithError carries its
// parent's fields plus one more; the parent is never mutated.
type Logger struct {
	logger *log.Logger
	level  LogLevel
	format string
	mu     *sync.Mutex
	fields []field
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// NewLogger creates a new logger.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	format := config.Format
	if format == "" {
		format = "text"
	}
	return &Logger{
		logger: log.New(output, "", log.LstdFlags|log.Lmicroseconds),
		level:  config.Level,
		format: format,
		mu:     &sync.Mutex{},
	}
}

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

func (l *Logger) child(key string, val any) *Logger {
	fields := make([]field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	fields = append(fields, field{key, val})
	return &Logger{logger: l.logger, level: l.level, format: l.format, mu: l.mu, fields: fields}
}

// With returns a child logger that always includes key=val.
func (l *Logger) With(key string, val any) *Logger { return l.child(key, val) }

// WithBuffer tags subsequent lines with the ring buffer index they concern.
func (l *Logger) WithBuffer(index int) *Logger { return l.child("buffer_id", index) }

// WithMove tags subsequent lines with a region's trace id.
func (l *Logger) WithMove(traceID fmt.Stringer) *Logger {
	return l.child("trace_id", traceID.String())
}

// WithError attaches an error to subsequent lines.
func (l *Logger) WithError(err error) *Logger { return l.child("error", err) }

// formatArgs converts a flat key/value arg list into fields.
func formatArgs(args []any) []field {
	fields := make([]field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		fields = append(fields, field{key, args[i+1]})
	}
	return fields
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.level {
		return
	}
	all := make([]field, 0, len(l.fields)+len(args)/2)
	all = append(all, l.fields...)
	all = append(all, formatArgs(args)...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.format == "json" {
		l.logger.Print(renderJSON(level, msg, all))
	} else {
		l.logger.Print(renderText(level, msg, all))
	}
}

func renderText(level LogLevel, msg string, fields []field) string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(level.String())
	sb.WriteString("] ")
	sb.WriteString(msg)
	for _, f := range fields {
		sb.WriteByte(' ')
		sb.WriteString(f.key)
		sb.WriteByte('=')
		fmt.Fprintf(&sb, "%v", f.val)
	}
	return sb.String()
}

func renderJSON(level LogLevel, msg string, fields []field) string {
	m := map[string]any{"level": level.String(), "msg": msg}
	for _, f := range fields {
		m[f.key] = fmt.Sprintf("%v", f.val)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%q:%q", k, fmt.Sprintf("%v", m[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// Printf-style logging.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, fmt.Sprintf(format, args...)) }

// Printf for compatibility.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// Global convenience functions.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
