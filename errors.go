package trajplan

import (
	"errors"
	"fmt"
)

// Status is the trajectory planner's result code, a direct port of the
// source firmware's uint8 status codes (TG_OK, TG_EAGAIN, ...). Producers
// and the dispatcher return a Status from every call instead of blocking;
// only StatusBufferFullFatal is ever escalated to an *Error.
type Status uint8

const (
	// StatusOK indicates the call completed and advanced planner state.
	StatusOK Status = iota
	// StatusEAGAIN indicates the caller (dispatcher) should re-enter this
	// same buffer on its next poll; no blocking occurred.
	StatusEAGAIN
	// StatusNOOP indicates nothing was available to do (e.g. the run
	// buffer is still Empty).
	StatusNOOP
	// StatusZeroLengthMove indicates a requested move planned to zero
	// length and was silently dropped rather than queued.
	StatusZeroLengthMove
	// StatusComplete is an internal-only status used between runner
	// sub-states; it is never returned across the package boundary.
	StatusComplete
	// StatusBufferFullFatal is the one status that escalates to an
	// *Error: a producer was invoked without first checking capacity via
	// CheckWriteBuffers.
	StatusBufferFullFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEAGAIN:
		return "eagain"
	case StatusNOOP:
		return "noop"
	case StatusZeroLengthMove:
		return "zero-length move"
	case StatusComplete:
		return "complete"
	case StatusBufferFullFatal:
		return "buffer pool exhausted"
	default:
		return "unknown status"
	}
}

// ErrorCode is a high-level error category, independent of the numeric
// Status, used so callers can errors.Is/As against a stable category
// without depending on the exact Status value.
type ErrorCode string

const (
	ErrCodeBufferFull        ErrorCode = "buffer pool exhausted"
	ErrCodeInvalidParameters ErrorCode = "invalid parameters"
	ErrCodeNotConfigured     ErrorCode = "planner not configured"
	ErrCodeDegenerateMove    ErrorCode = "degenerate move geometry"
)

// Error is a structured planner error carrying the failed operation, the
// buffer index it concerned (if any), a Status, a stable Code, and an
// optional wrapped cause.
type Error struct {
	Op     string
	Buffer int // ring buffer index; -1 if not applicable
	Code   ErrorCode
	Status Status
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Buffer >= 0 {
		return fmt.Sprintf("trajplan: %s (op=%s buffer=%d)", msg, e.Op, e.Buffer)
	}
	if e.Op != "" {
		return fmt.Sprintf("trajplan: %s (op=%s)", msg, e.Op)
	}
	return fmt.Sprintf("trajplan: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// NewError creates a structured error with no buffer context.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Buffer: -1, Code: code, Status: StatusBufferFullFatal, Msg: msg}
}

// NewBufferError creates a structured error scoped to one ring buffer.
func NewBufferError(op string, buffer int, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Buffer: buffer, Code: code, Status: StatusBufferFullFatal, Msg: msg}
}

// WrapError wraps an existing error with planner operation context,
// preserving an inner *Error's fields where present.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if pe, ok := inner.(*Error); ok {
		return &Error{Op: op, Buffer: pe.Buffer, Code: pe.Code, Status: pe.Status, Msg: pe.Msg, Inner: pe.Inner}
	}
	return &Error{Op: op, Buffer: -1, Code: ErrCodeInvalidParameters, Status: StatusBufferFullFatal, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is (or wraps) an *Error with the given Code.
func IsCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
