package instrument

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes instrumentation errors.
type ErrorCode string

const (
	// ErrCodeCaptureFailed indicates the event could not be built. The
	// instrumented computation itself completed.
	ErrCodeCaptureFailed ErrorCode = "CAPTURE_FAILED"

	// ErrCodeSchemaMismatch indicates an object lacks the fit or transform
	// capability the call needs. Nothing was executed.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
)

// ErrNonFiniteState is wrapped by a capture failure whose fitted state holds
// NaN or an infinity. Such a state has no JSON or digest encoding.
var ErrNonFiniteState = errors.New("non-finite state value")

// Error is returned by Instrumentor methods for instrumentation failures.
type Error struct {
	Code ErrorCode
	// Step is the qualified step name involved, if any.
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s: step %q: %v", e.Code, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsCaptureError reports whether err is a capture failure.
func IsCaptureError(err error) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeCaptureFailed
	}
	return false
}

// IsSchemaMismatch reports whether err is a schema mismatch.
func IsSchemaMismatch(err error) bool {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code == ErrCodeSchemaMismatch
	}
	return false
}
