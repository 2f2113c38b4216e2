package syncer

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes sync errors.
type ErrorCode string

const (
	// ErrCodeTransmissionFailed indicates the backend could not be reached
	// or kept failing. The events were re-buffered.
	ErrCodeTransmissionFailed ErrorCode = "TRANSMISSION_FAILED"

	// ErrCodeProtocolMismatch indicates the backend answered with receipts
	// that do not fit the batch, or rejected a key conflict. The events were
	// re-buffered; retrying will not help until the backend is fixed.
	ErrCodeProtocolMismatch ErrorCode = "PROTOCOL_MISMATCH"
)

// Error is returned by Sync when a batch was not delivered.
type Error struct {
	Code ErrorCode
	// Events is the number of events put back in the buffer.
	Events int
	// Attempts is the number of transmissions tried.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d events re-buffered after %d attempts: %v", e.Code, e.Events, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransmissionError reports whether err is a transmission failure.
func IsTransmissionError(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeTransmissionFailed
	}
	return false
}

// IsProtocolMismatch reports whether err is a protocol mismatch.
func IsProtocolMismatch(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeProtocolMismatch
	}
	return false
}

// protocolError marks a failure that retrying cannot fix.
type protocolError struct {
	err error
}

func (e *protocolError) Error() string { return e.err.Error() }
func (e *protocolError) Unwrap() error { return e.err }
