package ptp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned when an operation needs an open transport
	ErrNotOpen = errors.New("ptp: transport not open")

	// ErrAlreadyOpen is returned when opening a transport that is already open
	ErrAlreadyOpen = errors.New("ptp: transport already open")

	// ErrConnectFailed is returned when a transport cannot reach the device
	ErrConnectFailed = errors.New("ptp: connect failed")

	// ErrTimeout is returned when a transport read or write deadline elapses
	ErrTimeout = errors.New("ptp: timeout")

	// ErrMalformedContainer is returned by Unpack for undersized or
	// length-inconsistent input
	ErrMalformedContainer = errors.New("ptp: malformed container")

	// ErrParamOutOfRange is returned by Param for indices past the trailing region
	ErrParamOutOfRange = errors.New("ptp: parameter out of range")

	// ErrProtocolMismatch is returned when a received container does not
	// belong to the current transaction phase
	ErrProtocolMismatch = errors.New("ptp: protocol mismatch")

	// ErrUnsupported is returned for camera models or operations that are
	// not implemented
	ErrUnsupported = errors.New("ptp: unsupported")
)

// MismatchError describes a container that arrived out of place within
// a transaction. It matches ErrProtocolMismatch with errors.Is.
type MismatchError struct {
	// Phase is the transaction phase being received ("data", "response")
	Phase string

	// Field is what did not match ("transaction ID", "type")
	Field string

	// Expected is the value the engine was waiting for
	Expected uint32

	// Actual is the value found in the container
	Actual uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("ptp: %s phase %s mismatch: expected 0x%08X, got 0x%08X",
		e.Phase, e.Field, e.Expected, e.Actual)
}

// Is reports whether target is ErrProtocolMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrProtocolMismatch
}

// ResponseError represents a non-OK response code returned by the device.
type ResponseError struct {
	// Operation is the command that failed
	Operation string

	// Code is the response code from the device
	Code uint16
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%04X)", e.Operation, ResponseName(e.Code), e.Code)
}

// IsResponseError returns true if err is or wraps a ResponseError.
func IsResponseError(err error) bool {
	var re *ResponseError
	return errors.As(err, &re)
}
