package camera

import (
	"errors"
	"fmt"
)

// ScriptError is a script failure reported by the camera. It is carried
// in ScriptExecution and only becomes a Go error through Err.
type ScriptError struct {
	ScriptID uint32
	Type     ScriptErrorType

	// Message is the text of the error message, if the camera sent one
	Message string
}

func (e *ScriptError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("script %d: %s error: %s", e.ScriptID, e.Type, e.Message)
	}
	return fmt.Sprintf("script %d: %s error", e.ScriptID, e.Type)
}

// IsScriptError returns true if err is or wraps a ScriptError.
func IsScriptError(err error) bool {
	var se *ScriptError
	return errors.As(err, &se)
}

// TransferError reports the position a chunked file transfer stopped at.
type TransferError struct {
	Operation string
	Name      string
	Offset    int
	Err       error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %q failed at offset %d: %v", e.Operation, e.Name, e.Offset, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
