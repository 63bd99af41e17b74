package camera

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
)

// MessageType is the kind of a script message.
type MessageType uint32

const (
	// MessageNone means the queue was empty
	MessageNone MessageType = iota
	MessageError
	MessageReturn
	MessageUser
)

func (t MessageType) String() string {
	switch t {
	case MessageNone:
		return "none"
	case MessageError:
		return "error"
	case MessageReturn:
		return "return"
	case MessageUser:
		return "user"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// ValueType is the Lua type of a return or user message value.
type ValueType uint32

const (
	ValueUnsupported ValueType = iota
	ValueNil
	ValueBoolean
	ValueInteger
	ValueString
	// ValueTable is a table serialized to a string by the script
	ValueTable
)

func (t ValueType) String() string {
	switch t {
	case ValueUnsupported:
		return "unsupported"
	case ValueNil:
		return "nil"
	case ValueBoolean:
		return "boolean"
	case ValueInteger:
		return "integer"
	case ValueString:
		return "string"
	case ValueTable:
		return "table"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// ScriptErrorType is the camera's script failure code.
type ScriptErrorType uint32

const (
	ScriptErrNone ScriptErrorType = iota
	ScriptErrCompile
	ScriptErrRuntime
)

func (t ScriptErrorType) String() string {
	switch t {
	case ScriptErrNone:
		return "none"
	case ScriptErrCompile:
		return "compile"
	case ScriptErrRuntime:
		return "runtime"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// WriteStatus is the camera's answer to WriteScriptMessage.
type WriteStatus uint32

const (
	WriteOK WriteStatus = iota
	WriteNotRunning
	WriteQueueFull
	WriteBadID
)

func (s WriteStatus) String() string {
	switch s {
	case WriteOK:
		return "ok"
	case WriteNotRunning:
		return "script not running"
	case WriteQueueFull:
		return "queue full"
	case WriteBadID:
		return "bad script id"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// ScriptStatus is the decoded result of a script status query.
type ScriptStatus struct {
	// Raw is the status mask as returned by the camera
	Raw uint32

	// Running is true while a script executes
	Running bool

	// MessagePending is true while script messages wait to be read
	MessagePending bool
}

// ScriptMessage is one message from the script to the host.
//
// For MessageError the Subtype field holds a ScriptErrorType rather than
// a ValueType; use ErrorType.
type ScriptMessage struct {
	Type     MessageType
	Subtype  ValueType
	ScriptID uint32
	Data     []byte
}

// ErrorType returns the failure code of an error message, or
// ScriptErrNone for other message types.
func (m ScriptMessage) ErrorType() ScriptErrorType {
	if m.Type != MessageError {
		return ScriptErrNone
	}
	return ScriptErrorType(m.Subtype)
}

// Int returns the value of an integer message.
func (m ScriptMessage) Int() (int32, error) {
	if m.Subtype != ValueInteger || m.Type == MessageError {
		return 0, fmt.Errorf("message holds %s, not integer", m.Subtype)
	}
	if len(m.Data) < 4 {
		return 0, fmt.Errorf("integer message has %d bytes, need 4", len(m.Data))
	}
	return int32(binary.LittleEndian.Uint32(m.Data)), nil
}

// Bool returns the value of a boolean message.
func (m ScriptMessage) Bool() (bool, error) {
	if m.Subtype != ValueBoolean || m.Type == MessageError {
		return false, fmt.Errorf("message holds %s, not boolean", m.Subtype)
	}
	if len(m.Data) < 4 {
		return false, fmt.Errorf("boolean message has %d bytes, need 4", len(m.Data))
	}
	return binary.LittleEndian.Uint32(m.Data) != 0, nil
}

// Text returns the message data as text, without a trailing NUL.
func (m ScriptMessage) Text() string {
	return string(bytes.TrimRight(m.Data, "\x00"))
}

// String renders the message value the way the script would print it.
func (m ScriptMessage) String() string {
	if m.Type == MessageError {
		return m.Text()
	}
	switch m.Subtype {
	case ValueNil:
		return "nil"
	case ValueBoolean:
		if v, err := m.Bool(); err == nil {
			return strconv.FormatBool(v)
		}
	case ValueInteger:
		if v, err := m.Int(); err == nil {
			return strconv.Itoa(int(v))
		}
	case ValueString, ValueTable:
		return m.Text()
	}
	return fmt.Sprintf("<%s %d bytes>", m.Subtype, len(m.Data))
}

// ScriptExecution is the outcome of ExecuteLua. A script failure is
// reported in Error, not as the call's error.
type ScriptExecution struct {
	// ID is the script id assigned by the camera
	ID uint32

	// Error is the initial error code, or the final one for blocking runs
	Error ScriptErrorType

	// Messages are the messages collected while waiting, in arrival order
	Messages []ScriptMessage
}

// Err returns a *ScriptError when the script failed, nil otherwise.
func (x *ScriptExecution) Err() error {
	if x.Error == ScriptErrNone {
		return nil
	}
	se := &ScriptError{ScriptID: x.ID, Type: x.Error}
	for _, m := range x.Messages {
		if m.Type == MessageError {
			se.Message = m.Text()
			break
		}
	}
	return se
}

// Returned returns the values of the script's return messages.
func (x *ScriptExecution) Returned() []ScriptMessage {
	var out []ScriptMessage
	for _, m := range x.Messages {
		if m.Type == MessageReturn {
			out = append(out, m)
		}
	}
	return out
}
