package ptp

// Container layout constants.
const (
	// HeaderSize is the size of the fixed container header in bytes:
	// LENGTH(4) + TYPE(2) + CODE(2) + TRANSACTION_ID(4)
	HeaderSize = 12

	// ParamSize is the wire size of a single container parameter
	ParamSize = 4

	// MaxParams is the conventional parameter limit for Command and
	// Response containers. It is not enforced by the codec.
	MaxParams = 5
)

// ContainerType identifies the phase a container belongs to.
type ContainerType uint16

// Container types.
const (
	// TypeUndefined is the zero value and never appears on the wire
	TypeUndefined ContainerType = 0

	// TypeCommand starts a transaction
	TypeCommand ContainerType = 1

	// TypeData carries the optional data phase
	TypeData ContainerType = 2

	// TypeResponse ends a transaction
	TypeResponse ContainerType = 3

	// TypeEvent is an asynchronous device notification
	TypeEvent ContainerType = 4
)

func (t ContainerType) String() string {
	switch t {
	case TypeCommand:
		return "command"
	case TypeData:
		return "data"
	case TypeResponse:
		return "response"
	case TypeEvent:
		return "event"
	default:
		return "undefined"
	}
}

// Standard operation codes (PTP 1.0 section 10.4).
const (
	OpGetDeviceInfo     uint16 = 0x1001
	OpOpenSession       uint16 = 0x1002
	OpCloseSession      uint16 = 0x1003
	OpGetStorageIDs     uint16 = 0x1004
	OpGetStorageInfo    uint16 = 0x1005
	OpGetNumObjects     uint16 = 0x1006
	OpGetObjectHandles  uint16 = 0x1007
	OpGetObjectInfo     uint16 = 0x1008
	OpGetObject         uint16 = 0x1009
	OpGetThumb          uint16 = 0x100A
	OpDeleteObject      uint16 = 0x100B
	OpInitiateCapture   uint16 = 0x100E
	OpGetDevicePropDesc uint16 = 0x1014
)

// Response codes (PTP 1.0 section 11).
const (
	RespUndefined              uint16 = 0x2000
	RespOK                     uint16 = 0x2001
	RespGeneralError           uint16 = 0x2002
	RespSessionNotOpen         uint16 = 0x2003
	RespInvalidTransactionID   uint16 = 0x2004
	RespOperationNotSupported  uint16 = 0x2005
	RespParameterNotSupported  uint16 = 0x2006
	RespIncompleteTransfer     uint16 = 0x2007
	RespInvalidStorageID       uint16 = 0x2008
	RespInvalidObjectHandle    uint16 = 0x2009
	RespDevicePropNotSupported uint16 = 0x200A
	RespStoreFull              uint16 = 0x200C
	RespAccessDenied           uint16 = 0x200F
	RespDeviceBusy             uint16 = 0x2019
	RespInvalidParameter       uint16 = 0x201D
	RespSessionAlreadyOpen     uint16 = 0x201E
	RespTransactionCancelled   uint16 = 0x201F
)

// ResponseName returns a human-readable name for a response code.
func ResponseName(code uint16) string {
	switch code {
	case RespUndefined:
		return "undefined"
	case RespOK:
		return "OK"
	case RespGeneralError:
		return "general error"
	case RespSessionNotOpen:
		return "session not open"
	case RespInvalidTransactionID:
		return "invalid transaction ID"
	case RespOperationNotSupported:
		return "operation not supported"
	case RespParameterNotSupported:
		return "parameter not supported"
	case RespIncompleteTransfer:
		return "incomplete transfer"
	case RespInvalidStorageID:
		return "invalid storage ID"
	case RespInvalidObjectHandle:
		return "invalid object handle"
	case RespDevicePropNotSupported:
		return "device property not supported"
	case RespStoreFull:
		return "store full"
	case RespAccessDenied:
		return "access denied"
	case RespDeviceBusy:
		return "device busy"
	case RespInvalidParameter:
		return "invalid parameter"
	case RespSessionAlreadyOpen:
		return "session already open"
	case RespTransactionCancelled:
		return "transaction cancelled"
	default:
		return "unknown response code"
	}
}
