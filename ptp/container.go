package ptp

import (
	"encoding/binary"
	"fmt"
)

// Container is a single PTP message: a fixed header plus a trailing
// byte region that holds either packed parameters or a raw payload.
//
// Parameters and payload are two views of the same trailing bytes.
// AddParam appends to the region, SetPayload replaces it, and Param
// reads 4-byte slices of it on demand.
type Container struct {
	// Type is the container phase (command, data, response, event)
	Type ContainerType

	// Code is the operation, response or event code
	Code uint16

	// TransactionID correlates all containers of one transaction
	TransactionID uint32

	trailing []byte
}

// NewContainer returns an empty container of the given type and code.
func NewContainer(t ContainerType, code uint16) *Container {
	return &Container{Type: t, Code: code}
}

// NewCommand returns an empty Command container for the operation code.
func NewCommand(code uint16) *Container {
	return NewContainer(TypeCommand, code)
}

// NewData returns an empty Data container for the operation code.
func NewData(code uint16) *Container {
	return NewContainer(TypeData, code)
}

// NewResponse returns an empty Response container with the response code.
func NewResponse(code uint16) *Container {
	return NewContainer(TypeResponse, code)
}

// AddParam appends a 32-bit parameter.
// Only meaningful for Command and Response containers; do not mix with SetPayload.
func (c *Container) AddParam(v uint32) {
	c.trailing = binary.LittleEndian.AppendUint32(c.trailing, v)
}

// SetPayload replaces the trailing region with a copy of payload.
// Only meaningful for Data containers; do not mix with AddParam.
func (c *Container) SetPayload(payload []byte) {
	c.trailing = append([]byte(nil), payload...)
}

// Payload returns the trailing region. The slice aliases the container.
func (c *Container) Payload() []byte {
	return c.trailing
}

// Length returns the total wire length (header + trailing bytes).
func (c *Container) Length() uint32 {
	return uint32(HeaderSize + len(c.trailing))
}

// NumParams returns how many complete 4-byte parameters the trailing region holds.
func (c *Container) NumParams() int {
	return len(c.trailing) / ParamSize
}

// Param returns the n-th (0-based) parameter from the trailing region.
// Returns ErrParamOutOfRange if (n+1)*4 exceeds the trailing length.
func (c *Container) Param(n int) (uint32, error) {
	if n < 0 || (n+1)*ParamSize > len(c.trailing) {
		return 0, fmt.Errorf("%w: param %d, trailing region is %d bytes",
			ErrParamOutOfRange, n, len(c.trailing))
	}
	off := n * ParamSize
	return binary.LittleEndian.Uint32(c.trailing[off : off+ParamSize]), nil
}

// Params returns every complete parameter in the trailing region.
func (c *Container) Params() []uint32 {
	params := make([]uint32, c.NumParams())
	for i := range params {
		off := i * ParamSize
		params[i] = binary.LittleEndian.Uint32(c.trailing[off : off+ParamSize])
	}
	return params
}

// IsEmpty reports whether the container has no code and no trailing bytes.
func (c *Container) IsEmpty() bool {
	return c.Code == 0 && len(c.trailing) == 0
}

// Pack serializes the container to its wire form.
//
// Frame structure:
//
//	[LENGTH(4)][TYPE(2)][CODE(2)][TRANSACTION_ID(4)][TRAILING...]
func (c *Container) Pack() []byte {
	frame := make([]byte, HeaderSize, HeaderSize+len(c.trailing))
	binary.LittleEndian.PutUint32(frame[0:4], c.Length())
	binary.LittleEndian.PutUint16(frame[4:6], uint16(c.Type))
	binary.LittleEndian.PutUint16(frame[6:8], c.Code)
	binary.LittleEndian.PutUint32(frame[8:12], c.TransactionID)
	return append(frame, c.trailing...)
}

// Unpack parses a wire frame into the container, replacing its contents.
// The trailing bytes are copied; frame may be reused by the caller.
//
// Returns ErrMalformedContainer if frame is shorter than HeaderSize or the
// declared length does not equal len(frame).
func (c *Container) Unpack(frame []byte) error {
	if len(frame) < HeaderSize {
		return fmt.Errorf("%w: got %d bytes, minimum is %d",
			ErrMalformedContainer, len(frame), HeaderSize)
	}

	length := binary.LittleEndian.Uint32(frame[0:4])
	if length < HeaderSize || int64(length) != int64(len(frame)) {
		return fmt.Errorf("%w: declared length %d, buffer holds %d bytes",
			ErrMalformedContainer, length, len(frame))
	}

	c.Type = ContainerType(binary.LittleEndian.Uint16(frame[4:6]))
	c.Code = binary.LittleEndian.Uint16(frame[6:8])
	c.TransactionID = binary.LittleEndian.Uint32(frame[8:12])
	c.trailing = append([]byte(nil), frame[HeaderSize:length]...)

	return nil
}

// Unpack parses a wire frame into a new container.
func Unpack(frame []byte) (*Container, error) {
	c := &Container{}
	if err := c.Unpack(frame); err != nil {
		return nil, err
	}
	return c, nil
}

// PeekLength returns the declared total length from a frame header.
// The frame must hold at least 4 bytes.
func PeekLength(header []byte) (uint32, error) {
	if len(header) < 4 {
		return 0, fmt.Errorf("%w: got %d bytes, need 4 for length", ErrMalformedContainer, len(header))
	}
	return binary.LittleEndian.Uint32(header[0:4]), nil
}

func (c *Container) String() string {
	return fmt.Sprintf("%s code=0x%04X tid=%d len=%d", c.Type, c.Code, c.TransactionID, c.Length())
}
