package ptp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestPackCommandNoParams(t *testing.T) {
	cmd := NewCommand(OpGetDeviceInfo)
	cmd.TransactionID = 0

	frame := cmd.Pack()

	if len(frame) != HeaderSize {
		t.Fatalf("frame length = %d, want %d", len(frame), HeaderSize)
	}

	want := []byte{0x0C, 0x00, 0x00, 0x00}
	if !bytes.Equal(frame[0:4], want) {
		t.Errorf("length field = % X, want % X", frame[0:4], want)
	}

	if got := binary.LittleEndian.Uint16(frame[4:6]); got != uint16(TypeCommand) {
		t.Errorf("type = %d, want %d", got, TypeCommand)
	}

	if got := binary.LittleEndian.Uint16(frame[6:8]); got != 0x1001 {
		t.Errorf("code = 0x%04X, want 0x1001", got)
	}
}

func TestPackLayout(t *testing.T) {
	cmd := NewCommand(0x9999)
	cmd.TransactionID = 0x01020304
	cmd.AddParam(7)
	cmd.AddParam(0xAABBCCDD)

	want := []byte{
		0x14, 0x00, 0x00, 0x00, // length = 20
		0x01, 0x00, // command
		0x99, 0x99, // code
		0x04, 0x03, 0x02, 0x01, // transaction ID
		0x07, 0x00, 0x00, 0x00, // param 0
		0xDD, 0xCC, 0xBB, 0xAA, // param 1
	}

	if got := cmd.Pack(); !bytes.Equal(got, want) {
		t.Errorf("Pack() = % X\nwant      % X", got, want)
	}
}

func TestRoundTripParams(t *testing.T) {
	tests := []struct {
		name   string
		typ    ContainerType
		code   uint16
		tid    uint32
		params []uint32
	}{
		{name: "command no params", typ: TypeCommand, code: OpOpenSession, tid: 0},
		{name: "command one param", typ: TypeCommand, code: OpOpenSession, tid: 1, params: []uint32{1}},
		{name: "response five params", typ: TypeResponse, code: RespOK, tid: 42, params: []uint32{1, 2, 3, 4, 5}},
		{name: "max values", typ: TypeResponse, code: 0xFFFF, tid: 0xFFFFFFFF, params: []uint32{0xFFFFFFFF, 0}},
		{name: "event", typ: TypeEvent, code: 0x4002, tid: 9, params: []uint32{0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContainer(tt.typ, tt.code)
			c.TransactionID = tt.tid
			for _, p := range tt.params {
				c.AddParam(p)
			}

			got, err := Unpack(c.Pack())
			if err != nil {
				t.Fatalf("Unpack() error: %v", err)
			}

			if got.Type != tt.typ {
				t.Errorf("Type = %v, want %v", got.Type, tt.typ)
			}
			if got.Code != tt.code {
				t.Errorf("Code = 0x%04X, want 0x%04X", got.Code, tt.code)
			}
			if got.TransactionID != tt.tid {
				t.Errorf("TransactionID = %d, want %d", got.TransactionID, tt.tid)
			}
			if got.NumParams() != len(tt.params) {
				t.Fatalf("NumParams() = %d, want %d", got.NumParams(), len(tt.params))
			}
			for i, want := range tt.params {
				p, err := got.Param(i)
				if err != nil {
					t.Fatalf("Param(%d) error: %v", i, err)
				}
				if p != want {
					t.Errorf("Param(%d) = 0x%08X, want 0x%08X", i, p, want)
				}
			}
		})
	}
}

func TestRoundTripPayload(t *testing.T) {
	for _, size := range []int{0, 1, 3, 4, 511, 512, 513, 70000} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i * 7)
		}

		c := NewData(0x9999)
		c.TransactionID = 5
		c.SetPayload(payload)

		frame := c.Pack()
		if len(frame) != HeaderSize+size {
			t.Fatalf("size %d: frame length = %d, want %d", size, len(frame), HeaderSize+size)
		}

		got, err := Unpack(frame)
		if err != nil {
			t.Fatalf("size %d: Unpack() error: %v", size, err)
		}
		if got.Length() != uint32(HeaderSize+size) {
			t.Errorf("size %d: Length() = %d", size, got.Length())
		}
		if !bytes.Equal(got.Payload(), payload) {
			t.Errorf("size %d: payload mismatch", size)
		}
	}
}

func TestSetPayloadCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	c := NewData(0x9999)
	c.SetPayload(src)
	src[0] = 0xFF

	if c.Payload()[0] != 1 {
		t.Error("SetPayload() should copy the caller's slice")
	}
}

func TestParamOutOfRange(t *testing.T) {
	c := NewResponse(RespOK)
	c.AddParam(1)
	c.AddParam(2)

	if _, err := c.Param(1); err != nil {
		t.Fatalf("Param(1) unexpected error: %v", err)
	}

	for _, n := range []int{2, 5, -1} {
		if _, err := c.Param(n); !errors.Is(err, ErrParamOutOfRange) {
			t.Errorf("Param(%d) error = %v, want ErrParamOutOfRange", n, err)
		}
	}

	// Partial trailing slot does not count as a parameter
	d := NewData(0x9999)
	d.SetPayload([]byte{1, 2, 3, 4, 5, 6})
	if d.NumParams() != 1 {
		t.Errorf("NumParams() = %d, want 1", d.NumParams())
	}
	if _, err := d.Param(1); !errors.Is(err, ErrParamOutOfRange) {
		t.Errorf("Param(1) on 6-byte payload error = %v, want ErrParamOutOfRange", err)
	}
}

func TestUnpackMalformed(t *testing.T) {
	valid := NewCommand(OpOpenSession)
	valid.AddParam(1)
	frame := valid.Pack()

	tooLong := append(append([]byte(nil), frame...), 0x00)

	badLength := append([]byte(nil), frame...)
	binary.LittleEndian.PutUint32(badLength[0:4], 8)

	tests := []struct {
		name   string
		frame  []byte
		errMsg string
	}{
		{name: "nil", frame: nil, errMsg: "minimum is 12"},
		{name: "short header", frame: frame[:11], errMsg: "minimum is 12"},
		{name: "truncated trailing", frame: frame[:14], errMsg: "declared length 16"},
		{name: "extra bytes", frame: tooLong, errMsg: "declared length 16"},
		{name: "length below header", frame: badLength, errMsg: "declared length 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unpack(tt.frame)
			if !errors.Is(err, ErrMalformedContainer) {
				t.Fatalf("error = %v, want ErrMalformedContainer", err)
			}
			if !bytes.Contains([]byte(err.Error()), []byte(tt.errMsg)) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestIsEmpty(t *testing.T) {
	if !(&Container{}).IsEmpty() {
		t.Error("zero container should be empty")
	}
	if NewCommand(OpOpenSession).IsEmpty() {
		t.Error("container with a code should not be empty")
	}

	c := &Container{}
	c.AddParam(0)
	if c.IsEmpty() {
		t.Error("container with trailing bytes should not be empty")
	}
}

func TestPeekLength(t *testing.T) {
	frame := NewCommand(OpOpenSession).Pack()
	n, err := PeekLength(frame[:4])
	if err != nil {
		t.Fatalf("PeekLength() error: %v", err)
	}
	if n != HeaderSize {
		t.Errorf("PeekLength() = %d, want %d", n, HeaderSize)
	}

	if _, err := PeekLength(frame[:3]); !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("PeekLength(3 bytes) error = %v, want ErrMalformedContainer", err)
	}
}
