package camera

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/moffa90/go-ptp/liveview"
	"github.com/moffa90/go-ptp/ptp"
	"github.com/moffa90/go-ptp/transport"
)

func TestNewModel(t *testing.T) {
	tests := []struct {
		name      string
		model     Model
		transport ptp.Transport
		wantErr   error
	}{
		{name: "chdk", model: ModelCHDK, transport: transport.NewMock()},
		{name: "generic", model: ModelGeneric, transport: transport.NewMock(), wantErr: ptp.ErrUnsupported},
		{name: "unknown", model: Model(42), transport: transport.NewMock(), wantErr: ptp.ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam, err := New(tt.model, tt.transport)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if cam != nil {
					t.Errorf("camera = %v, want nil", cam)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cam.Model() != tt.model {
				t.Errorf("Model() = %v, want %v", cam.Model(), tt.model)
			}
		})
	}

	if _, err := New(ModelCHDK, nil); err == nil {
		t.Error("New with nil transport: expected error")
	}
}

// liveViewPayload builds a 2.1 frame with a 2x1 YUV8B viewport.
func liveViewPayload() []byte {
	const vpDesc = liveview.HeaderSize
	dataStart := vpDesc + liveview.DescriptorSize
	p := make([]byte, dataStart+4)

	put := func(off, v int) { binary.LittleEndian.PutUint32(p[off:], uint32(int32(v))) }
	put(0, 2)
	put(4, 1)
	put(20, vpDesc)
	put(vpDesc, int(liveview.FormatYUV8B))
	put(vpDesc+4, dataStart)
	put(vpDesc+8, 2)
	put(vpDesc+12, 2)
	put(vpDesc+16, 1)
	copy(p[dataStart:], []byte{128, 100, 128, 200})
	return p
}

func TestLiveViewData(t *testing.T) {
	tests := []struct {
		name                       string
		viewport, overlay, palette bool
		wantFlags                  uint32
	}{
		{name: "viewport", viewport: true, wantFlags: 0x01},
		{name: "overlay and palette", overlay: true, palette: true, wantFlags: 0x0C},
		{name: "all", viewport: true, overlay: true, palette: true, wantFlags: 0x0D},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeCHDK()
			f.lvPayload = liveViewPayload()
			cam, _ := f.camera()

			frame, err := cam.LiveViewData(context.Background(), tt.viewport, tt.overlay, tt.palette)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.lvFlags != tt.wantFlags {
				t.Errorf("flags = 0x%02X, want 0x%02X", f.lvFlags, tt.wantFlags)
			}
			if math.Abs(frame.Version()-2.1) > 1e-9 {
				t.Errorf("Version() = %v, want 2.1", frame.Version())
			}

			pix, w, h, err := frame.RGB(false)
			if err != nil {
				t.Fatalf("RGB: %v", err)
			}
			if w != 2 || h != 1 || len(pix) != 6 {
				t.Fatalf("RGB size = %dx%d (%d bytes), want 2x1 (6 bytes)", w, h, len(pix))
			}
			if !bytes.Equal(pix, []byte{100, 100, 100, 200, 200, 200}) {
				t.Errorf("pixels = %v, want grey 100 then 200", pix)
			}
		})
	}
}

func TestLiveViewDataMalformed(t *testing.T) {
	f := newFakeCHDK()
	f.lvPayload = []byte{1, 2, 3}
	cam, _ := f.camera()

	if _, err := cam.LiveViewData(context.Background(), true, false, false); !errors.Is(err, liveview.ErrMalformedFrame) {
		t.Fatalf("error = %v, want ErrMalformedFrame", err)
	}
}
