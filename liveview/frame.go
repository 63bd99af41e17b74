package liveview

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Header layout constants. All header and descriptor fields are
// little-endian int32.
const (
	// HeaderSize is the base header size: version major/minor, aspect
	// ratio, palette type, palette offset, viewport and bitmap offsets
	HeaderSize = 28

	// HeaderSizeOpacity is the header size from protocol 2.2 on, which
	// adds the bitmap opacity descriptor offset
	HeaderSizeOpacity = 32

	// DescriptorSize is the size of one framebuffer descriptor
	DescriptorSize = 36
)

var (
	// ErrMalformedFrame is returned for payloads whose header or offsets
	// do not fit the buffer
	ErrMalformedFrame = errors.New("liveview: malformed frame")

	// ErrUnsupportedFormat is returned for pixel formats the decoder cannot convert
	ErrUnsupportedFormat = errors.New("liveview: unsupported pixel format")
)

// PixelFormat is the framebuffer type tag.
type PixelFormat int32

// Framebuffer types.
const (
	// FormatYUV8 is packed 4:1:1, 6 bytes per 4 pixels (U Y0 V Y1 Y2 Y3),
	// signed chroma
	FormatYUV8 PixelFormat = 0

	// FormatPAL8 is 8-bit palette indices (bitmap overlay)
	FormatPAL8 PixelFormat = 1

	// FormatYUV8B is packed 4:2:2, 4 bytes per 2 pixels (U Y0 V Y1),
	// unsigned chroma
	FormatYUV8B PixelFormat = 2

	// FormatYUV8C is planar 4:2:2: a full Y plane followed by half-width
	// U and V planes, unsigned chroma
	FormatYUV8C PixelFormat = 3
)

func (f PixelFormat) String() string {
	switch f {
	case FormatYUV8:
		return "YUV8"
	case FormatPAL8:
		return "PAL8"
	case FormatYUV8B:
		return "YUV8B"
	case FormatYUV8C:
		return "YUV8C"
	default:
		return fmt.Sprintf("format(%d)", int32(f))
	}
}

// Framebuffer describes one sub-image of a live-view payload.
type Framebuffer struct {
	// Format is the pixel format tag
	Format PixelFormat

	// DataStart is the payload offset of the first pixel row
	DataStart int

	// BufferWidth is the row width in pixels, including padding
	BufferWidth int

	// VisibleWidth is the number of meaningful pixels per row
	VisibleWidth int

	// VisibleHeight is the number of rows
	VisibleHeight int

	// Margins of the visible area on the physical display
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
}

// Frame is a parsed live-view payload. The header is decoded eagerly;
// pixels are converted on demand by RGB.
type Frame struct {
	// VersionMajor and VersionMinor are the live-view protocol version
	VersionMajor int
	VersionMinor int

	// AspectRatio is the LCD aspect ratio tag (0 = 4:3, 1 = 16:9)
	AspectRatio int

	// PaletteType is the bitmap palette encoding (0 = no palette)
	PaletteType int

	// PaletteDataStart is the payload offset of the palette, 0 if absent
	PaletteDataStart int

	// Viewport is the primary image, nil if not requested
	Viewport *Framebuffer

	// Bitmap is the UI overlay, nil if not requested
	Bitmap *Framebuffer

	// Opacity is the overlay opacity buffer (protocol 2.2+), nil if absent
	Opacity *Framebuffer

	payload []byte
}

// Parse decodes the header and framebuffer descriptors of a live-view payload.
// The payload is retained, not copied.
//
// Payload layout:
//
//	[MAJOR][MINOR][ASPECT][PAL_TYPE][PAL_START][VP_DESC][BM_DESC]([BMO_DESC] 2.2+)
//	... descriptors: [TYPE][DATA_START][BUF_W][VIS_W][VIS_H][ML][MT][MR][MB]
//	... pixel data
func Parse(payload []byte) (*Frame, error) {
	if len(payload) < HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, header needs %d", ErrMalformedFrame, len(payload), HeaderSize)
	}

	f := &Frame{
		VersionMajor:     readInt(payload, 0),
		VersionMinor:     readInt(payload, 4),
		AspectRatio:      readInt(payload, 8),
		PaletteType:      readInt(payload, 12),
		PaletteDataStart: readInt(payload, 16),
		payload:          payload,
	}

	if f.PaletteDataStart < 0 || f.PaletteDataStart > len(payload) {
		return nil, fmt.Errorf("%w: palette offset %d outside %d-byte payload",
			ErrMalformedFrame, f.PaletteDataStart, len(payload))
	}

	var err error
	if f.Viewport, err = parseDescriptor(payload, readInt(payload, 20), "viewport"); err != nil {
		return nil, err
	}
	if f.Bitmap, err = parseDescriptor(payload, readInt(payload, 24), "bitmap"); err != nil {
		return nil, err
	}

	if f.hasOpacity() {
		if len(payload) < HeaderSizeOpacity {
			return nil, fmt.Errorf("%w: got %d bytes, version %d.%d header needs %d",
				ErrMalformedFrame, len(payload), f.VersionMajor, f.VersionMinor, HeaderSizeOpacity)
		}
		if f.Opacity, err = parseDescriptor(payload, readInt(payload, 28), "opacity"); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Version returns the protocol version as major + minor/10 (for example 2.1).
func (f *Frame) Version() float64 {
	return float64(f.VersionMajor) + float64(f.VersionMinor)/10
}

// Payload returns the raw payload the frame was parsed from.
func (f *Frame) Payload() []byte {
	return f.payload
}

func (f *Frame) hasOpacity() bool {
	return f.VersionMajor > 2 || (f.VersionMajor == 2 && f.VersionMinor >= 2)
}

func parseDescriptor(payload []byte, off int, name string) (*Framebuffer, error) {
	if off == 0 {
		return nil, nil
	}
	if off < 0 || off+DescriptorSize > len(payload) {
		return nil, fmt.Errorf("%w: %s descriptor at %d outside %d-byte payload",
			ErrMalformedFrame, name, off, len(payload))
	}

	fb := &Framebuffer{
		Format:        PixelFormat(readInt(payload, off)),
		DataStart:     readInt(payload, off+4),
		BufferWidth:   readInt(payload, off+8),
		VisibleWidth:  readInt(payload, off+12),
		VisibleHeight: readInt(payload, off+16),
		MarginLeft:    readInt(payload, off+20),
		MarginTop:     readInt(payload, off+24),
		MarginRight:   readInt(payload, off+28),
		MarginBottom:  readInt(payload, off+32),
	}

	if fb.DataStart < 0 || fb.BufferWidth < 0 || fb.VisibleWidth < 0 || fb.VisibleHeight < 0 {
		return nil, fmt.Errorf("%w: %s descriptor has negative fields", ErrMalformedFrame, name)
	}
	if fb.VisibleWidth > fb.BufferWidth {
		return nil, fmt.Errorf("%w: %s visible width %d exceeds buffer width %d",
			ErrMalformedFrame, name, fb.VisibleWidth, fb.BufferWidth)
	}

	return fb, nil
}

func readInt(b []byte, off int) int {
	return int(int32(binary.LittleEndian.Uint32(b[off : off+4])))
}
