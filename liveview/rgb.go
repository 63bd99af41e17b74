package liveview

import (
	"fmt"
	"image"
)

// Clip clamps v into the 0-255 range of an 8-bit channel.
func Clip(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// YUVToRGB converts one pixel using the BT.601 full-range coefficients.
// u and v are centred on zero. Each channel is truncated toward zero and
// then clipped.
func YUVToRGB(y, u, v int) (r, g, b uint8) {
	fy, fu, fv := float64(y), float64(u), float64(v)
	r = Clip(int(fy + 1.402*fv))
	g = Clip(int(fy - 0.344136*fu - 0.714136*fv))
	b = Clip(int(fy + 1.772*fu))
	return r, g, b
}

// sampler returns the Y, U, V (chroma centred on zero) of the pixel at
// column x, row y of a framebuffer.
type sampler func(x, y int) (int, int, int)

// RGB converts the viewport to a freshly allocated RGB24 buffer.
//
// With skip set every other column and row is dropped, halving both
// dimensions; some cameras report a viewport twice as wide as the display.
// Returns the pixels together with the width and height actually produced.
//
// Example:
//
//	pix, w, h, err := frame.RGB(false)
//	// len(pix) == w*h*3
func (f *Frame) RGB(skip bool) ([]byte, int, int, error) {
	vp := f.Viewport
	if vp == nil {
		return nil, 0, 0, fmt.Errorf("%w: frame has no viewport", ErrMalformedFrame)
	}

	sample, err := f.sampler(vp)
	if err != nil {
		return nil, 0, 0, err
	}

	width, height, step := vp.VisibleWidth, vp.VisibleHeight, 1
	if skip {
		width, height, step = width/2, height/2, 2
	}

	pix := make([]byte, width*height*3)
	i := 0
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			y, u, v := sample(col*step, row*step)
			pix[i], pix[i+1], pix[i+2] = YUVToRGB(y, u, v)
			i += 3
		}
	}

	return pix, width, height, nil
}

// Image converts the viewport into an *image.RGBA for use with the
// standard image encoders.
func (f *Frame) Image(skip bool) (*image.RGBA, error) {
	pix, width, height, err := f.RGB(skip)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xFF
	}
	return img, nil
}

// sampler validates that the framebuffer fits the payload and returns the
// pixel accessor for its format.
func (f *Frame) sampler(fb *Framebuffer) (sampler, error) {
	p := f.payload
	width, height := fb.BufferWidth, fb.VisibleHeight

	var need, align int
	switch fb.Format {
	case FormatYUV8:
		need, align = width*12/8*height, 4
	case FormatYUV8B:
		need, align = width*2*height, 2
	case FormatYUV8C:
		need, align = width*height+2*(width/2)*height, 2
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fb.Format)
	}

	if width%align != 0 {
		return nil, fmt.Errorf("%w: %s buffer width %d is not a multiple of %d",
			ErrMalformedFrame, fb.Format, width, align)
	}

	if fb.DataStart+need > len(p) {
		return nil, fmt.Errorf("%w: %s %dx%d needs %d bytes at offset %d, payload has %d",
			ErrMalformedFrame, fb.Format, fb.VisibleWidth, height, need, fb.DataStart, len(p))
	}

	data := p[fb.DataStart : fb.DataStart+need]

	switch fb.Format {
	case FormatYUV8:
		stride := width * 12 / 8
		yPos := [4]int{1, 3, 4, 5}
		return func(x, y int) (int, int, int) {
			base := y*stride + (x/4)*6
			return int(data[base+yPos[x%4]]), int(int8(data[base])), int(int8(data[base+2]))
		}, nil

	case FormatYUV8B:
		stride := width * 2
		return func(x, y int) (int, int, int) {
			base := y*stride + (x/2)*4
			return int(data[base+1+(x%2)*2]), int(data[base]) - 128, int(data[base+2]) - 128
		}, nil

	default: // FormatYUV8C
		half := width / 2
		uPlane := data[width*height:]
		vPlane := uPlane[half*height:]
		return func(x, y int) (int, int, int) {
			c := y*half + x/2
			return int(data[y*width+x]), int(uPlane[c]) - 128, int(vPlane[c]) - 128
		}, nil
	}
}
