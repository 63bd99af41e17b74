// Package liveview decodes CHDK live-view payloads into RGB images.
//
// A payload starts with a fixed header naming the protocol version and the
// offsets of up to three framebuffer descriptors (viewport, bitmap overlay,
// overlay opacity), followed by the pixel data they point at. Parse reads
// the header; RGB converts the viewport.
//
// Nothing here touches a transport: the camera package fetches the payload
// and hands it over.
//
//	frame, err := liveview.Parse(payload)
//	if err != nil {
//	    return err
//	}
//	pix, w, h, err := frame.RGB(false)
//
// Supported viewport formats are FormatYUV8 (packed 4:1:1), FormatYUV8B
// (packed 4:2:2) and FormatYUV8C (planar 4:2:2).
package liveview
