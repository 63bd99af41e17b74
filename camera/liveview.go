package camera

import (
	"context"
	"fmt"

	"github.com/moffa90/go-ptp/liveview"
)

// LiveViewData fetches one live view frame. The flags select the
// viewport image, the bitmap overlay and the overlay palette.
//
// Example:
//
//	frame, err := cam.LiveViewData(ctx, true, false, false)
//	if err != nil {
//	    return err
//	}
//	img, err := frame.Image(false)
func (c *CHDK) LiveViewData(ctx context.Context, viewport, overlay, palette bool) (*liveview.Frame, error) {
	bits := c.config.Table.LiveView
	var flags uint32
	if viewport {
		flags |= bits.Viewport
	}
	if overlay {
		flags |= bits.Bitmap
	}
	if palette {
		flags |= bits.Palette
	}

	cmd := c.command(c.config.Table.Commands.GetDisplayData, flags)
	_, data, err := c.call(ctx, "get live view", cmd, nil, true, 0)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("get live view: %w: no data phase", liveview.ErrMalformedFrame)
	}

	frame, err := liveview.Parse(data.Payload())
	if err != nil {
		return nil, fmt.Errorf("get live view: %w", err)
	}
	return frame, nil
}
