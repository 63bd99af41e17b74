package camera

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-ptp/liveview"
	"github.com/moffa90/go-ptp/ptp"
)

// Model selects the camera implementation.
type Model int

const (
	// ModelGeneric is a plain PTP camera without vendor extensions. It is
	// not implemented; New returns ptp.ErrUnsupported for it.
	ModelGeneric Model = iota

	// ModelCHDK is a camera running the CHDK PTP extension.
	ModelCHDK
)

func (m Model) String() string {
	switch m {
	case ModelGeneric:
		return "generic"
	case ModelCHDK:
		return "chdk"
	default:
		return fmt.Sprintf("Model(%d)", int(m))
	}
}

// Camera is the operation set of a scriptable camera.
type Camera interface {
	Model() Model
	Reopen() error
	Version(ctx context.Context) (float64, error)
	ScriptStatus(ctx context.Context) (ScriptStatus, error)
	ExecuteLua(ctx context.Context, script string, block bool) (*ScriptExecution, error)
	ReadScriptMessage(ctx context.Context) (*ScriptMessage, error)
	WriteScriptMessage(ctx context.Context, msg string, scriptID uint32) (WriteStatus, error)
	WaitForScriptReturn(ctx context.Context, timeout time.Duration) ([]ScriptMessage, error)
	UploadFile(ctx context.Context, local, remote string, timeout time.Duration) error
	DownloadFile(ctx context.Context, name string, timeout time.Duration) ([]byte, error)
	LiveViewData(ctx context.Context, viewport, overlay, palette bool) (*liveview.Frame, error)
}

var _ Camera = (*CHDK)(nil)

// New creates a camera of the given model on t.
//
// Example:
//
//	cam, err := camera.New(camera.ModelCHDK, t)
//	if errors.Is(err, ptp.ErrUnsupported) {
//	    log.Fatal("camera model not supported")
//	}
func New(model Model, t ptp.Transport, opts ...Option) (Camera, error) {
	switch model {
	case ModelCHDK:
		if t == nil {
			return nil, fmt.Errorf("transport cannot be nil")
		}
		return NewCHDK(t, opts...), nil
	case ModelGeneric:
		return nil, fmt.Errorf("%s camera: %w", model, ptp.ErrUnsupported)
	default:
		return nil, fmt.Errorf("%s: %w", model, ptp.ErrUnsupported)
	}
}
