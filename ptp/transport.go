package ptp

import "context"

// Transport moves raw bytes to and from a device.
// It carries no protocol semantics; the engine frames and correlates
// containers on top of it.
//
// Read and Write must honour the context deadline and report an elapsed
// deadline as ErrTimeout. Both must return ErrNotOpen on a closed transport.
type Transport interface {
	// IsOpen reports whether Read and Write can be used
	IsOpen() bool

	// Write sends all of p in a single transfer
	Write(ctx context.Context, p []byte) error

	// Read performs a single transfer into p and returns the byte count.
	// It may return fewer bytes than len(p).
	Read(ctx context.Context, p []byte) (int, error)

	// Close releases the connection. Closing twice is not an error.
	Close() error
}

// Reopener is implemented by transports that can re-establish a lost
// connection in place (close and open the same device again).
type Reopener interface {
	Reopen() error
}
