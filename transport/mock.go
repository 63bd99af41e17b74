package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/moffa90/go-ptp/ptp"
)

// DeviceFunc answers one complete container written by the host.
// The returned containers are queued, in order, for subsequent reads.
type DeviceFunc func(c *ptp.Container) []*ptp.Container

// Mock is an in-memory transport for tests and examples.
//
// Frames are queued with Queue or produced by a DeviceFunc that sees every
// container the host writes. Reads with nothing queued fail with
// ptp.ErrTimeout, which simulates a silent device without sleeping.
//
// Mock is not safe for concurrent use.
type Mock struct {
	// Device, when set, is called for every complete container written
	Device DeviceFunc

	// MaxRead caps the bytes returned per Read call (0 means unlimited),
	// so tests can exercise multi-read container assembly
	MaxRead int

	// ReadErr, when set, is returned by every Read
	ReadErr error

	// WriteErr, when set, is returned by every Write
	WriteErr error

	open    bool
	pending [][]byte
	written [][]byte
	partial []byte
	reopens int
}

// NewMock returns an open mock transport.
func NewMock() *Mock {
	return &Mock{open: true}
}

// Queue appends raw frames to be returned by Read.
func (m *Mock) Queue(frames ...[]byte) {
	for _, f := range frames {
		m.pending = append(m.pending, append([]byte(nil), f...))
	}
}

// QueueContainers packs and queues containers.
func (m *Mock) QueueContainers(cs ...*ptp.Container) {
	for _, c := range cs {
		m.pending = append(m.pending, c.Pack())
	}
}

// Written returns every Write call's bytes, in order.
func (m *Mock) Written() [][]byte {
	return m.written
}

// WrittenContainers reassembles the written bytes into containers.
func (m *Mock) WrittenContainers() ([]*ptp.Container, error) {
	var stream []byte
	for _, w := range m.written {
		stream = append(stream, w...)
	}

	var out []*ptp.Container
	for len(stream) > 0 {
		length, err := ptp.PeekLength(stream)
		if err != nil {
			return nil, err
		}
		if int(length) > len(stream) {
			return nil, fmt.Errorf("%w: trailing %d bytes of a %d-byte container",
				ptp.ErrMalformedContainer, len(stream), length)
		}
		c, err := ptp.Unpack(stream[:length])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		stream = stream[length:]
	}
	return out, nil
}

// Reopens returns how many times Reopen has been called.
func (m *Mock) Reopens() int {
	return m.reopens
}

// IsOpen reports whether the mock is open.
func (m *Mock) IsOpen() bool {
	return m.open
}

// Write records p and feeds complete containers to Device.
func (m *Mock) Write(ctx context.Context, p []byte) error {
	if !m.open {
		return ptp.ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ptp.ErrTimeout, err)
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}

	m.written = append(m.written, append([]byte(nil), p...))

	if m.Device == nil {
		return nil
	}

	m.partial = append(m.partial, p...)
	for len(m.partial) >= ptp.HeaderSize {
		length, _ := ptp.PeekLength(m.partial)
		if int(length) > len(m.partial) {
			break
		}
		c, err := ptp.Unpack(m.partial[:length])
		if err != nil {
			m.partial = nil
			return err
		}
		m.partial = m.partial[length:]
		m.QueueContainers(m.Device(c)...)
	}
	return nil
}

// Read returns the next queued frame, split according to MaxRead.
func (m *Mock) Read(ctx context.Context, p []byte) (int, error) {
	if !m.open {
		return 0, ptp.ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ptp.ErrTimeout, err)
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if len(m.pending) == 0 {
		return 0, fmt.Errorf("%w: no data from device", ptp.ErrTimeout)
	}

	head := m.pending[0]
	limit := len(p)
	if m.MaxRead > 0 && m.MaxRead < limit {
		limit = m.MaxRead
	}

	n := copy(p[:limit], head)
	if n == len(head) {
		m.pending = m.pending[1:]
	} else {
		m.pending[0] = head[n:]
	}
	return n, nil
}

// Close marks the mock closed. Queued frames are kept.
func (m *Mock) Close() error {
	m.open = false
	return nil
}

// Reopen drops queued and partial data and marks the mock open again.
func (m *Mock) Reopen() error {
	m.reopens++
	m.pending = nil
	m.partial = nil
	m.open = true
	return nil
}

// ErrMockClosed can be assigned to ReadErr or WriteErr to simulate a
// device that disappears mid-transfer.
var ErrMockClosed = errors.New("transport: mock device gone")
