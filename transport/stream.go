package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/moffa90/go-ptp/ptp"
)

// deadliner is implemented by net.Conn and *os.File.
type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// DialFunc opens the underlying byte stream.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Stream is a transport over a byte stream such as a TCP connection or a
// serial device file. Context deadlines are applied to the stream when it
// supports read and write deadlines; otherwise calls block until the
// stream returns.
type Stream struct {
	conn io.ReadWriteCloser
	dial DialFunc
}

// NewStream wraps an already open stream. The returned transport cannot
// Reopen because it does not know how the stream was obtained.
func NewStream(conn io.ReadWriteCloser) *Stream {
	return &Stream{conn: conn}
}

// Open dials a stream and keeps dial for Reopen.
func Open(ctx context.Context, dial DialFunc) (*Stream, error) {
	s := &Stream{dial: dial}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Dial opens a network stream, for example a PTP bridge on "tcp".
//
// Example:
//
//	t, err := transport.Dial(ctx, "tcp", "192.168.1.20:15740")
func Dial(ctx context.Context, network, address string) (*Stream, error) {
	return Open(ctx, func(ctx context.Context) (io.ReadWriteCloser, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, address)
	})
}

func (s *Stream) connect(ctx context.Context) error {
	if s.conn != nil {
		return ptp.ErrAlreadyOpen
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ptp.ErrConnectFailed, err)
	}
	s.conn = conn
	return nil
}

// IsOpen reports whether the stream is connected.
func (s *Stream) IsOpen() bool {
	return s.conn != nil
}

// Write writes all of p.
func (s *Stream) Write(ctx context.Context, p []byte) error {
	if s.conn == nil {
		return ptp.ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ptp.ErrTimeout, err)
	}

	if d, ok := s.conn.(deadliner); ok {
		deadline, _ := ctx.Deadline()
		if err := d.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	for len(p) > 0 {
		n, err := s.conn.Write(p)
		if err != nil {
			return mapStreamError("write", err)
		}
		p = p[n:]
	}
	return nil
}

// Read performs a single read into p.
func (s *Stream) Read(ctx context.Context, p []byte) (int, error) {
	if s.conn == nil {
		return 0, ptp.ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ptp.ErrTimeout, err)
	}

	if d, ok := s.conn.(deadliner); ok {
		deadline, _ := ctx.Deadline()
		if err := d.SetReadDeadline(deadline); err != nil {
			return 0, fmt.Errorf("set read deadline: %w", err)
		}
	}

	n, err := s.conn.Read(p)
	if err != nil && n == 0 {
		return 0, mapStreamError("read", err)
	}
	return n, nil
}

// Close closes the underlying stream.
func (s *Stream) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Reopen closes the stream and dials it again.
func (s *Stream) Reopen() error {
	if s.dial == nil {
		return fmt.Errorf("%w: stream was not opened with a dialer", ptp.ErrUnsupported)
	}
	_ = s.Close()
	return s.connect(context.Background())
}

func mapStreamError(op string, err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ptp.ErrTimeout, op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s: %w", ptp.ErrTimeout, op, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %s: %w", ptp.ErrNotOpen, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
