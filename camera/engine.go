package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/moffa90/go-ptp/ptp"
)

// maxEmptyReads is how many consecutive zero-byte reads RecvMessage
// tolerates before giving up on a container.
const maxEmptyReads = 3

// Engine runs PTP transactions over a transport. It owns the transaction
// ID counter and holds a non-owning reference to the transport: the
// caller opens and closes the transport.
//
// Engine is not safe for concurrent use. Only one transaction may be in
// flight; callers sharing an Engine across goroutines must serialize calls.
type Engine struct {
	transport ptp.Transport
	config    Config

	tid    atomic.Uint32
	desync bool
	rx     []byte
}

// NewEngine creates a new Engine with the given transport and options.
//
// Example:
//
//	t, err := usb.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//	eng := camera.NewEngine(t, camera.WithTimeout(10*time.Second))
func NewEngine(t ptp.Transport, opts ...Option) *Engine {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine{
		transport: t,
		config:    cfg,
	}
}

// Transport returns the transport the engine runs on.
func (e *Engine) Transport() ptp.Transport {
	return e.transport
}

// NextTransactionID returns the current transaction ID and advances the counter.
// Called once per logical transaction, never per phase.
func (e *Engine) NextTransactionID() uint32 {
	return e.tid.Add(1) - 1
}

// Desynchronized reports whether a timeout or protocol mismatch has left
// the engine out of step with the device. Transactions are refused until
// Reopen succeeds.
func (e *Engine) Desynchronized() bool {
	return e.desync
}

// Reopen asks the transport to re-establish its connection and clears
// the desynchronized state. The transaction ID counter is not reset.
//
// Returns nil only if the transport reports itself open afterwards.
func (e *Engine) Reopen() error {
	r, ok := e.transport.(ptp.Reopener)
	if !ok {
		return fmt.Errorf("%w: transport cannot reopen", ptp.ErrUnsupported)
	}

	if err := r.Reopen(); err != nil {
		return fmt.Errorf("reopen: %w", err)
	}
	if !e.transport.IsOpen() {
		return fmt.Errorf("reopen: %w", ptp.ErrNotOpen)
	}

	e.desync = false
	e.rx = nil
	e.logInfo("transport reopened", "next_tid", e.tid.Load())
	return nil
}

// SendMessage serializes c and writes it through the transport in chunks
// of at most ChunkSize bytes. The container is sent with its current
// TransactionID. timeout applies to each write; 0 uses WriteTimeout.
func (e *Engine) SendMessage(ctx context.Context, c *ptp.Container, timeout time.Duration) error {
	if !e.transport.IsOpen() {
		return ptp.ErrNotOpen
	}
	if timeout <= 0 {
		timeout = e.config.WriteTimeout
	}

	frame := c.Pack()
	for off := 0; off < len(frame); off += e.config.ChunkSize {
		end := min(off+e.config.ChunkSize, len(frame))
		if err := e.write(ctx, frame[off:end], timeout); err != nil {
			return fmt.Errorf("write %s container: %w", c.Type, err)
		}
	}

	e.logDebug("sent container",
		"type", c.Type.String(),
		"code", fmt.Sprintf("0x%04X", c.Code),
		"tid", c.TransactionID,
		"length", len(frame),
	)
	return nil
}

// RecvMessage reads one complete container from the transport.
// timeout applies to each read; 0 uses ReadTimeout.
//
// Bytes read past the end of the container (stream transports may return
// the next container early) are kept for the following call.
func (e *Engine) RecvMessage(ctx context.Context, timeout time.Duration) (*ptp.Container, error) {
	if !e.transport.IsOpen() {
		return nil, ptp.ErrNotOpen
	}
	if timeout <= 0 {
		timeout = e.config.ReadTimeout
	}

	frame := e.rx
	e.rx = nil
	buf := make([]byte, e.config.ChunkSize)

	fill := func(want int) error {
		empty := 0
		for len(frame) < want {
			n, err := e.read(ctx, buf, timeout)
			if err != nil {
				return fmt.Errorf("read container: %w", err)
			}
			if n == 0 {
				if empty++; empty >= maxEmptyReads {
					return fmt.Errorf("%w: read container: %w", ptp.ErrMalformedContainer, io.ErrNoProgress)
				}
				continue
			}
			empty = 0
			frame = append(frame, buf[:n]...)
		}
		return nil
	}

	if err := fill(ptp.HeaderSize); err != nil {
		return nil, err
	}

	length, _ := ptp.PeekLength(frame)
	if length < ptp.HeaderSize || int64(length) > int64(e.config.MaxContainerSize) {
		return nil, fmt.Errorf("%w: declared length %d outside %d-%d",
			ptp.ErrMalformedContainer, length, ptp.HeaderSize, e.config.MaxContainerSize)
	}

	if err := fill(int(length)); err != nil {
		return nil, err
	}

	c, err := ptp.Unpack(frame[:length])
	if err != nil {
		return nil, err
	}
	if len(frame) > int(length) {
		e.rx = append([]byte(nil), frame[length:]...)
	}

	e.logDebug("received container",
		"type", c.Type.String(),
		"code", fmt.Sprintf("0x%04X", c.Code),
		"tid", c.TransactionID,
		"length", length,
	)
	return c, nil
}

// Transaction performs one complete command / [data] / response exchange.
//
// A single transaction ID is acquired and stamped on cmd and, when sending,
// on data. If receiving is true a data phase is read from the device and
// returned as dataOut; a device that answers with its response straight
// away is treated as having sent an empty data phase. If receiving is
// false and data is non-nil, data is sent as the data phase.
//
// Every received container must carry the transaction ID and the type
// expected by its phase; otherwise a *ptp.MismatchError is returned. After a
// mismatch, a malformed container or a timeout the engine is desynchronized
// and Reopen must be called before the next transaction. A context that
// is already done fails the call before anything is sent and leaves the
// engine usable.
//
// timeout applies to each transport call; 0 uses the configured defaults.
func (e *Engine) Transaction(ctx context.Context, cmd, data *ptp.Container, receiving bool, timeout time.Duration) (resp, dataOut *ptp.Container, err error) {
	if e.desync {
		return nil, nil, fmt.Errorf("%w: engine desynchronized, reopen required", ptp.ErrProtocolMismatch)
	}
	if cmd == nil {
		return nil, nil, fmt.Errorf("command container cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("transaction not started: %w", err)
	}

	tid := e.NextTransactionID()
	cmd.Type = ptp.TypeCommand
	cmd.TransactionID = tid

	if err := e.SendMessage(ctx, cmd, timeout); err != nil {
		return nil, nil, e.fail(err)
	}

	if !receiving && data != nil {
		data.Type = ptp.TypeData
		data.TransactionID = tid
		if data.Code == 0 {
			data.Code = cmd.Code
		}
		if err := e.SendMessage(ctx, data, timeout); err != nil {
			return nil, nil, e.fail(err)
		}
	}

	if receiving {
		c, err := e.RecvMessage(ctx, timeout)
		if err != nil {
			return nil, nil, e.fail(err)
		}
		if err := checkPhase(c, "data", tid, ptp.TypeData, ptp.TypeResponse); err != nil {
			return nil, nil, e.fail(err)
		}
		if c.Type == ptp.TypeResponse {
			return c, nil, nil
		}
		dataOut = c
	}

	resp, err = e.RecvMessage(ctx, timeout)
	if err != nil {
		return nil, nil, e.fail(err)
	}
	if err := checkPhase(resp, "response", tid, ptp.TypeResponse); err != nil {
		return nil, nil, e.fail(err)
	}

	return resp, dataOut, nil
}

// OpenSession opens a PTP session with the given ID.
func (e *Engine) OpenSession(ctx context.Context, sessionID uint32) error {
	cmd := ptp.NewCommand(ptp.OpOpenSession)
	cmd.AddParam(sessionID)

	resp, _, err := e.Transaction(ctx, cmd, nil, false, 0)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return CheckResponse("open session", resp)
}

// CloseSession closes the current PTP session.
func (e *Engine) CloseSession(ctx context.Context) error {
	resp, _, err := e.Transaction(ctx, ptp.NewCommand(ptp.OpCloseSession), nil, false, 0)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return CheckResponse("close session", resp)
}

// CheckResponse returns a *ptp.ResponseError if resp does not carry RespOK.
func CheckResponse(operation string, resp *ptp.Container) error {
	if resp.Code != ptp.RespOK {
		return &ptp.ResponseError{Operation: operation, Code: resp.Code}
	}
	return nil
}

// checkPhase verifies that c belongs to transaction tid and has one of
// the allowed types.
func checkPhase(c *ptp.Container, phase string, tid uint32, allowed ...ptp.ContainerType) error {
	typeOK := false
	for _, t := range allowed {
		if c.Type == t {
			typeOK = true
			break
		}
	}
	if !typeOK {
		return &ptp.MismatchError{
			Phase:    phase,
			Field:    "type",
			Expected: uint32(allowed[0]),
			Actual:   uint32(c.Type),
		}
	}

	if c.TransactionID != tid {
		return &ptp.MismatchError{
			Phase:    phase,
			Field:    "transaction ID",
			Expected: tid,
			Actual:   c.TransactionID,
		}
	}
	return nil
}

// fail marks the engine desynchronized for errors that leave the device
// state unknown, then returns err.
func (e *Engine) fail(err error) error {
	if errors.Is(err, ptp.ErrTimeout) ||
		errors.Is(err, ptp.ErrProtocolMismatch) ||
		errors.Is(err, ptp.ErrMalformedContainer) {
		e.desync = true
		e.rx = nil
		e.logError("transaction aborted, reopen required", "error", err)
	}
	return err
}

func (e *Engine) write(ctx context.Context, p []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.transport.Write(ctx, p)
}

func (e *Engine) read(ctx context.Context, p []byte, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.transport.Read(ctx, p)
}

// logDebug logs a debug message if a logger is configured.
func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (e *Engine) logInfo(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (e *Engine) logError(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Error(msg, keysAndValues...)
	}
}
