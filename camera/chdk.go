package camera

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-ptp/ptp"
)

// CHDK drives a camera running the CHDK PTP extension. All calls share
// one vendor operation code and select a sub-command with parameter 1;
// the numbering comes from the configured Table.
//
// Like Engine, CHDK is not safe for concurrent use.
type CHDK struct {
	*Engine
}

// NewCHDK creates a CHDK camera on the given transport.
//
// Example:
//
//	cam := camera.NewCHDK(t, camera.WithScriptTimeout(time.Minute))
//	v, err := cam.Version(ctx)
func NewCHDK(t ptp.Transport, opts ...Option) *CHDK {
	return &CHDK{Engine: NewEngine(t, opts...)}
}

// Model returns ModelCHDK.
func (c *CHDK) Model() Model {
	return ModelCHDK
}

// command builds a CHDK command container for a sub-command.
func (c *CHDK) command(sub uint32, params ...uint32) *ptp.Container {
	cmd := ptp.NewCommand(c.config.Table.Operation)
	cmd.AddParam(sub)
	for _, p := range params {
		cmd.AddParam(p)
	}
	return cmd
}

// call runs one CHDK transaction and checks the response code.
func (c *CHDK) call(ctx context.Context, name string, cmd, data *ptp.Container, receiving bool, timeout time.Duration) (*ptp.Container, *ptp.Container, error) {
	resp, dataOut, err := c.Transaction(ctx, cmd, data, receiving, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := CheckResponse(name, resp); err != nil {
		return nil, nil, err
	}
	return resp, dataOut, nil
}

// Version returns the CHDK PTP extension version as major + minor/100.
func (c *CHDK) Version(ctx context.Context) (float64, error) {
	resp, _, err := c.call(ctx, "get version", c.command(c.config.Table.Commands.Version), nil, false, 0)
	if err != nil {
		return 0, err
	}

	major, err := resp.Param(0)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	minor, err := resp.Param(1)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}

	return float64(major) + float64(minor)/100, nil
}

// ScriptStatus queries whether a script is running and whether messages
// are waiting to be read.
func (c *CHDK) ScriptStatus(ctx context.Context) (ScriptStatus, error) {
	resp, _, err := c.call(ctx, "script status", c.command(c.config.Table.Commands.ScriptStatus), nil, false, 0)
	if err != nil {
		return ScriptStatus{}, err
	}

	raw, err := resp.Param(0)
	if err != nil {
		return ScriptStatus{}, fmt.Errorf("script status: %w", err)
	}

	flags := c.config.Table.Script
	return ScriptStatus{
		Raw:            raw,
		Running:        raw&flags.StatusRun != 0,
		MessagePending: raw&flags.StatusMsg != 0,
	}, nil
}

// ScriptSupport returns the mask of script languages the camera supports.
func (c *CHDK) ScriptSupport(ctx context.Context) (uint32, error) {
	resp, _, err := c.call(ctx, "script support", c.command(c.config.Table.Commands.ScriptSupport), nil, false, 0)
	if err != nil {
		return 0, err
	}
	mask, err := resp.Param(0)
	if err != nil {
		return 0, fmt.Errorf("script support: %w", err)
	}
	return mask, nil
}

// SupportsLua reports whether the camera can run Lua scripts.
func (c *CHDK) SupportsLua(ctx context.Context) (bool, error) {
	mask, err := c.ScriptSupport(ctx)
	if err != nil {
		return false, err
	}
	return mask&c.config.Table.Script.SupportLua != 0, nil
}

// ExecuteLua starts a Lua script on the camera.
//
// Without block, it returns as soon as the camera accepted the script,
// with the script id and the initial error code (a compile error shows
// up here). With block, it then waits until the script stops running,
// collecting its messages; the wait is bounded by the context deadline,
// or by ScriptTimeout when ctx has none. A script that fails on the
// camera is reported in ScriptExecution.Error with a nil error.
//
// Example:
//
//	run, err := cam.ExecuteLua(ctx, "return get_mode()", true)
//	if err != nil {
//	    return err
//	}
//	if err := run.Err(); err != nil {
//	    log.Printf("script failed: %v", err)
//	}
func (c *CHDK) ExecuteLua(ctx context.Context, script string, block bool) (*ScriptExecution, error) {
	cmd := c.command(c.config.Table.Commands.ExecuteScript, c.config.Table.Script.LangLua)
	data := ptp.NewData(cmd.Code)
	data.SetPayload(append([]byte(script), 0))

	resp, _, err := c.call(ctx, "execute script", cmd, data, false, 0)
	if err != nil {
		return nil, err
	}

	id, err := resp.Param(0)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	run := &ScriptExecution{ID: id}
	if code, err := resp.Param(1); err == nil {
		run.Error = ScriptErrorType(code)
	}

	c.logInfo("script started", "script_id", id, "error", run.Error.String(), "bytes", len(script))

	if !block || run.Error != ScriptErrNone {
		return run, nil
	}

	msgs, err := c.WaitForScriptReturn(ctx, 0)
	run.Messages = msgs
	for _, m := range msgs {
		if m.Type == MessageError && m.ScriptID == id {
			run.Error = m.ErrorType()
		}
	}
	if err != nil {
		return run, err
	}
	return run, nil
}

// ReadScriptMessage reads the next queued script message. A message of
// type MessageNone means the queue was empty.
func (c *CHDK) ReadScriptMessage(ctx context.Context) (*ScriptMessage, error) {
	resp, data, err := c.call(ctx, "read script message", c.command(c.config.Table.Commands.ReadScriptMsg, c.config.Table.Script.LangLua), nil, true, 0)
	if err != nil {
		return nil, err
	}

	p := resp.Params()
	for len(p) < 4 {
		p = append(p, 0)
	}
	msg := &ScriptMessage{
		Type:     MessageType(p[0]),
		Subtype:  ValueType(p[1]),
		ScriptID: p[2],
	}
	if data != nil {
		payload := data.Payload()
		if size := int(p[3]); size < len(payload) {
			payload = payload[:size]
		}
		msg.Data = payload
	}

	c.logDebug("script message",
		"type", msg.Type.String(),
		"script_id", msg.ScriptID,
		"bytes", len(msg.Data),
	)
	return msg, nil
}

// WriteScriptMessage queues msg for the script with the given id.
// A scriptID of 0 addresses the running script.
func (c *CHDK) WriteScriptMessage(ctx context.Context, msg string, scriptID uint32) (WriteStatus, error) {
	cmd := c.command(c.config.Table.Commands.WriteScriptMsg, scriptID)
	data := ptp.NewData(cmd.Code)
	data.SetPayload([]byte(msg))

	resp, _, err := c.call(ctx, "write script message", cmd, data, false, 0)
	if err != nil {
		return 0, err
	}
	status, err := resp.Param(0)
	if err != nil {
		return 0, fmt.Errorf("write script message: %w", err)
	}
	return WriteStatus(status), nil
}

// WaitForScriptReturn reads script messages until the script is no longer
// running and its queue is empty. It returns the messages in arrival order.
//
// The wait is bounded: by timeout when positive, otherwise by the context
// deadline or ScriptTimeout. The bound is checked between transactions;
// each poll runs to completion under the per-call read and write
// timeouts, so an expired wait leaves the engine usable. On expiry the
// messages collected so far are returned together with an error wrapping
// ptp.ErrTimeout.
func (c *CHDK) WaitForScriptReturn(ctx context.Context, timeout time.Duration) ([]ScriptMessage, error) {
	budget, cancel := c.scriptContext(ctx, timeout)
	defer cancel()
	poll := context.WithoutCancel(ctx)

	expired := func() error {
		if err := budget.Err(); err != nil {
			return fmt.Errorf("wait for script: %w: %w", ptp.ErrTimeout, err)
		}
		return nil
	}

	var msgs []ScriptMessage
	for {
		if err := expired(); err != nil {
			return msgs, err
		}
		status, err := c.ScriptStatus(poll)
		if err != nil {
			return msgs, err
		}

		if status.MessagePending {
			if err := expired(); err != nil {
				return msgs, err
			}
			msg, err := c.ReadScriptMessage(poll)
			if err != nil {
				return msgs, err
			}
			if msg.Type != MessageNone {
				msgs = append(msgs, *msg)
				continue
			}
		}

		if !status.Running {
			return msgs, nil
		}

		select {
		case <-budget.Done():
			return msgs, expired()
		case <-time.After(c.config.ScriptPollInterval):
		}
	}
}

// scriptContext bounds a script wait.
func (c *CHDK) scriptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.ScriptTimeout)
}
