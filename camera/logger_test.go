package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/moffa90/go-ptp/ptp"
	"github.com/moffa90/go-ptp/transport"
	"github.com/rs/zerolog"
)

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Info("upload complete", "name", "A/X.LUA", "bytes", 12)
	logger.Error("failed", "error", errors.New("boom"), "dangling")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), buf.String())
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[0], err)
	}
	if first["level"] != "info" || first["message"] != "upload complete" || first["name"] != "A/X.LUA" {
		t.Errorf("first entry = %v", first)
	}
	if first["bytes"] != float64(12) {
		t.Errorf("bytes = %v, want 12", first["bytes"])
	}

	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[1], err)
	}
	if second["error"] != "boom" || second["extra"] != "dangling" {
		t.Errorf("second entry = %v", second)
	}
}

func TestZerologLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden", "k", 1)
	if buf.Len() != 0 {
		t.Errorf("debug entry written below level: %q", buf.String())
	}
}

func TestEngineWithZerolog(t *testing.T) {
	var buf bytes.Buffer
	m := transport.NewMock()
	m.Device = okDevice
	eng := NewEngine(m, WithLogger(NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))))

	if _, _, err := eng.Transaction(context.Background(), ptp.NewCommand(ptp.OpGetDeviceInfo), nil, false, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"message":"sent container"`, `"code":"0x1001"`, `"type":"response"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}
