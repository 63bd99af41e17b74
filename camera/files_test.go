package camera

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moffa90/go-ptp/ptp"
)

func TestUpload(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		maxTransfer int
		wantOffsets []uint32
	}{
		{name: "single chunk", size: 10, maxTransfer: 64, wantOffsets: []uint32{0}},
		{name: "exact multiple", size: 12, maxTransfer: 4, wantOffsets: []uint32{0, 4, 8}},
		{name: "short last chunk", size: 10, maxTransfer: 4, wantOffsets: []uint32{0, 4, 8}},
		{name: "empty file", size: 0, maxTransfer: 4, wantOffsets: []uint32{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.size)
			for i := range data {
				data[i] = byte(i * 7)
			}

			var progress []Progress
			f := newFakeCHDK()
			cam, _ := f.camera(
				WithMaxTransferSize(tt.maxTransfer),
				WithProgressCallback(func(p Progress) { progress = append(progress, p) }),
			)

			if err := cam.Upload(context.Background(), data, "A/CHDK/SCRIPTS/TEST.LUA", 0); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, ok := f.files["A/CHDK/SCRIPTS/TEST.LUA"]
			if !ok {
				t.Fatal("file not created on camera")
			}
			if !bytes.Equal(got, data) {
				t.Errorf("camera file = %v, want %v", got, data)
			}
			if len(f.uploadOffsets) != len(tt.wantOffsets) {
				t.Fatalf("offsets = %v, want %v", f.uploadOffsets, tt.wantOffsets)
			}
			for i := range tt.wantOffsets {
				if f.uploadOffsets[i] != tt.wantOffsets[i] {
					t.Errorf("offsets = %v, want %v", f.uploadOffsets, tt.wantOffsets)
					break
				}
			}

			if len(progress) != len(tt.wantOffsets) {
				t.Fatalf("progress called %d times, want %d", len(progress), len(tt.wantOffsets))
			}
			last := progress[len(progress)-1]
			if last.Operation != "upload" || last.BytesDone != tt.size || last.BytesTotal != tt.size {
				t.Errorf("last progress = %+v", last)
			}
		})
	}
}

func TestUploadFile(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "hello.lua")
	if err := os.WriteFile(local, []byte("print('hello')"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := newFakeCHDK()
	cam, _ := f.camera()

	if err := cam.UploadFile(context.Background(), local, "A/HELLO.LUA", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(f.files["A/HELLO.LUA"]) != "print('hello')" {
		t.Errorf("camera file = %q", f.files["A/HELLO.LUA"])
	}
}

func TestUploadErrors(t *testing.T) {
	f := newFakeCHDK()
	cam, _ := f.camera()

	if err := cam.Upload(context.Background(), []byte("x"), "", 0); err == nil ||
		!strings.Contains(err.Error(), "remote name cannot be empty") {
		t.Errorf("error = %v, want empty name error", err)
	}

	err := cam.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing"), "A/X", 0)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrNotExist", err)
	}
}

func TestUploadTransferError(t *testing.T) {
	f := newFakeCHDK()
	cam, m := f.camera(WithMaxTransferSize(4))

	calls := 0
	device := m.Device
	m.Device = func(c *ptp.Container) []*ptp.Container {
		if c.Type == ptp.TypeData {
			calls++
			if calls == 2 {
				return []*ptp.Container{response(c.TransactionID, ptp.RespStoreFull)}
			}
		}
		return device(c)
	}

	err := cam.Upload(context.Background(), make([]byte, 10), "A/FULL", 0)
	var te *TransferError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransferError", err)
	}
	if te.Offset != 4 {
		t.Errorf("Offset = %d, want 4", te.Offset)
	}
	if !ptp.IsResponseError(err) {
		t.Errorf("error %v does not wrap the response error", err)
	}
}

func TestDownloadFile(t *testing.T) {
	content := []byte("0123456789")

	tests := []struct {
		name          string
		sized         bool
		maxTransfer   int
		wantDownloads int
	}{
		{name: "sized in chunks", sized: true, maxTransfer: 4, wantDownloads: 3},
		{name: "sized single", sized: true, maxTransfer: 64, wantDownloads: 1},
		{name: "unsized", sized: false, maxTransfer: 4, wantDownloads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeCHDK()
			f.sizedDownload = tt.sized
			f.files["A/DCIM/IMG_0001.JPG"] = content

			var progress []Progress
			cam, _ := f.camera(
				WithMaxTransferSize(tt.maxTransfer),
				WithProgressCallback(func(p Progress) { progress = append(progress, p) }),
			)

			got, err := cam.DownloadFile(context.Background(), "A/DCIM/IMG_0001.JPG", 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, content) {
				t.Errorf("DownloadFile() = %q, want %q", got, content)
			}
			if f.tempName != "A/DCIM/IMG_0001.JPG" {
				t.Errorf("temp name = %q", f.tempName)
			}
			if f.downloads != tt.wantDownloads {
				t.Errorf("download transactions = %d, want %d", f.downloads, tt.wantDownloads)
			}
			if len(progress) != tt.wantDownloads {
				t.Errorf("progress called %d times, want %d", len(progress), tt.wantDownloads)
			}
			if p := progress[len(progress)-1]; p.Percentage() != 100 {
				t.Errorf("final progress = %.1f%%, want 100%%", p.Percentage())
			}
		})
	}
}

func TestDownloadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		f := newFakeCHDK()
		cam, _ := f.camera()

		_, err := cam.DownloadFile(context.Background(), "A/NOPE", 0)
		var te *TransferError
		if !errors.As(err, &te) || te.Operation != "download" {
			t.Fatalf("error = %v, want download TransferError", err)
		}
		if !ptp.IsResponseError(err) {
			t.Errorf("error %v does not wrap the response error", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		f := newFakeCHDK()
		cam, _ := f.camera()

		if _, err := cam.DownloadFile(context.Background(), "", 0); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("truncated", func(t *testing.T) {
		f := newFakeCHDK()
		cam, m := f.camera()
		m.Device = func(c *ptp.Container) []*ptp.Container {
			if c.Type == ptp.TypeData {
				return []*ptp.Container{response(c.TransactionID, ptp.RespOK)}
			}
			if sub, _ := c.Param(0); sub == f.table.Commands.DownloadFile {
				return []*ptp.Container{
					dataFor(c.TransactionID, c.Code, nil),
					response(c.TransactionID, ptp.RespOK, 100),
				}
			}
			return nil
		}

		_, err := cam.DownloadFile(context.Background(), "A/SHORT", 0)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("error = %v, want ErrUnexpectedEOF", err)
		}
	})
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		p    Progress
		want float64
	}{
		{Progress{BytesDone: 5, BytesTotal: 10}, 50},
		{Progress{BytesDone: 5}, 0},
		{Progress{BytesDone: 0, BytesTotal: 0}, 0},
	}

	for _, tt := range tests {
		if got := tt.p.Percentage(); got != tt.want {
			t.Errorf("%+v.Percentage() = %v, want %v", tt.p, got, tt.want)
		}
	}
}
