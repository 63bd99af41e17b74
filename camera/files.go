package camera

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/moffa90/go-ptp/ptp"
)

// UploadFile copies the local file to remote on the camera's card.
// See Upload for chunking and timeout behaviour.
func (c *CHDK) UploadFile(ctx context.Context, local, remote string, timeout time.Duration) error {
	data, err := os.ReadFile(local)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return c.Upload(ctx, data, remote, timeout)
}

// Upload writes data to the file remote on the camera.
//
// The file is sent in chunks of at most MaxTransferSize bytes, one
// transaction each. Every data phase starts with the remote name
// (uint32 little-endian length, then the name bytes) followed by the
// chunk; parameter 2 carries the byte offset of the chunk. An empty file
// still takes one transaction. timeout applies to each chunk; 0 uses the
// configured defaults.
func (c *CHDK) Upload(ctx context.Context, data []byte, remote string, timeout time.Duration) error {
	if remote == "" {
		return fmt.Errorf("upload: remote name cannot be empty")
	}

	start := time.Now()
	header := make([]byte, 4+len(remote))
	binary.LittleEndian.PutUint32(header, uint32(len(remote)))
	copy(header[4:], remote)

	offset := 0
	chunks := 0
	for {
		end := min(offset+c.config.MaxTransferSize, len(data))

		cmd := c.command(c.config.Table.Commands.UploadFile, uint32(offset))
		payload := make([]byte, 0, len(header)+end-offset)
		payload = append(payload, header...)
		payload = append(payload, data[offset:end]...)
		dc := ptp.NewData(cmd.Code)
		dc.SetPayload(payload)

		if _, _, err := c.call(ctx, "upload file", cmd, dc, false, timeout); err != nil {
			return &TransferError{Operation: "upload", Name: remote, Offset: offset, Err: err}
		}

		chunks++
		offset = end
		c.reportProgress(Progress{
			Operation:   "upload",
			Name:        remote,
			Chunk:       chunks,
			BytesDone:   offset,
			BytesTotal:  len(data),
			ElapsedTime: time.Since(start),
		})

		if offset >= len(data) {
			break
		}
	}

	c.logInfo("upload complete", "name", remote, "bytes", len(data), "chunks", chunks)
	return nil
}

// DownloadFile reads the file name from the camera.
//
// The name is first stored with a TempData transaction, then the file
// is fetched with DownloadFile transactions carrying the byte offset in
// parameter 2 and the largest acceptable chunk in parameter 3. When the
// response reports the total size in parameter 1 the transfer continues
// until that size is reached; otherwise the first data phase is the
// whole file. timeout applies to each chunk.
func (c *CHDK) DownloadFile(ctx context.Context, name string, timeout time.Duration) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("download: name cannot be empty")
	}

	start := time.Now()
	cmds := c.config.Table.Commands

	cmd := c.command(cmds.TempData, c.config.Table.Script.TempDownload)
	dc := ptp.NewData(cmd.Code)
	dc.SetPayload([]byte(name))
	if _, _, err := c.call(ctx, "set download name", cmd, dc, false, timeout); err != nil {
		return nil, &TransferError{Operation: "download", Name: name, Err: err}
	}

	var out []byte
	total := -1
	chunks := 0
	for {
		cmd := c.command(cmds.DownloadFile, uint32(len(out)), uint32(c.config.MaxTransferSize))
		resp, data, err := c.call(ctx, "download file", cmd, nil, true, timeout)
		if err != nil {
			return nil, &TransferError{Operation: "download", Name: name, Offset: len(out), Err: err}
		}

		var chunk []byte
		if data != nil {
			chunk = data.Payload()
		}

		sized := true
		if total < 0 {
			if size, err := resp.Param(0); err == nil {
				total = int(size)
			} else {
				total = len(chunk)
				sized = false
			}
		}

		out = append(out, chunk...)
		chunks++
		c.reportProgress(Progress{
			Operation:   "download",
			Name:        name,
			Chunk:       chunks,
			BytesDone:   len(out),
			BytesTotal:  total,
			ElapsedTime: time.Since(start),
		})

		if !sized || len(out) >= total {
			break
		}
		if len(chunk) == 0 {
			return nil, &TransferError{Operation: "download", Name: name, Offset: len(out), Err: io.ErrUnexpectedEOF}
		}
	}

	c.logInfo("download complete", "name", name, "bytes", len(out), "chunks", chunks)
	return out, nil
}

// reportProgress calls the progress callback if one is configured.
func (c *CHDK) reportProgress(p Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(p)
	}
}
