package camera

import "time"

// Progress contains information about a file transfer.
// Passed to ProgressCallback after each chunk.
type Progress struct {
	// Operation is "upload" or "download"
	Operation string

	// Name is the remote file name
	Name string

	// Chunk is the number of chunks transferred so far
	Chunk int

	// BytesDone is the number of file bytes transferred so far
	BytesDone int

	// BytesTotal is the file size, or 0 when the camera does not report it
	BytesTotal int

	// ElapsedTime is the time elapsed since the transfer started
	ElapsedTime time.Duration
}

// Percentage returns the completion percentage, or 0 when the total is unknown.
func (p Progress) Percentage() float64 {
	if p.BytesTotal <= 0 {
		return 0
	}
	return float64(p.BytesDone) / float64(p.BytesTotal) * 100
}

// ProgressCallback is called after each transfer chunk.
// Implementations should return quickly to avoid delaying the transfer.
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the engine.
// This allows integration with any logging framework; NewZerologLogger
// adapts a zerolog.Logger.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
