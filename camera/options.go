package camera

import "time"

// Config holds the engine and camera configuration.
type Config struct {
	// ProgressCallback is called during file transfers to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ReadTimeout is the default timeout for each transport read
	ReadTimeout time.Duration

	// WriteTimeout is the default timeout for each transport write
	WriteTimeout time.Duration

	// ChunkSize is the maximum number of bytes per transport read or write call
	ChunkSize int

	// MaxContainerSize bounds the declared length accepted from the device
	MaxContainerSize int

	// MaxTransferSize is the maximum number of file bytes per CHDK
	// upload or download transaction
	MaxTransferSize int

	// ScriptPollInterval is the delay between script status polls
	ScriptPollInterval time.Duration

	// ScriptTimeout bounds blocking script execution when the context
	// carries no deadline
	ScriptTimeout time.Duration

	// Table holds the vendor opcodes and flag bits
	Table Table
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		ChunkSize:          64 * 1024,
		MaxContainerSize:   256 << 20,
		MaxTransferSize:    4 << 20,
		ScriptPollInterval: 50 * time.Millisecond,
		ScriptTimeout:      30 * time.Second,
		Table:              DefaultTable(),
	}
}

// Option is a functional option for configuring an Engine or camera.
type Option func(*Config)

// WithProgressCallback sets a callback function to track file transfer progress.
//
// Example:
//
//	cam := camera.NewCHDK(t,
//	    camera.WithProgressCallback(func(p camera.Progress) {
//	        fmt.Printf("%s %d/%d bytes\n", p.Operation, p.BytesDone, p.BytesTotal)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for engine and camera operations.
//
// Example:
//
//	cam := camera.NewCHDK(t, camera.WithLogger(camera.NewZerologLogger(log.Logger)))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeout sets both read and write timeouts.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
		c.WriteTimeout = timeout
	}
}

// WithReadTimeout sets the read timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithWriteTimeout sets the write timeout.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = timeout
	}
}

// WithChunkSize sets the maximum bytes per transport call.
// Values below 512 (one high-speed USB bulk packet) are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size >= 512 {
			c.ChunkSize = size
		}
	}
}

// WithMaxTransferSize sets the maximum file bytes per CHDK transfer transaction.
//
// Example:
//
//	cam := camera.NewCHDK(t, camera.WithMaxTransferSize(512*1024))
func WithMaxTransferSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.MaxTransferSize = size
		}
	}
}

// WithScriptPollInterval sets the delay between script status polls.
func WithScriptPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.ScriptPollInterval = interval
		}
	}
}

// WithScriptTimeout sets the budget for blocking script execution.
func WithScriptTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ScriptTimeout = timeout
		}
	}
}

// WithTable replaces the vendor opcode table, for firmware variants.
//
// Example:
//
//	table, err := camera.LoadTable("chdk.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cam := camera.NewCHDK(t, camera.WithTable(table))
func WithTable(table Table) Option {
	return func(c *Config) {
		c.Table = table
	}
}
