package ngtgo

import (
	"log/slog"
	"os"

	"github.com/hupe1980/ngtgo/internal/fs"
	"github.com/hupe1980/ngtgo/persistence"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	compression      persistence.Compression
	memoryLimit      int64
	ioLimit          int64
	fs               fs.FileSystem
}

// Option configures how an Index is created, opened and saved.
type Option func(*options)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLogLevel enables text logging to stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithCompression selects the block compression of saved sections.
// Default: persistence.CompressionLZ4
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMemoryLimit bounds the memory used by stored objects. Inserts that
// would exceed it fail with ErrAllocationFailure. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles persistence reads and writes to bytesPerSec.
// 0 means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithFileSystem replaces the file system used for path based indexes.
// Intended for tests.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

func applyOptions(opts []Option) options {
	o := options{
		compression: persistence.CompressionLZ4,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.fs == nil {
		o.fs = fs.Default
	}
	return o
}
