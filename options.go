package diskset

import (
	"log/slog"
	"time"

	"github.com/hupe1980/diskset/codec"
	"github.com/hupe1980/diskset/internal/frame"
	"github.com/hupe1980/diskset/internal/fs"
	"github.com/hupe1980/diskset/internal/pagecache"
)

// Compression selects how values are compressed in the contents file.
type Compression = frame.Compression

const (
	// CompressionNone stores values as encoded by the codec.
	CompressionNone = frame.CompressionNone
	// CompressionLZ4 favours speed.
	CompressionLZ4 = frame.CompressionLZ4
	// CompressionZSTD favours ratio.
	CompressionZSTD = frame.CompressionZSTD
)

const (
	// DefaultCacheSize is the default number of records each cache aims to hold.
	DefaultCacheSize = pagecache.DefaultSize
	// DefaultFlushDelay is how long the background writers batch writes.
	DefaultFlushDelay = pagecache.DefaultFlushDelay
	// DefaultQueueSize bounds each cache's pending-write queue.
	DefaultQueueSize = pagecache.DefaultQueueSize
)

type options struct {
	cacheSize        int
	tempDir          string
	codec            codec.Codec
	compression      Compression
	checksums        bool
	flushDelay       time.Duration
	queueSize        int
	ioLimit          int64
	memoryLimit      int64
	metricsCollector MetricsCollector
	logger           *Logger
	fs               fs.FileSystem
}

// Option configures a Collection.
type Option func(*options)

// WithCacheSize sets how many records each of the two caches aims to hold.
// The caches exceed it transiently until an eviction pass runs.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithTempDir sets the directory for the backing files.
// Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithCodec configures the codec used to serialize values.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression enables compression of serialized values.
// Values too small to benefit are stored uncompressed.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithChecksums stores a HighwayHash checksum with every value and verifies
// it on read.
func WithChecksums(enabled bool) Option {
	return func(o *options) {
		o.checksums = enabled
	}
}

// WithFlushDelay sets how long the background writers wait to batch writes
// before persisting them.
func WithFlushDelay(d time.Duration) Option {
	return func(o *options) {
		o.flushDelay = d
	}
}

// WithQueueSize bounds the pending-write queue of each cache. A write that
// finds the queue full flushes it synchronously.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithIOLimit caps background write throughput in bytes per second.
// Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMemoryLimit bounds the serialized bytes held by both caches. Reaching
// the limit triggers eviction early. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &diskset.BasicMetricsCollector{}
//	set, _ := diskset.NewOrdered[string](diskset.WithMetricsCollector(metrics))
//	// ... use set ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Avg latency: %dns\n", stats.AddCount, stats.AddAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := diskset.NewJSONLogger(slog.LevelInfo)
//	set, _ := diskset.NewOrdered[int](diskset.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// withFileSystem replaces the file system used for the backing files.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		cacheSize:        DefaultCacheSize,
		codec:            codec.Default,
		flushDelay:       DefaultFlushDelay,
		queueSize:        DefaultQueueSize,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fs:               fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
