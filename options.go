package triton

import (
	"log/slog"
	"os"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/blobstore"
	"github.com/hupe1980/triton/config"
	"github.com/hupe1980/triton/event"
	"github.com/hupe1980/triton/resource"
	"github.com/hupe1980/triton/store"
)

type options struct {
	byteSize  int
	maxAllocs int
	alignment int
	offHeap   bool

	workers   int
	resources resource.Config
	ceiling   uint64

	storeConfig store.Config
	eventConfig store.Config

	blobs         blobstore.BlobStore
	assetRoot     string
	assetCache    int64
	readBlockSize int

	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Engine.
type Option func(*options)

// WithArena sizes the engine arena. Non-positive maxAllocs or alignment
// select the arena defaults.
func WithArena(byteSize, maxAllocs, alignment int) Option {
	return func(o *options) {
		o.byteSize = byteSize
		o.maxAllocs = maxAllocs
		o.alignment = alignment
	}
}

// WithOffHeap backs the arena with an anonymous memory mapping instead of
// the Go heap.
func WithOffHeap() Option {
	return func(o *options) {
		o.offHeap = true
	}
}

// WithWorkers sets the worker pool size. n <= 0 uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithResourceConfig configures the resource controller. A positive memory
// limit is charged for the arena block and the asset cache.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resources = cfg
	}
}

// WithIdentifierCeiling caps the number of identifiers per seed.
func WithIdentifierCeiling(n uint64) Option {
	return func(o *options) {
		o.ceiling = n
	}
}

// WithStoreConfig sets the configuration NewStore uses when called with a
// zero store.Config.
func WithStoreConfig(cfg store.Config) Option {
	return func(o *options) {
		o.storeConfig = cfg
	}
}

// WithEventStoreConfig sizes the dispatcher's per-type listener stores.
func WithEventStoreConfig(cfg store.Config) Option {
	return func(o *options) {
		o.eventConfig = cfg
	}
}

// WithBlobStore enables the asset loader on bs.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobs = bs
	}
}

// WithAssetRoot enables the asset loader on a local directory.
func WithAssetRoot(dir string) Option {
	return func(o *options) {
		o.assetRoot = dir
	}
}

// WithAssetCache keeps up to bytes of recently loaded blobs in memory.
func WithAssetCache(bytes int64) Option {
	return func(o *options) {
		o.assetCache = bytes
	}
}

// WithAssetReadBlockSize sets the size of each rate-limited asset read.
func WithAssetReadBlockSize(n int) Option {
	return func(o *options) {
		o.readBlockSize = n
	}
}

// WithMetricsCollector configures a metrics collector for arena and store
// events. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &triton.BasicMetricsCollector{}
//	eng, _ := triton.New(triton.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Allocations: %d, invalid frees: %d\n", stats.AllocCount, stats.InvalidFrees)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := triton.NewJSONLogger(slog.LevelInfo)
//	eng, _ := triton.New(triton.WithLogger(logger))
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

// WithConfig applies a descriptor loaded by the config package. Options
// given after WithConfig override it.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		o.byteSize = cfg.Arena.ByteSize.Int()
		o.maxAllocs = cfg.Arena.MaxAllocs
		o.alignment = cfg.Arena.Alignment
		o.offHeap = cfg.Arena.OffHeap
		o.workers = cfg.Workers.Count
		o.resources = resource.Config{
			MemoryLimitBytes:     cfg.Resources.MemoryLimit.Int64(),
			MaxBackgroundWorkers: cfg.Resources.BackgroundWorkers,
			IOLimitBytesPerSec:   cfg.Resources.IOLimitPerSec.Int64(),
		}
		o.storeConfig = cfg.Store.Store()
		o.eventConfig = cfg.Events.Store()
		o.assetRoot = cfg.Assets.Root
		o.assetCache = cfg.Assets.CacheSize.Int64()
		o.readBlockSize = cfg.Assets.ReadBlockSize.Int()

		level, err := cfg.Logging.SlogLevel()
		if err != nil {
			level = slog.LevelInfo
		}
		hopts := &slog.HandlerOptions{Level: level}
		if cfg.Logging.Format == "json" {
			o.logger = NewLogger(slog.NewJSONHandler(os.Stderr, hopts))
		} else {
			o.logger = NewLogger(slog.NewTextHandler(os.Stderr, hopts))
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		byteSize:         arena.DefaultByteSize,
		maxAllocs:        arena.DefaultMaxAllocs,
		alignment:        arena.DefaultAlignment,
		eventConfig:      event.DefaultStoreConfig(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
