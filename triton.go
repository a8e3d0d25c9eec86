package triton

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/asset"
	"github.com/hupe1980/triton/blobstore"
	"github.com/hupe1980/triton/event"
	"github.com/hupe1980/triton/factory"
	"github.com/hupe1980/triton/internal/cache"
	"github.com/hupe1980/triton/object"
	"github.com/hupe1980/triton/resource"
	"github.com/hupe1980/triton/store"
	"github.com/hupe1980/triton/worker"
)

// Engine owns the arena, the identifier registry, the worker pool, the event
// dispatcher and, when a blob store is configured, the asset loader.
//
// Except for Snapshot, an Engine must only be used from the goroutine that
// created it.
type Engine struct {
	opts    options
	logger  *Logger
	metrics MetricsCollector

	rc       *resource.Controller
	arena    *arena.Arena
	registry *object.Registry
	workers  *worker.Pool
	events   *event.Dispatcher
	loader   *asset.Loader
	stores   []engineStore

	snapshot atomic.Pointer[Snapshot]
	seq      uint64
	closed   bool
}

// New creates an engine.
func New(optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	e := &Engine{
		opts:    o,
		logger:  o.logger,
		metrics: o.metricsCollector,
		rc:      resource.NewController(o.resources),
	}

	arenaOpts := []arena.Option{
		arena.WithLogger(e.logger.Logger),
		arena.WithObserver(arenaObserver{mc: e.metrics}),
	}
	if o.offHeap {
		arenaOpts = append(arenaOpts, arena.WithOffHeap())
	}
	if o.resources.MemoryLimitBytes > 0 {
		arenaOpts = append(arenaOpts, arena.WithMemoryAcquirer(e.rc))
	}

	a, err := arena.New(o.byteSize, o.maxAllocs, o.alignment, arenaOpts...)
	if err != nil {
		return nil, fmt.Errorf("triton: %w", err)
	}
	e.arena = a

	regOpts := []object.RegistryOption{object.WithLogger(e.logger.Logger)}
	if o.ceiling > 0 {
		regOpts = append(regOpts, object.WithCeiling(o.ceiling))
	}
	e.registry = object.NewRegistry(regOpts...)

	e.events = event.New(a,
		event.WithRegistry(e.registry),
		event.WithStoreConfig(o.eventConfig),
		event.WithLogger(e.logger.Logger),
		event.WithStoreObserver(storeObserver{mc: e.metrics, typeName: "Listener"}),
	)

	if bs := e.blobStore(); bs != nil {
		e.loader = asset.NewLoader(a, e.registry, bs,
			asset.WithResourceController(e.rc),
			asset.WithLogger(e.logger.Logger),
			asset.WithReadBlockSize(o.readBlockSize),
		)
	}

	e.workers = worker.New(o.workers, worker.WithLogger(e.logger.Logger))

	e.Publish()
	e.logger.Info("engine started",
		"arena_bytes", a.ByteSize(),
		"max_allocs", a.MaxAllocs(),
		"alignment", a.Alignment(),
		"workers", e.workers.Size(),
		"assets", e.loader != nil,
	)
	return e, nil
}

// engineStore is the type-erased view of a store created by NewStore.
type engineStore interface {
	Close() error
	Closed() bool
	TypeName() string
	Len() int
}

func (e *Engine) blobStore() blobstore.BlobStore {
	bs := e.opts.blobs
	if bs == nil && e.opts.assetRoot != "" {
		bs = blobstore.NewLocalStore(e.opts.assetRoot)
	}
	if bs != nil && e.opts.assetCache > 0 {
		bs = blobstore.NewCachingStore(bs, cache.NewLRU(e.opts.assetCache, e.rc))
	}
	return bs
}

// Arena returns the engine arena.
func (e *Engine) Arena() *arena.Arena { return e.arena }

// Registry returns the identifier registry.
func (e *Engine) Registry() *object.Registry { return e.registry }

// Workers returns the worker pool.
func (e *Engine) Workers() *worker.Pool { return e.workers }

// Events returns the event dispatcher.
func (e *Engine) Events() *event.Dispatcher { return e.events }

// Loader returns the asset loader, or nil without a blob store.
func (e *Engine) Loader() *asset.Loader { return e.loader }

// Resources returns the resource controller.
func (e *Engine) Resources() *resource.Controller { return e.rc }

// Logger returns the engine logger.
func (e *Engine) Logger() *Logger { return e.logger }

// Metrics returns the metrics collector.
func (e *Engine) Metrics() MetricsCollector { return e.metrics }

// Allocate reserves size bytes from the engine arena.
func (e *Engine) Allocate(size int) (arena.Addr, error) {
	if e.closed {
		return 0, ErrClosed
	}
	addr, err := e.arena.Allocate(size)
	return addr, capacityError("allocate", e.arena, err)
}

// Free returns an allocation to the arena.
func (e *Engine) Free(addr arena.Addr) error {
	if e.closed {
		return ErrClosed
	}
	if !e.arena.Free(addr) {
		return fmt.Errorf("%w: address %d", ErrInvalidFree, addr)
	}
	return nil
}

// LoadAsset loads a blob through the asset loader.
func (e *Engine) LoadAsset(ctx context.Context, name string, asString bool) (*asset.File, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.loader == nil {
		return nil, ErrNoBlobStore
	}
	f, err := e.loader.Load(ctx, name, asString)
	err = capacityError("load "+name, e.arena, err)
	size := 0
	if f != nil {
		size = f.Len()
	}
	e.logger.LogLoad(ctx, name, size, err)
	return f, err
}

// UnloadAsset frees a file returned by LoadAsset.
func (e *Engine) UnloadAsset(f *asset.File) error {
	if e.loader == nil {
		return ErrNoBlobStore
	}
	return e.loader.Unload(f)
}

// NewStore creates a store for T in the engine arena. A zero cfg selects the
// engine's store configuration.
func NewStore[T any, PT object.Ptr[T]](e *Engine, cfg store.Config, opts ...store.Option) (*store.Store[T, PT], error) {
	if e.closed {
		return nil, ErrClosed
	}
	if cfg == (store.Config{}) {
		cfg = e.opts.storeConfig
	}

	typeName := reflect.TypeFor[T]().Name()
	base := []store.Option{
		store.WithLogger(e.logger.Logger),
		store.WithObserver(storeObserver{mc: e.metrics, typeName: typeName}),
	}

	s, err := store.New[T, PT](e.arena, e.registry, cfg, append(base, opts...)...)
	if err != nil {
		return nil, capacityError("store "+typeName, e.arena, err)
	}
	e.stores = slices.DeleteFunc(e.stores, engineStore.Closed)
	e.stores = append(e.stores, s)
	return s, nil
}

// NewFactory creates a factory for T in the engine arena.
func NewFactory[T any, PT object.Ptr[T]](e *Engine, opts ...factory.Option) *factory.Factory[T, PT] {
	base := []factory.Option{factory.WithLogger(e.logger.Logger)}
	return factory.New[T, PT](e.arena, e.registry, append(base, opts...)...)
}

// Close stops the workers after draining queued tasks, closes stores created
// by NewStore that are still open (logging each), closes the dispatcher,
// reports leaked arena memory and closes the arena. Factory objects and
// loaded files must be released before Close.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	ctx := context.Background()

	e.workers.Stop()

	var errs []error
	for _, s := range e.stores {
		if s.Closed() {
			continue
		}
		e.logger.WarnContext(ctx, "store left open at shutdown", "type", s.TypeName(), "elements", s.Len())
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.stores = nil

	if err := e.events.Close(); err != nil {
		errs = append(errs, err)
	}

	e.Publish()
	if s := e.arena.Stats(); s.BytesUsed > 0 {
		e.logger.LogLeak(ctx, s)
	}

	e.closed = true
	if err := e.arena.Close(); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	e.logger.LogClose(ctx, err)
	return err
}

// Publish captures engine statistics into the snapshot returned by Snapshot.
// It must be called from the owning goroutine, typically once per frame.
func (e *Engine) Publish() {
	if e.closed {
		return
	}
	e.seq++
	e.snapshot.Store(&Snapshot{
		Sequence:          e.seq,
		Time:              time.Now(),
		Arena:             e.arena.Stats(),
		IdentifiersIssued: e.registry.Issued(),
		IdentifierSeeds:   e.registry.Seeds(),
		Workers:           e.workers.Stats(),
		EventsSent:        e.events.Sent(),
		Resources:         e.rc.Stats(),
	})
}

// Snapshot returns the last published statistics. Safe for concurrent use.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}
