package store

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/internal/conv"
	"github.com/hupe1980/triton/internal/hash"
	"github.com/hupe1980/triton/object"
)

var (
	// ErrChunkTooSmall is returned when a chunk cannot hold a single object.
	ErrChunkTooSmall = errors.New("store: chunk too small for one object")
	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("store: closed")
	// ErrZeroIdentifier is returned when inserting under the zero identifier.
	ErrZeroIdentifier = errors.New("store: zero identifier")
)

// State is the observable lifecycle state of a store.
type State int

const (
	// StateEmpty means the store holds no chunks.
	StateEmpty State = iota
	// StateGrowing means the last insert allocated a chunk.
	StateGrowing
	// StateActive means the last insert fit an existing chunk.
	StateActive
	// StateDraining means the last operation erased an element.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateGrowing:
		return "growing"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Observer receives store events, e.g. for metrics.
type Observer interface {
	ObserveInsert(err error)
	ObserveFind(hit bool)
	ObserveErase(ok bool)
}

// bucket is one hash index entry; occupancy is tracked separately.
type bucket struct {
	chunk uint32
	slot  uint32
}

type counters struct {
	inserts    uint64
	erases     uint64
	collisions uint64
	fastHits   uint64
	slowHits   uint64
	misses     uint64
}

// Store is a chunked, identifier-indexed container of T.
type Store[T any, PT object.Ptr[T]] struct {
	arena         *arena.Arena
	registry      *object.Registry
	typeName      string
	chunkByteSize int
	perChunk      int
	maxChunks     int

	tableAddr arena.Addr
	table     []arena.Addr // arena address of each chunk's reservation
	indexAddr arena.Addr
	buckets   []bucket
	mask      int
	occupied  *roaring.Bitmap

	chunks [][]T
	count  int
	state  State
	closed bool

	counters counters
	logger   *slog.Logger
	observer Observer
}

// Option configures a Store.
type Option func(*options)

type options struct {
	typeName string
	logger   *slog.Logger
	observer Observer
}

// WithTypeName overrides the identifier seed, which defaults to the Go type name of T.
func WithTypeName(name string) Option {
	return func(o *options) {
		o.typeName = name
	}
}

// WithLogger sets the logger used to report growth failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver registers a store observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// New creates a store of T backed by a. Identifiers for Insert are issued by r.
// The chunk table and hash index are reserved from a immediately; chunks are
// reserved on demand.
func New[T any, PT object.Ptr[T]](a *arena.Arena, r *object.Registry, cfg Config, opts ...Option) (*Store[T, PT], error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	o := options{
		typeName: reflect.TypeFor[T]().Name(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.typeName == "" {
		o.typeName = "Object"
	}

	size := arena.SizeOf[T](1)
	perChunk := cfg.ChunkByteSize / size
	if perChunk == 0 {
		return nil, fmt.Errorf("%w: %d byte chunk, %d byte %s", ErrChunkTooSmall, cfg.ChunkByteSize, size, o.typeName)
	}
	if _, err := conv.IntToUint32(perChunk); err != nil {
		return nil, fmt.Errorf("store: objects per chunk: %w", err)
	}
	if _, err := conv.IntToUint32(cfg.MaxChunkCount); err != nil {
		return nil, fmt.Errorf("store: max chunk count: %w", err)
	}

	s := &Store[T, PT]{
		arena:         a,
		registry:      r,
		typeName:      o.typeName,
		chunkByteSize: cfg.ChunkByteSize,
		perChunk:      perChunk,
		maxChunks:     cfg.MaxChunkCount,
		mask:          cfg.BucketCount - 1,
		occupied:      roaring.New(),
		chunks:        make([][]T, 0, min(cfg.MaxChunkCount, 16)),
		logger:        o.logger,
		observer:      o.observer,
	}

	s.tableAddr, s.table, err = arena.AllocSlice[arena.Addr](a, cfg.MaxChunkCount)
	if err != nil {
		return nil, fmt.Errorf("store %s: reserve chunk table: %w", s.typeName, err)
	}
	s.indexAddr, s.buckets, err = arena.AllocSlice[bucket](a, cfg.BucketCount)
	if err != nil {
		a.Free(s.tableAddr)
		return nil, fmt.Errorf("store %s: reserve hash index: %w", s.typeName, err)
	}

	return s, nil
}

// Insert constructs a new element with a freshly generated identifier.
// init runs on the zeroed slot before the identifier is stamped.
func (s *Store[T, PT]) Insert(init func(*T)) (*T, error) {
	if s.closed {
		return nil, ErrClosed
	}
	id, err := s.registry.Generate(s.typeName)
	if err != nil {
		s.observeInsert(err)
		return nil, err
	}
	return s.insert(id, init)
}

// InsertWithID constructs a new element under a caller-supplied identifier.
// Uniqueness of id is the caller's responsibility.
func (s *Store[T, PT]) InsertWithID(id object.Identifier, init func(*T)) (*T, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if id.IsZero() {
		s.observeInsert(ErrZeroIdentifier)
		return nil, ErrZeroIdentifier
	}
	return s.insert(id, init)
}

func (s *Store[T, PT]) insert(id object.Identifier, init func(*T)) (*T, error) {
	c, slot := s.count/s.perChunk, s.count%s.perChunk

	grew := false
	if c == len(s.chunks) {
		if err := s.grow(); err != nil {
			s.observeInsert(err)
			return nil, err
		}
		grew = true
	}

	p := &s.chunks[c][slot]
	if init != nil {
		init(p)
	}
	object.Stamp(PT(p), id)

	b := s.bucketOf(id)
	if !s.occupied.CheckedAdd(uint32(b)) {
		s.counters.collisions++
	}
	s.buckets[b] = bucket{chunk: uint32(c), slot: uint32(slot)}

	s.count++
	s.counters.inserts++
	if grew {
		s.state = StateGrowing
	} else {
		s.state = StateActive
	}

	s.observeInsert(nil)
	return p, nil
}

func (s *Store[T, PT]) grow() error {
	c := len(s.chunks)
	if c >= s.maxChunks {
		s.logger.Warn("store: chunk ceiling reached", "type", s.typeName, "chunks", c)
		return fmt.Errorf("%w: store %s reached %d chunks", arena.ErrOutOfMemory, s.typeName, s.maxChunks)
	}

	addr, err := s.arena.Allocate(s.chunkByteSize)
	if err != nil {
		s.logger.Warn("store: chunk allocation failed", "type", s.typeName, "chunks", c, "error", err)
		return fmt.Errorf("store %s: allocate chunk %d: %w", s.typeName, c, err)
	}

	s.table[c] = addr
	s.chunks = append(s.chunks, make([]T, s.perChunk))
	return nil
}

func (s *Store[T, PT]) shrink() {
	c := len(s.chunks) - 1
	s.arena.Free(s.table[c])
	s.table[c] = 0
	s.chunks[c] = nil
	s.chunks = s.chunks[:c]
}

// Find returns the element with identifier key, or nil.
func (s *Store[T, PT]) Find(key object.Identifier) *T {
	i, fast := s.locate(key)
	switch {
	case i < 0:
		s.counters.misses++
	case fast:
		s.counters.fastHits++
	default:
		s.counters.slowHits++
	}
	if s.observer != nil {
		s.observer.ObserveFind(i >= 0)
	}
	if i < 0 {
		return nil
	}
	return s.at(i)
}

// Contains reports whether an element with identifier key exists.
func (s *Store[T, PT]) Contains(key object.Identifier) bool {
	i, _ := s.locate(key)
	return i >= 0
}

func (s *Store[T, PT]) locate(key object.Identifier) (int, bool) {
	if s.count == 0 {
		return -1, false
	}

	b := s.bucketOf(key)
	if s.occupied.Contains(uint32(b)) {
		if i := s.position(s.buckets[b]); i < s.count && PT(s.at(i)).ID() == key {
			return i, true
		}
	}

	for i := range s.count {
		if PT(s.at(i)).ID() == key {
			return i, false
		}
	}
	return -1, false
}

// Erase destroys the element with identifier key and moves the last element
// into its position. It reports false, changing nothing, when key is absent.
func (s *Store[T, PT]) Erase(key object.Identifier) bool {
	i := -1
	if !s.closed {
		i, _ = s.locate(key)
	}
	if s.observer != nil {
		s.observer.ObserveErase(i >= 0)
	}
	if i < 0 {
		return false
	}

	victim := s.at(i)
	object.Release(PT(victim))
	s.unindex(key, i)

	last := s.count - 1
	if i != last {
		*victim = *s.at(last)
		s.reindex(PT(victim).ID(), last, i)
	}
	var zero T
	*s.at(last) = zero

	s.count--
	s.counters.erases++
	s.state = StateDraining

	if s.count%s.perChunk == 0 {
		s.shrink()
		if len(s.chunks) == 0 {
			s.state = StateEmpty
		}
	}

	return true
}

func (s *Store[T, PT]) unindex(key object.Identifier, i int) {
	b := s.bucketOf(key)
	if s.occupied.Contains(uint32(b)) && s.position(s.buckets[b]) == i {
		s.occupied.Remove(uint32(b))
	}
}

func (s *Store[T, PT]) reindex(key object.Identifier, from, to int) {
	b := s.bucketOf(key)
	if s.occupied.Contains(uint32(b)) && s.position(s.buckets[b]) == from {
		s.buckets[b] = bucket{chunk: uint32(to / s.perChunk), slot: uint32(to % s.perChunk)}
	}
}

// Element returns the element at logical index i, or nil when out of range.
func (s *Store[T, PT]) Element(i int) *T {
	if i < 0 || i >= s.count {
		return nil
	}
	return s.at(i)
}

// All returns an iterator over index/element pairs in storage order.
// The store must not be modified during iteration.
func (s *Store[T, PT]) All() iter.Seq2[int, *T] {
	return func(yield func(int, *T) bool) {
		for i := 0; i < s.count; i++ {
			if !yield(i, s.at(i)) {
				return
			}
		}
	}
}

// Len returns the number of elements.
func (s *Store[T, PT]) Len() int { return s.count }

// Cap returns the number of slots in the allocated chunks.
func (s *Store[T, PT]) Cap() int { return len(s.chunks) * s.perChunk }

// ChunkCount returns the number of allocated chunks.
func (s *Store[T, PT]) ChunkCount() int { return len(s.chunks) }

// ObjectsPerChunk returns the number of slots per chunk.
func (s *Store[T, PT]) ObjectsPerChunk() int { return s.perChunk }

// State returns the current lifecycle state.
func (s *Store[T, PT]) State() State { return s.state }

// Closed reports whether Close has been called.
func (s *Store[T, PT]) Closed() bool { return s.closed }

// TypeName returns the identifier seed used by Insert.
func (s *Store[T, PT]) TypeName() string { return s.typeName }

// Close destroys every element and returns all chunks, the hash index and the
// chunk table to the arena. Close is idempotent.
func (s *Store[T, PT]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	for i := range s.count {
		object.Release(PT(s.at(i)))
	}

	failed := 0
	for c := range s.chunks {
		if !s.arena.Free(s.table[c]) {
			failed++
		}
	}
	if !s.arena.Free(s.indexAddr) {
		failed++
	}
	if !s.arena.Free(s.tableAddr) {
		failed++
	}

	s.chunks = nil
	s.table = nil
	s.buckets = nil
	s.occupied.Clear()
	s.count = 0
	s.state = StateEmpty

	if failed > 0 {
		return fmt.Errorf("store %s: %d arena reservations could not be freed", s.typeName, failed)
	}
	return nil
}

func (s *Store[T, PT]) at(i int) *T {
	return &s.chunks[i/s.perChunk][i%s.perChunk]
}

func (s *Store[T, PT]) position(b bucket) int {
	return int(b.chunk)*s.perChunk + int(b.slot)
}

func (s *Store[T, PT]) bucketOf(key object.Identifier) int {
	return hash.Mask(key.Hash(), s.mask+1)
}

func (s *Store[T, PT]) observeInsert(err error) {
	if s.observer != nil {
		s.observer.ObserveInsert(err)
	}
}
