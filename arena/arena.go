package arena

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/triton/internal/mem"
	"github.com/hupe1980/triton/internal/mmap"
)

var (
	// ErrOutOfMemory is returned when the block or the record table is exhausted.
	ErrOutOfMemory = errors.New("arena: out of memory")
	// ErrInvalidSize is returned for zero or negative sizes.
	ErrInvalidSize = errors.New("arena: invalid size")
	// ErrInvalidAlignment is returned when the alignment is not a power of two.
	ErrInvalidAlignment = errors.New("arena: alignment must be a power of two")
	// ErrMisaligned is returned when an allocation cannot hold a typed view at
	// the element type's alignment.
	ErrMisaligned = errors.New("arena: allocation misaligned for element type")
	// ErrClosed is returned when the arena has been closed.
	ErrClosed = errors.New("arena: closed")
)

const (
	// DefaultByteSize is the default block size (1 MiB).
	DefaultByteSize = 1 << 20
	// DefaultMaxAllocs is the default capacity of the allocation record table.
	DefaultMaxAllocs = 65536
	// DefaultAlignment is the default allocation alignment in bytes.
	DefaultAlignment = 64
)

// Addr is the byte offset of an allocation inside the arena block.
type Addr uint64

// MemoryAcquirer reserves memory against an external budget.
type MemoryAcquirer interface {
	TryAcquireMemory(amount int64) bool
	ReleaseMemory(amount int64)
}

// Observer receives allocation events, e.g. for metrics.
type Observer interface {
	ObserveAllocate(size, reserved int, err error)
	ObserveFree(reserved int, ok bool)
}

type record struct {
	addr     Addr
	occupied int // requested bytes, 0 while free
	reserved int // aligned bytes owned by the record
	free     bool
}

func (r record) end() int {
	return int(r.addr) + r.reserved
}

type counters struct {
	allocs       uint64
	frees        uint64
	failedAllocs uint64
	invalidFrees uint64
	bytesFreed   uint64
}

// Arena is a fixed-capacity allocator over one contiguous memory block.
type Arena struct {
	data      []byte
	mapping   *mmap.Mapping
	byteSize  int
	maxAllocs int
	alignment int
	records   []record
	tail      int // end of the last record; bytes past it have never been handed out
	bytesUsed int
	live      int
	lastFreed int
	counters  counters
	offHeap   bool
	acquirer  MemoryAcquirer
	observer  Observer
	logger    *slog.Logger
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithOffHeap backs the block with an anonymous memory mapping instead of
// the Go heap.
func WithOffHeap() Option {
	return func(a *Arena) {
		a.offHeap = true
	}
}

// WithMemoryAcquirer reserves the block size from acquirer on New and
// returns it on Close.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(a *Arena) {
		a.acquirer = acquirer
	}
}

// WithObserver registers an allocation observer.
func WithObserver(o Observer) Option {
	return func(a *Arena) {
		a.observer = o
	}
}

// WithLogger sets the logger used to report invalid frees and leaks.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arena) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an arena of byteSize bytes holding at most maxAllocs allocation
// records. Non-positive maxAllocs and alignment select the defaults.
func New(byteSize, maxAllocs, alignment int, opts ...Option) (*Arena, error) {
	if byteSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidSize, byteSize)
	}
	if maxAllocs <= 0 {
		maxAllocs = DefaultMaxAllocs
	}
	if alignment <= 0 {
		alignment = DefaultAlignment
	}
	if alignment&(alignment-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}

	a := &Arena{
		byteSize:  byteSize,
		maxAllocs: maxAllocs,
		alignment: alignment,
		records:   make([]record, 0, min(maxAllocs, 1024)),
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.acquirer != nil && !a.acquirer.TryAcquireMemory(int64(byteSize)) {
		return nil, fmt.Errorf("%w: memory budget denied %d bytes", ErrOutOfMemory, byteSize)
	}

	if a.offHeap {
		m, err := mmap.MapAnon(byteSize)
		if err != nil {
			if a.acquirer != nil {
				a.acquirer.ReleaseMemory(int64(byteSize))
			}
			return nil, fmt.Errorf("arena: map anonymous block: %w", err)
		}
		_ = m.Advise(mmap.AdviseRandom)
		a.mapping = m
		a.data = m.Bytes()
	} else {
		a.data = mem.AllocAligned(byteSize, max(alignment, mem.DefaultAlignment))
	}

	return a, nil
}

// Allocate reserves size bytes, rounded up to the alignment, and returns the
// address of the reservation. The memory is not zeroed.
func (a *Arena) Allocate(size int) (Addr, error) {
	addr, reserved, err := a.allocate(size)
	if a.observer != nil {
		a.observer.ObserveAllocate(size, reserved, err)
	}
	return addr, err
}

func (a *Arena) allocate(size int) (Addr, int, error) {
	if a.data == nil {
		return 0, 0, ErrClosed
	}
	if size <= 0 {
		a.counters.failedAllocs++
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if size > a.byteSize {
		return 0, 0, a.outOfMemory(size)
	}

	aligned := a.alignUp(size)

	for i := range a.records {
		if !a.records[i].free || a.records[i].reserved < aligned {
			continue
		}
		if a.records[i].reserved > aligned && len(a.records) < a.maxAllocs {
			rest := record{
				addr:     a.records[i].addr + Addr(aligned),
				reserved: a.records[i].reserved - aligned,
				free:     true,
			}
			a.records[i].reserved = aligned
			a.records = slices.Insert(a.records, i+1, rest)
		}
		r := &a.records[i]
		r.free = false
		r.occupied = size
		a.commit(r.reserved)
		return r.addr, r.reserved, nil
	}

	if len(a.records) >= a.maxAllocs {
		a.counters.failedAllocs++
		return 0, 0, fmt.Errorf("%w: record table full (%d records)", ErrOutOfMemory, a.maxAllocs)
	}
	if a.tail+aligned > a.byteSize {
		return 0, 0, a.outOfMemory(size)
	}

	r := record{addr: Addr(a.tail), occupied: size, reserved: aligned}
	a.records = append(a.records, r)
	a.tail += aligned
	a.commit(aligned)
	return r.addr, aligned, nil
}

func (a *Arena) commit(reserved int) {
	a.bytesUsed += reserved
	a.live++
	a.counters.allocs++
}

func (a *Arena) outOfMemory(size int) error {
	a.counters.failedAllocs++
	return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, a.bytesUsed, a.byteSize)
}

// Free releases the allocation at addr and merges it with adjacent free
// records. It returns false, leaving the arena untouched, when addr is not the
// address of a live allocation (double free or foreign address).
func (a *Arena) Free(addr Addr) bool {
	reserved, ok := a.free(addr)
	if a.observer != nil {
		a.observer.ObserveFree(reserved, ok)
	}
	return ok
}

func (a *Arena) free(addr Addr) (int, bool) {
	i, found := a.find(addr)
	if a.data == nil || !found || a.records[i].free {
		a.counters.invalidFrees++
		a.lastFreed = 0
		a.logger.Warn("arena: invalid free", "addr", uint64(addr))
		return 0, false
	}

	reserved := a.records[i].reserved
	a.records[i].free = true
	a.records[i].occupied = 0
	a.bytesUsed -= reserved
	a.live--
	a.lastFreed = reserved
	a.counters.frees++
	a.counters.bytesFreed += uint64(reserved)

	if i+1 < len(a.records) && a.records[i+1].free {
		a.records[i].reserved += a.records[i+1].reserved
		a.records = slices.Delete(a.records, i+1, i+2)
	}
	if i > 0 && a.records[i-1].free {
		a.records[i-1].reserved += a.records[i].reserved
		a.records = slices.Delete(a.records, i, i+1)
		i--
	}
	// A free record at the end hands its bytes back to the tail.
	if i == len(a.records)-1 {
		a.tail = int(a.records[i].addr)
		a.records = a.records[:i]
	}

	return reserved, true
}

func (a *Arena) find(addr Addr) (int, bool) {
	return slices.BinarySearchFunc(a.records, addr, func(r record, target Addr) int {
		return cmp.Compare(r.addr, target)
	})
}

// Bytes returns the requested bytes of the live allocation at addr, or nil.
// The slice aliases arena memory and is invalid after Free or Close.
func (a *Arena) Bytes(addr Addr) []byte {
	i, ok := a.find(addr)
	if a.data == nil || !ok || a.records[i].free {
		return nil
	}
	start := int(addr)
	end := start + a.records[i].occupied
	return a.data[start:end:end]
}

// Size returns the requested size of the live allocation at addr, or 0.
func (a *Arena) Size(addr Addr) int {
	i, ok := a.find(addr)
	if !ok || a.records[i].free {
		return 0
	}
	return a.records[i].occupied
}

// Reserved returns the reserved (aligned) size of the live allocation at addr, or 0.
func (a *Arena) Reserved(addr Addr) int {
	i, ok := a.find(addr)
	if !ok || a.records[i].free {
		return 0
	}
	return a.records[i].reserved
}

// BytesUsed returns the reserved bytes of all live allocations.
func (a *Arena) BytesUsed() int { return a.bytesUsed }

// ByteSize returns the block size.
func (a *Arena) ByteSize() int { return a.byteSize }

// AllocCount returns the number of allocation records, live and free.
func (a *Arena) AllocCount() int { return len(a.records) }

// LastFreedBytes returns the bytes released by the most recent Free call.
func (a *Arena) LastFreedBytes() int { return a.lastFreed }

// Alignment returns the allocation alignment.
func (a *Arena) Alignment() int { return a.alignment }

// MaxAllocs returns the capacity of the allocation record table.
func (a *Arena) MaxAllocs() int { return a.maxAllocs }

// Close releases the backing block. Allocations still live at this point are
// reported as leaks. Close is idempotent.
func (a *Arena) Close() error {
	if a.data == nil {
		return nil
	}

	if a.live > 0 {
		a.logger.Warn("arena: closed with live allocations",
			"allocations", a.live,
			"bytes", a.bytesUsed,
		)
	}

	var err error
	if a.mapping != nil {
		err = a.mapping.Close()
		a.mapping = nil
	}
	if a.acquirer != nil {
		a.acquirer.ReleaseMemory(int64(a.byteSize))
	}

	a.data = nil
	a.records = nil
	a.tail = 0
	a.bytesUsed = 0
	a.live = 0

	return err
}

func (a *Arena) alignUp(size int) int {
	mask := a.alignment - 1
	return (size + mask) &^ mask
}
