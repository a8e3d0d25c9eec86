package triton

import "sync/atomic"

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the prom
// package exports published snapshots instead.
type MetricsCollector interface {
	// RecordAllocate is called after each arena allocation attempt.
	// reserved is the aligned size, err is nil if successful.
	RecordAllocate(size, reserved int, err error)

	// RecordFree is called after each arena free. ok is false for an
	// invalid free.
	RecordFree(reserved int, ok bool)

	// RecordInsert is called after each store insert.
	RecordInsert(typeName string, err error)

	// RecordFind is called after each store lookup.
	RecordFind(typeName string, hit bool)

	// RecordErase is called after each store erase. ok is false when the
	// key was not found.
	RecordErase(typeName string, ok bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAllocate(int, int, error) {}
func (NoopMetricsCollector) RecordFree(int, bool)           {}
func (NoopMetricsCollector) RecordInsert(string, error)     {}
func (NoopMetricsCollector) RecordFind(string, bool)        {}
func (NoopMetricsCollector) RecordErase(string, bool)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocCount    atomic.Int64
	AllocErrors   atomic.Int64
	AllocBytes    atomic.Int64
	FreeCount     atomic.Int64
	InvalidFrees  atomic.Int64
	FreedBytes    atomic.Int64
	InsertCount   atomic.Int64
	InsertErrors  atomic.Int64
	FindHits      atomic.Int64
	FindMisses    atomic.Int64
	EraseCount    atomic.Int64
	EraseNotFound atomic.Int64
}

// RecordAllocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocate(_, reserved int, err error) {
	b.AllocCount.Add(1)
	if err != nil {
		b.AllocErrors.Add(1)
		return
	}
	b.AllocBytes.Add(int64(reserved))
}

// RecordFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFree(reserved int, ok bool) {
	if !ok {
		b.InvalidFrees.Add(1)
		return
	}
	b.FreeCount.Add(1)
	b.FreedBytes.Add(int64(reserved))
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(_ string, err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(_ string, hit bool) {
	if hit {
		b.FindHits.Add(1)
	} else {
		b.FindMisses.Add(1)
	}
}

// RecordErase implements MetricsCollector.
func (b *BasicMetricsCollector) RecordErase(_ string, ok bool) {
	if ok {
		b.EraseCount.Add(1)
	} else {
		b.EraseNotFound.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AllocCount:    b.AllocCount.Load(),
		AllocErrors:   b.AllocErrors.Load(),
		AllocBytes:    b.AllocBytes.Load(),
		FreeCount:     b.FreeCount.Load(),
		InvalidFrees:  b.InvalidFrees.Load(),
		FreedBytes:    b.FreedBytes.Load(),
		InsertCount:   b.InsertCount.Load(),
		InsertErrors:  b.InsertErrors.Load(),
		FindHits:      b.FindHits.Load(),
		FindMisses:    b.FindMisses.Load(),
		EraseCount:    b.EraseCount.Load(),
		EraseNotFound: b.EraseNotFound.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocCount    int64
	AllocErrors   int64
	AllocBytes    int64
	FreeCount     int64
	InvalidFrees  int64
	FreedBytes    int64
	InsertCount   int64
	InsertErrors  int64
	FindHits      int64
	FindMisses    int64
	EraseCount    int64
	EraseNotFound int64
}

// arenaObserver forwards arena events to a MetricsCollector.
type arenaObserver struct {
	mc MetricsCollector
}

func (o arenaObserver) ObserveAllocate(size, reserved int, err error) {
	o.mc.RecordAllocate(size, reserved, err)
}

func (o arenaObserver) ObserveFree(reserved int, ok bool) {
	o.mc.RecordFree(reserved, ok)
}

// storeObserver forwards store events to a MetricsCollector.
type storeObserver struct {
	mc       MetricsCollector
	typeName string
}

func (o storeObserver) ObserveInsert(err error) { o.mc.RecordInsert(o.typeName, err) }
func (o storeObserver) ObserveFind(hit bool)    { o.mc.RecordFind(o.typeName, hit) }
func (o storeObserver) ObserveErase(ok bool)    { o.mc.RecordErase(o.typeName, ok) }
