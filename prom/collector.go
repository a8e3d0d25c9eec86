// Package prom exports engine snapshots as Prometheus metrics.
//
// The collector reads only the snapshot an engine publishes, so scrapes never
// touch the arena or the stores owned by the engine goroutine.
package prom

import (
	"github.com/hupe1980/triton"
	"github.com/prometheus/client_golang/prometheus"
)

// SnapshotSource provides the last published engine statistics.
// *triton.Engine implements it.
type SnapshotSource interface {
	Snapshot() *triton.Snapshot
}

// Collector is a prometheus.Collector over a SnapshotSource.
type Collector struct {
	src SnapshotSource

	arenaBytes       *prometheus.Desc
	arenaUsed        *prometheus.Desc
	arenaRequested   *prometheus.Desc
	arenaLargestFree *prometheus.Desc
	arenaLive        *prometheus.Desc
	arenaRecords     *prometheus.Desc
	arenaFrag        *prometheus.Desc
	allocs           *prometheus.Desc
	frees            *prometheus.Desc
	failedAllocs     *prometheus.Desc
	invalidFrees     *prometheus.Desc
	identifiers      *prometheus.Desc
	seeds            *prometheus.Desc
	workers          *prometheus.Desc
	pending          *prometheus.Desc
	executed         *prometheus.Desc
	panics           *prometheus.Desc
	events           *prometheus.Desc
	memoryReserved   *prometheus.Desc
	backgroundBusy   *prometheus.Desc
	ioBytes          *prometheus.Desc
	sequence         *prometheus.Desc
}

// NewCollector creates a collector. constLabels are attached to every metric.
func NewCollector(src SnapshotSource, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("triton", "", name), help, nil, constLabels)
	}
	return &Collector{
		src:              src,
		arenaBytes:       desc("arena_size_bytes", "Size of the arena block."),
		arenaUsed:        desc("arena_used_bytes", "Reserved bytes of live allocations."),
		arenaRequested:   desc("arena_requested_bytes", "Requested bytes of live allocations."),
		arenaLargestFree: desc("arena_largest_free_bytes", "Largest free extent including the tail."),
		arenaLive:        desc("arena_live_allocations", "Live allocations."),
		arenaRecords:     desc("arena_records", "Allocation records in use, live and free."),
		arenaFrag:        desc("arena_fragmentation_ratio", "Share of free bytes outside the largest free extent."),
		allocs:           desc("arena_allocations_total", "Successful allocations."),
		frees:            desc("arena_frees_total", "Successful frees."),
		failedAllocs:     desc("arena_failed_allocations_total", "Failed allocations."),
		invalidFrees:     desc("arena_invalid_frees_total", "Frees of addresses that were not live."),
		identifiers:      desc("identifiers_issued_total", "Identifiers generated by the registry."),
		seeds:            desc("identifier_seeds", "Distinct identifier seeds."),
		workers:          desc("workers", "Worker goroutines."),
		pending:          desc("worker_pending_tasks", "Queued worker tasks."),
		executed:         desc("worker_executed_tasks_total", "Executed worker tasks."),
		panics:           desc("worker_panics_total", "Recovered worker task panics."),
		events:           desc("events_sent_total", "Events dispatched to listener stores."),
		memoryReserved:   desc("memory_reserved_bytes", "Bytes charged to the resource controller."),
		backgroundBusy:   desc("background_slots_busy", "Background slots held by asset fetches."),
		ioBytes:          desc("io_read_bytes_total", "Bytes read through the IO limiter."),
		sequence:         desc("snapshot_sequence", "Sequence number of the last published snapshot."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.arenaBytes, c.arenaUsed, c.arenaRequested, c.arenaLargestFree, c.arenaLive,
		c.arenaRecords, c.arenaFrag, c.allocs, c.frees, c.failedAllocs, c.invalidFrees,
		c.identifiers, c.seeds, c.workers, c.pending, c.executed, c.panics, c.events,
		c.memoryReserved, c.backgroundBusy, c.ioBytes, c.sequence,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Snapshot()
	if s == nil {
		return
	}

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(c.arenaBytes, float64(s.Arena.ByteSize))
	gauge(c.arenaUsed, float64(s.Arena.BytesUsed))
	gauge(c.arenaRequested, float64(s.Arena.BytesRequested))
	gauge(c.arenaLargestFree, float64(s.Arena.LargestFree))
	gauge(c.arenaLive, float64(s.Arena.LiveAllocs))
	gauge(c.arenaRecords, float64(s.Arena.Records))
	gauge(c.arenaFrag, s.Arena.Fragmentation)
	counter(c.allocs, float64(s.Arena.TotalAllocs))
	counter(c.frees, float64(s.Arena.TotalFrees))
	counter(c.failedAllocs, float64(s.Arena.FailedAllocs))
	counter(c.invalidFrees, float64(s.Arena.InvalidFrees))
	counter(c.identifiers, float64(s.IdentifiersIssued))
	gauge(c.seeds, float64(s.IdentifierSeeds))
	gauge(c.workers, float64(s.Workers.Workers))
	gauge(c.pending, float64(s.Workers.Pending))
	counter(c.executed, float64(s.Workers.Executed))
	counter(c.panics, float64(s.Workers.Panics))
	counter(c.events, float64(s.EventsSent))
	gauge(c.memoryReserved, float64(s.Resources.MemoryUsed))
	gauge(c.backgroundBusy, float64(s.Resources.BackgroundBusy))
	counter(c.ioBytes, float64(s.Resources.IOBytes))
	gauge(c.sequence, float64(s.Sequence))
}
