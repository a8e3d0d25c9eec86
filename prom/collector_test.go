package prom

import (
	"testing"

	"github.com/hupe1980/triton"
	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/resource"
	"github.com/hupe1980/triton/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	snap *triton.Snapshot
}

func (s staticSource) Snapshot() *triton.Snapshot { return s.snap }

func gather(t *testing.T, c prometheus.Collector) map[string]*dto.Metric {
	t.Helper()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.Metric, len(families))
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		out[mf.GetName()] = mf.GetMetric()[0]
	}
	return out
}

func TestCollector_Snapshot(t *testing.T) {
	src := staticSource{snap: &triton.Snapshot{
		Sequence: 7,
		Arena: arena.Stats{
			ByteSize:      1 << 20,
			BytesUsed:     4096,
			LiveAllocs:    3,
			TotalAllocs:   10,
			InvalidFrees:  1,
			Fragmentation: 0.25,
		},
		IdentifiersIssued: 12,
		IdentifierSeeds:   2,
		Workers:           worker.Stats{Workers: 4, Executed: 99},
		EventsSent:        5,
		Resources:         resource.Stats{MemoryUsed: 2048, BackgroundSlots: 4, BackgroundBusy: 2, IOBytes: 512},
	}}

	metrics := gather(t, NewCollector(src, prometheus.Labels{"engine": "test"}))

	assert.Len(t, metrics, 22)
	assert.Equal(t, float64(1<<20), metrics["triton_arena_size_bytes"].GetGauge().GetValue())
	assert.Equal(t, float64(4096), metrics["triton_arena_used_bytes"].GetGauge().GetValue())
	assert.Equal(t, float64(3), metrics["triton_arena_live_allocations"].GetGauge().GetValue())
	assert.Equal(t, 0.25, metrics["triton_arena_fragmentation_ratio"].GetGauge().GetValue())
	assert.Equal(t, float64(10), metrics["triton_arena_allocations_total"].GetCounter().GetValue())
	assert.Equal(t, float64(1), metrics["triton_arena_invalid_frees_total"].GetCounter().GetValue())
	assert.Equal(t, float64(12), metrics["triton_identifiers_issued_total"].GetCounter().GetValue())
	assert.Equal(t, float64(4), metrics["triton_workers"].GetGauge().GetValue())
	assert.Equal(t, float64(99), metrics["triton_worker_executed_tasks_total"].GetCounter().GetValue())
	assert.Equal(t, float64(5), metrics["triton_events_sent_total"].GetCounter().GetValue())
	assert.Equal(t, float64(2), metrics["triton_background_slots_busy"].GetGauge().GetValue())
	assert.Equal(t, float64(7), metrics["triton_snapshot_sequence"].GetGauge().GetValue())

	labels := metrics["triton_workers"].GetLabel()
	require.Len(t, labels, 1)
	assert.Equal(t, "engine", labels[0].GetName())
	assert.Equal(t, "test", labels[0].GetValue())
}

func TestCollector_NoSnapshot(t *testing.T) {
	assert.Equal(t, 0, testutil.CollectAndCount(NewCollector(staticSource{}, nil)))
}

func TestCollector_Engine(t *testing.T) {
	e, err := triton.New(triton.WithArena(1<<12, 0, 0), triton.WithWorkers(1))
	require.NoError(t, err)
	defer e.Close()

	c := NewCollector(e, nil)

	addr, err := e.Allocate(100)
	require.NoError(t, err)
	e.Publish()

	metrics := gather(t, c)
	assert.Equal(t, float64(128), metrics["triton_arena_used_bytes"].GetGauge().GetValue())
	assert.Equal(t, float64(1), metrics["triton_arena_allocations_total"].GetCounter().GetValue())

	require.NoError(t, e.Free(addr))
	assert.Equal(t, float64(128), gather(t, c)["triton_arena_used_bytes"].GetGauge().GetValue())

	e.Publish()
	assert.Zero(t, gather(t, c)["triton_arena_used_bytes"].GetGauge().GetValue())
}
