package main

import (
	"context"
	"testing"

	"github.com/hupe1980/triton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBench_Run(t *testing.T) {
	metrics := &triton.BasicMetricsCollector{}
	eng, err := triton.New(
		triton.WithArena(1<<20, 0, 0),
		triton.WithWorkers(2),
		triton.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer eng.Close()

	b, err := newBench(eng, benchConfig{Spawn: 32, Despawn: 16, Seed: 7})
	require.NoError(t, err)

	require.NoError(t, b.run(context.Background(), 50))

	assert.Equal(t, 50*32, b.spawned)
	assert.Equal(t, 50*16, b.despawned)
	assert.Equal(t, 50*16, b.entities.Len())
	assert.Equal(t, len(b.live), b.projectiles.Live())
	assert.Positive(t, b.peak)

	s := eng.Snapshot()
	assert.Equal(t, uint64(51), s.Sequence)
	assert.Positive(t, s.Workers.Executed)
	assert.Equal(t, 1, eng.Events().Listeners(Collision))

	require.NoError(t, b.close())
	assert.Zero(t, eng.Events().Listeners(Collision))

	require.NoError(t, eng.Events().Close())
	assert.Zero(t, eng.Arena().BytesUsed())
	assert.Zero(t, metrics.GetStats().InsertErrors)
}

func TestBench_Canceled(t *testing.T) {
	eng, err := triton.New(triton.WithWorkers(1))
	require.NoError(t, err)
	defer eng.Close()

	b, err := newBench(eng, benchConfig{Spawn: 1})
	require.NoError(t, err)
	defer b.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.run(ctx, 10), context.Canceled)
	assert.Zero(t, b.spawned)
}
