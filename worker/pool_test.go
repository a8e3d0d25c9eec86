package worker

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunsAllTasks(t *testing.T) {
	p := New(4)
	defer p.Stop()

	var n atomic.Int64
	for range 1000 {
		require.NoError(t, p.Submit(func() { n.Add(1) }))
	}
	p.Wait()

	assert.Equal(t, int64(1000), n.Load())
	assert.Equal(t, uint64(1000), p.Stats().Executed)
	assert.Equal(t, 4, p.Size())
}

func TestPool_FIFO(t *testing.T) {
	p := New(1)
	defer p.Stop()

	var (
		mu    sync.Mutex
		order []int
	)
	for i := range 50 {
		require.NoError(t, p.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		assert.Equal(t, i, v)
	}
	assert.Len(t, order, 50)
}

func TestPool_PauseResume(t *testing.T) {
	p := New(2)
	defer p.Stop()

	p.Pause()
	assert.True(t, p.Paused())

	var n atomic.Int64
	for range 10 {
		require.NoError(t, p.Submit(func() { n.Add(1) }))
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), n.Load())
	assert.Equal(t, 10, p.Pending())

	p.Resume()
	assert.False(t, p.Paused())
	p.Wait()

	assert.Equal(t, int64(10), n.Load())
	assert.Equal(t, 0, p.Pending())
}

func TestPool_StopDrainsWhilePaused(t *testing.T) {
	p := New(3)
	p.Pause()

	var n atomic.Int64
	for range 25 {
		require.NoError(t, p.Submit(func() { n.Add(1) }))
	}

	p.Stop()
	assert.Equal(t, int64(25), n.Load())

	assert.ErrorIs(t, p.Submit(func() {}), ErrStopped)
	p.Stop()
}

func TestPool_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &mu}, nil))

	p := New(1, WithLogger(logger))
	defer p.Stop()

	var ran atomic.Bool
	require.NoError(t, p.Submit(func() { panic("boom") }))
	require.NoError(t, p.Submit(func() { ran.Store(true) }))
	p.Wait()

	assert.True(t, ran.Load())
	assert.Equal(t, uint64(1), p.Stats().Panics)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, buf.String(), "worker: task panicked")
	assert.Contains(t, buf.String(), "boom")
}

func TestPool_NilTask(t *testing.T) {
	p := New(1)
	defer p.Stop()

	assert.ErrorIs(t, p.Submit(nil), ErrNilTask)
}

func TestPool_DefaultSize(t *testing.T) {
	p := New(0)
	defer p.Stop()

	assert.Positive(t, p.Size())
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}
