package triton

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}

	mc.RecordAllocate(100, 128, nil)
	mc.RecordAllocate(10, 0, errors.New("oom"))
	mc.RecordFree(128, true)
	mc.RecordFree(0, false)
	mc.RecordInsert("Sprite", nil)
	mc.RecordInsert("Sprite", errors.New("full"))
	mc.RecordFind("Sprite", true)
	mc.RecordFind("Sprite", false)
	mc.RecordFind("Sprite", false)
	mc.RecordErase("Sprite", true)
	mc.RecordErase("Sprite", false)

	s := mc.GetStats()
	assert.Equal(t, int64(2), s.AllocCount)
	assert.Equal(t, int64(1), s.AllocErrors)
	assert.Equal(t, int64(128), s.AllocBytes)
	assert.Equal(t, int64(1), s.FreeCount)
	assert.Equal(t, int64(1), s.InvalidFrees)
	assert.Equal(t, int64(128), s.FreedBytes)
	assert.Equal(t, int64(2), s.InsertCount)
	assert.Equal(t, int64(1), s.InsertErrors)
	assert.Equal(t, int64(1), s.FindHits)
	assert.Equal(t, int64(2), s.FindMisses)
	assert.Equal(t, int64(1), s.EraseCount)
	assert.Equal(t, int64(1), s.EraseNotFound)
}

func TestBasicMetricsCollector_Concurrent(t *testing.T) {
	mc := &BasicMetricsCollector{}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				mc.RecordAllocate(1, 64, nil)
				mc.RecordFree(64, true)
			}
		}()
	}
	wg.Wait()

	s := mc.GetStats()
	assert.Equal(t, int64(8000), s.AllocCount)
	assert.Equal(t, int64(8000*64), s.AllocBytes)
	assert.Equal(t, int64(8000), s.FreeCount)
}

func TestObserverAdapters(t *testing.T) {
	mc := &BasicMetricsCollector{}

	ao := arenaObserver{mc: mc}
	ao.ObserveAllocate(1, 64, nil)
	ao.ObserveFree(64, true)

	so := storeObserver{mc: mc, typeName: "Sound"}
	so.ObserveInsert(nil)
	so.ObserveFind(true)
	so.ObserveErase(false)

	s := mc.GetStats()
	assert.Equal(t, int64(1), s.AllocCount)
	assert.Equal(t, int64(1), s.FreeCount)
	assert.Equal(t, int64(1), s.InsertCount)
	assert.Equal(t, int64(1), s.FindHits)
	assert.Equal(t, int64(1), s.EraseNotFound)
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}
	assert.NotPanics(t, func() {
		mc.RecordAllocate(1, 64, nil)
		mc.RecordFree(64, true)
		mc.RecordInsert("x", nil)
		mc.RecordFind("x", true)
		mc.RecordErase("x", true)
	})
}
