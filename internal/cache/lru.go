package cache

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/hupe1980/triton/resource"
)

// LRU is a byte-bounded least-recently-used cache of blob contents keyed by
// blob name. It is safe for concurrent use.
//
// The entry count is unbounded; eviction is driven by the byte capacity.
// Every cached byte is charged to the resource controller, if one is set.
type LRU struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, []byte]
	capacity int64
	size     int64
	rc       *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLRU creates a cache holding at most capacity bytes.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	c := &LRU{capacity: capacity, rc: rc}
	// NewLRU only fails for a non-positive size.
	c.lru, _ = simplelru.NewLRU[string, []byte](math.MaxInt, c.evicted)
	return c
}

// evicted runs under c.mu for every entry leaving the list.
func (c *LRU) evicted(_ string, value []byte) {
	n := int64(len(value))
	c.size -= n
	c.rc.ReleaseMemory(n)
}

// Get returns a cached blob. The slice must be treated as read-only.
func (c *LRU) Get(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.lru.Get(name)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

// Set caches data under name, replacing any previous content. Blobs larger
// than the capacity, or whose bytes the controller refuses, are not cached.
// The caller must not modify data afterwards.
func (c *LRU) Set(name string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(name)

	n := int64(len(data))
	if n > c.capacity {
		return
	}
	for c.size+n > c.capacity {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
	if !c.rc.TryAcquireMemory(n) {
		return
	}

	c.lru.Add(name, data)
	c.size += n
}

// Remove drops name from the cache.
func (c *LRU) Remove(name string) {
	c.mu.Lock()
	c.lru.Remove(name)
	c.mu.Unlock()
}

// Purge drops every entry and returns its bytes to the controller.
func (c *LRU) Purge() {
	c.mu.Lock()
	c.lru.Purge()
	c.mu.Unlock()
}

// Len returns the number of cached blobs.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Size returns the cached bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns hit and miss counts.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
