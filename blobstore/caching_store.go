package blobstore

import (
	"context"

	"github.com/hupe1980/triton/internal/cache"
)

// CachingStore wraps a BlobStore and keeps recently opened blobs in memory.
//
// Blobs are cached whole; a blob larger than the cache capacity is always
// served from the inner store.
type CachingStore struct {
	inner BlobStore
	cache *cache.LRU
}

// NewCachingStore creates a new CachingStore backed by c.
func NewCachingStore(inner BlobStore, c *cache.LRU) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: c,
	}
}

// Open returns the cached blob or reads it from the inner store.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := s.cache.Get(name); ok {
		return memoryBlob(data), nil
	}

	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := ReadAll(ctx, b)
	if err != nil {
		return nil, err
	}

	s.cache.Set(name, data)
	return memoryBlob(data), nil
}

// Put writes through and invalidates the cached copy. The copy is dropped
// again after the write, since an Open racing the write may have cached the
// old content.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Remove(name)
	defer s.cache.Remove(name)
	return s.inner.Put(ctx, name, data)
}

// Delete deletes from the inner store and invalidates the cached copy,
// before and after the delete.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	defer s.cache.Remove(name)
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}
