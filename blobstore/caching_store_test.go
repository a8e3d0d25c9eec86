package blobstore

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/triton/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	BlobStore
	opens atomic.Int64
}

func (c *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	c.opens.Add(1)
	return c.BlobStore.Open(ctx, name)
}

func TestCachingStore_ServesRepeatOpensFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{BlobStore: NewMemoryStore()}
	require.NoError(t, inner.Put(ctx, "a.bin", []byte("alpha")))

	s := NewCachingStore(inner, cache.NewLRU(1024, nil))

	for range 3 {
		b, err := s.Open(ctx, "a.bin")
		require.NoError(t, err)
		data, err := ReadAll(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(data))
		require.NoError(t, b.Close())
	}

	assert.Equal(t, int64(1), inner.opens.Load())
}

func TestCachingStore_PutInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{BlobStore: NewMemoryStore()}
	s := NewCachingStore(inner, cache.NewLRU(1024, nil))

	require.NoError(t, s.Put(ctx, "a.bin", []byte("v1")))
	b, err := s.Open(ctx, "a.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Size())

	require.NoError(t, s.Put(ctx, "a.bin", []byte("v2-longer")))
	b, err = s.Open(ctx, "a.bin")
	require.NoError(t, err)
	data, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "v2-longer", string(data))
	assert.Equal(t, int64(2), inner.opens.Load())
}

func TestCachingStore_DeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	s := NewCachingStore(NewMemoryStore(), cache.NewLRU(1024, nil))

	require.NoError(t, s.Put(ctx, "a.bin", []byte("x")))
	_, err := s.Open(ctx, "a.bin")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "a.bin"))
	_, err = s.Open(ctx, "a.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingStore_OversizedBlobBypassesCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{BlobStore: NewMemoryStore()}
	require.NoError(t, inner.Put(ctx, "big.bin", make([]byte, 64)))

	lru := cache.NewLRU(16, nil)
	s := NewCachingStore(inner, lru)

	for range 2 {
		b, err := s.Open(ctx, "big.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(64), b.Size())
	}
	assert.Equal(t, int64(2), inner.opens.Load())
	assert.Equal(t, 0, lru.Len())
}

// racingStore runs beforeWrite inside Put and Delete, ahead of the write.
type racingStore struct {
	BlobStore
	beforeWrite func()
}

func (r *racingStore) Put(ctx context.Context, name string, data []byte) error {
	r.beforeWrite()
	return r.BlobStore.Put(ctx, name, data)
}

func (r *racingStore) Delete(ctx context.Context, name string) error {
	r.beforeWrite()
	return r.BlobStore.Delete(ctx, name)
}

func TestCachingStore_OpenDuringWriteDoesNotPinStaleContent(t *testing.T) {
	ctx := context.Background()
	inner := &racingStore{BlobStore: NewMemoryStore(), beforeWrite: func() {}}
	require.NoError(t, inner.BlobStore.Put(ctx, "a.bin", []byte("old")))

	lru := cache.NewLRU(1024, nil)
	s := NewCachingStore(inner, lru)

	inner.beforeWrite = func() {
		b, err := s.Open(ctx, "a.bin")
		require.NoError(t, err)
		require.NoError(t, b.Close())
	}

	require.NoError(t, s.Put(ctx, "a.bin", []byte("new")))
	b, err := s.Open(ctx, "a.bin")
	require.NoError(t, err)
	data, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	require.NoError(t, s.Delete(ctx, "a.bin"))
	_, err = s.Open(ctx, "a.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}
