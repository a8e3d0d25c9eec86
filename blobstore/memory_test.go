package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("memory blob")
	require.NoError(t, s.Put(ctx, "m/one.bin", data))
	require.NoError(t, s.Put(ctx, "m/two.bin", []byte("2")))
	require.NoError(t, s.Put(ctx, "other.bin", []byte("o")))

	data[0] = 'X'

	b, err := s.Open(ctx, "m/one.bin")
	require.NoError(t, err)
	got, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "memory blob", string(got), "Put must copy its input")

	names, err := s.List(ctx, "m/")
	require.NoError(t, err)
	assert.Equal(t, []string{"m/one.bin", "m/two.bin"}, names)

	require.NoError(t, s.Delete(ctx, "m/one.bin"))
	_, err = s.Open(ctx, "m/one.bin")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Put(ctx, "", nil), ErrInvalidName)
}

// sliceBlob hides the Mappable fast path.
type sliceBlob struct {
	data []byte
}

func (b *sliceBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	return readAtSlice(ctx, b.data, p, off)
}
func (b *sliceBlob) Size() int64  { return int64(len(b.data)) }
func (b *sliceBlob) Close() error { return nil }

func TestReadInto(t *testing.T) {
	ctx := context.Background()
	blobs := map[string]Blob{
		"mappable": memoryBlob([]byte("0123456789")),
		"reader":   &sliceBlob{data: []byte("0123456789")},
	}

	for name, b := range blobs {
		t.Run(name, func(t *testing.T) {
			dst := make([]byte, 4)
			require.NoError(t, ReadInto(ctx, b, dst, 3))
			assert.Equal(t, "3456", string(dst))

			all, err := ReadAll(ctx, b)
			require.NoError(t, err)
			assert.Equal(t, "0123456789", string(all))

			assert.Error(t, ReadInto(ctx, b, make([]byte, 4), 8))
			assert.NoError(t, ReadInto(ctx, b, nil, 100))
		})
	}
}

type shortBlob struct{ sliceBlob }

func (b *shortBlob) ReadAt(_ context.Context, p []byte, _ int64) (int, error) {
	return copy(p, b.data[:1]), io.EOF
}

func TestReadInto_ShortRead(t *testing.T) {
	b := &shortBlob{sliceBlob{data: []byte("abcd")}}
	err := ReadInto(context.Background(), b, make([]byte, 4), 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestMemoryStore_EmptyAndCanceled(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "empty.bin", nil))
	assert.Equal(t, 1, s.Len())

	b, err := s.Open(ctx, "empty.bin")
	require.NoError(t, err)
	assert.Zero(t, b.Size())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Put(canceled, "x.bin", []byte("x")), context.Canceled)
	_, err = s.Open(canceled, "empty.bin")
	assert.ErrorIs(t, err, context.Canceled)
}
