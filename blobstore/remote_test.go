package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rangeCall struct{ first, last int64 }

func fakeRemote(content string, calls *[]rangeCall) RangeReader {
	return func(_ context.Context, first, last int64) (io.ReadCloser, error) {
		*calls = append(*calls, rangeCall{first, last})
		return io.NopCloser(strings.NewReader(content[first : last+1])), nil
	}
}

func TestRemoteBlob_ReadAt(t *testing.T) {
	ctx := context.Background()
	var calls []rangeCall
	b := NewRemoteBlob("levels/intro.bin", 10, fakeRemote("0123456789", &calls))

	assert.Equal(t, "levels/intro.bin", b.Name())
	assert.Equal(t, int64(10), b.Size())

	buf := make([]byte, 4)
	n, err := b.ReadAt(ctx, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "2345", string(buf))

	n, err = b.ReadAt(ctx, buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(buf[:n]))

	n, err = b.ReadAt(ctx, buf, 10)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	n, err = b.ReadAt(ctx, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, []rangeCall{{2, 5}, {8, 9}}, calls, "only in-range reads reach the server")
	require.NoError(t, b.Close())
}

func TestRemoteBlob_Errors(t *testing.T) {
	t.Run("short body", func(t *testing.T) {
		b := NewRemoteBlob("a", 5, func(context.Context, int64, int64) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("ab")), nil
		})
		_, err := b.ReadAt(context.Background(), make([]byte, 5), 0)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("open", func(t *testing.T) {
		boom := errors.New("boom")
		b := NewRemoteBlob("a", 5, func(context.Context, int64, int64) (io.ReadCloser, error) {
			return nil, boom
		})
		_, err := b.ReadAt(context.Background(), make([]byte, 1), 0)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var calls []rangeCall
		b := NewRemoteBlob("a", 5, fakeRemote("abcde", &calls))
		_, err := b.ReadAt(ctx, make([]byte, 1), 0)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, calls)
	})

	t.Run("read all", func(t *testing.T) {
		var calls []rangeCall
		b := NewRemoteBlob("a", 5, fakeRemote("abcde", &calls))
		data, err := ReadAll(context.Background(), b)
		require.NoError(t, err)
		assert.Equal(t, "abcde", string(data))
	})
}
