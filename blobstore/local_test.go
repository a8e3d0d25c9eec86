package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/triton/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	data := []byte("hello world, this is a test blob")
	require.NoError(t, store.Put(ctx, "textures/stone.bin", data))

	_, err := os.Stat(filepath.Join(dir, "textures", "stone.bin"))
	require.NoError(t, err)

	b, err := store.Open(ctx, "textures/stone.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	m, ok := b.(Mappable)
	require.True(t, ok)
	mapped, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, mapped)
	require.NoError(t, b.Close())

	require.NoError(t, store.Delete(ctx, "textures/stone.bin"))
	_, err = store.Open(ctx, "textures/stone.bin")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "textures/stone.bin"))
}

func TestLocalStore_ReadAtPastEnd(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a.bin", []byte("abc")))

	b, err := store.Open(ctx, "a.bin")
	require.NoError(t, err)
	defer b.Close()

	buf := make([]byte, 4)
	n, err := b.ReadAt(ctx, buf, 1)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = b.ReadAt(ctx, buf, 3)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLocalStore_List(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"b.bin", "a.bin", "maps/level1.bin", "maps/level2.bin"} {
		require.NoError(t, store.Put(ctx, name, []byte(name)))
	}

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.bin", "b.bin", "maps/level1.bin", "maps/level2.bin"}, all)

	maps, err := store.List(ctx, "maps/")
	require.NoError(t, err)
	assert.Equal(t, []string{"maps/level1.bin", "maps/level2.bin"}, maps)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_InvalidName(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape.bin", "/abs.bin"} {
		err := store.Put(ctx, name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)

		_, err = store.Open(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLocalStore_PutFailureLeavesNoBlob(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{"create", fs.Fault{FailAfterBytes: -1, FailOnCreate: true}},
		{"write", fs.Fault{FailAfterBytes: 2}},
		{"sync", fs.Fault{FailAfterBytes: -1, FailOnSync: true}},
		{"rename", fs.Fault{FailAfterBytes: -1, FailOnRename: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			faulty := fs.NewFaultyFS(nil)
			faulty.AddRule("broken.bin", tt.fault)
			store := NewLocalStore(dir, WithFileSystem(faulty))

			err := store.Put(ctx, "broken.bin", []byte("payload"))
			require.ErrorIs(t, err, fs.ErrInjected)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)

			_, err = os.Stat(filepath.Join(dir, "broken.bin"+tmpSuffix))
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestLocalStore_PutReplacesContent(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.bin", []byte("first version")))
	require.NoError(t, store.Put(ctx, "a.bin", []byte("v2")))

	b, err := store.Open(ctx, "a.bin")
	require.NoError(t, err)
	defer b.Close()

	data, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "a.bin", []byte("x")), context.Canceled)
	_, err := store.Open(ctx, "a.bin")
	assert.ErrorIs(t, err, context.Canceled)
}
