package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/triton/asset"
	"github.com/hupe1980/triton/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestPackFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	text := bytes.Repeat([]byte("uniform vec4 color;\n"), 200)
	writeFile(t, filepath.Join(dir, "shaders", "basic.frag"), text)
	writeFile(t, filepath.Join(dir, "tiny.txt"), []byte("x"))

	bs := blobstore.NewMemoryStore()
	results, err := packFiles(ctx, bs, dir, []string{
		filepath.Join(dir, "tiny.txt"),
		filepath.Join(dir, "shaders", "basic.frag"),
	}, asset.CompressionZstd, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "shaders/basic.frag", results[0].name)
	assert.Equal(t, asset.CompressionZstd, results[0].codec)
	assert.Less(t, results[0].packed, results[0].raw)
	assert.Equal(t, "tiny.txt", results[1].name)
	assert.Equal(t, asset.CompressionNone, results[1].codec)

	b, err := bs.Open(ctx, "shaders/basic.frag")
	require.NoError(t, err)
	blob, err := blobstore.ReadAll(ctx, b)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	raw, err := asset.Unpack(blob)
	require.NoError(t, err)
	assert.Equal(t, text, raw)

	infos, err := describeBlobs(ctx, bs, "")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.True(t, infos[0].packed)
	assert.Equal(t, uint64(len(text)), infos[0].header.RawSize)
	assert.Contains(t, infos[0].String(), "zstd")
}

func TestPackFiles_OutsideBase(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "a.bin"), []byte{1})

	_, err := packFiles(context.Background(), blobstore.NewMemoryStore(), dir, []string{filepath.Join(other, "a.bin")}, asset.CompressionLZ4, 1)
	require.Error(t, err)
}

func TestDescribeBlobs_Raw(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	require.NoError(t, bs.Put(ctx, "raw.bin", []byte{1, 2, 3}))

	infos, err := describeBlobs(ctx, bs, "raw")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.False(t, infos[0].packed)
	assert.Equal(t, int64(3), infos[0].size)
	assert.Contains(t, infos[0].String(), "raw")
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()

	blob, err := asset.Pack(bytes.Repeat([]byte("ab"), 1000), asset.CompressionLZ4)
	require.NoError(t, err)
	good := filepath.Join(dir, "good.pak")
	writeFile(t, good, blob)
	require.NoError(t, inspectFile(good))

	bad := append([]byte(nil), blob...)
	bad[len(bad)-1] ^= 0xff
	corrupt := filepath.Join(dir, "bad.pak")
	writeFile(t, corrupt, bad)
	require.ErrorIs(t, inspectFile(corrupt), asset.ErrCorrupt)
}
