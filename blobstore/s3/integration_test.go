package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/triton/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	prefix := fmt.Sprintf("test-triton-%d/", time.Now().UnixNano())
	store := NewStore(s3.NewFromConfig(cfg), bucket, WithPrefix(prefix))

	data := make([]byte, 12*1024*1024)
	_, _ = rand.Read(data)

	require.NoError(t, store.Put(ctx, "large.bin", data))
	require.NoError(t, store.Put(ctx, "small.bin", data[:1024]))

	b, err := store.Open(ctx, "large.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), b.Size())

	buf := make([]byte, 4096)
	require.NoError(t, blobstore.ReadInto(ctx, b, buf, 9*1024*1024))
	assert.Equal(t, data[9*1024*1024:9*1024*1024+4096], buf)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"large.bin", "small.bin"}, names)

	require.NoError(t, store.Delete(ctx, "large.bin"))
	require.NoError(t, store.Delete(ctx, "small.bin"))

	_, err = store.Open(ctx, "small.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
