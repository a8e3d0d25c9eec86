package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hupe1980/triton/blobstore"
	"github.com/minio/minio-go/v7"
)

// Store keeps asset blobs in a MinIO bucket below an optional root prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string // "" or ends in "/"
}

// NewStore returns a store for bucket. Blob names are placed below
// rootPrefix, e.g. "levels" stores "intro.bin" as "levels/intro.bin".
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	s := &Store{client: client, bucket: bucket}
	if p := strings.Trim(rootPrefix, "/"); p != "" {
		s.prefix = p + "/"
	}
	return s
}

func (s *Store) key(name string) string { return s.prefix + name }

// Open stats the object for its size. Content is fetched lazily by ReadAt.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, s.wrap(key, err)
	}

	return blobstore.NewRemoteBlob(key, info.Size, func(ctx context.Context, first, last int64) (io.ReadCloser, error) {
		opts := minio.GetObjectOptions{}
		if err := opts.SetRange(first, last); err != nil {
			return nil, err
		}
		obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
		if err != nil {
			return nil, s.wrap(key, err)
		}
		return &object{Object: obj, store: s, key: key}, nil
	}), nil
}

// Put uploads data with a Content-MD5 header so the server rejects corrupted
// transfers.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:    "application/octet-stream",
		SendContentMd5: true,
	})
	return err
}

func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns the sorted blob names starting with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name, ok := strings.CutPrefix(obj.Key, s.prefix); ok && name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *Store) wrap(key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("minio: %s/%s: %w", s.bucket, key, blobstore.ErrNotFound)
	}
	return err
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// object defers GetObject errors to the first Read, so missing keys surface
// there.
type object struct {
	*minio.Object
	store *Store
	key   string
}

func (o *object) Read(p []byte) (int, error) {
	n, err := o.Object.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = o.store.wrap(o.key, err)
	}
	return n, err
}
