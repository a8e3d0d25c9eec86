package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/triton/blobstore"
)

// Store keeps asset blobs in one bucket, optionally below a key prefix.
type Store struct {
	client   Client
	bucket   string
	prefix   string // "" or ends in "/"
	upload   UploadConfig
	uploader *manager.Uploader
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix stores blobs below prefix. Leading and trailing slashes are
// ignored, so "levels" and "/levels/" are equivalent.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if p := strings.Trim(prefix, "/"); p != "" {
			s.prefix = p + "/"
		} else {
			s.prefix = ""
		}
	}
}

// WithUploadConfig overrides DefaultUploadConfig.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(s *Store) {
		s.upload = cfg
	}
}

// NewStore returns a store writing to bucket through client.
func NewStore(client Client, bucket string, opts ...Option) *Store {
	s := &Store{
		client: client,
		bucket: bucket,
		upload: DefaultUploadConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.uploader = newUploader(client, s.upload)
	return s
}

func (s *Store) key(name string) string { return s.prefix + name }

// Open sends a HEAD request for the size. Content is fetched lazily by
// ReadAt.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap(key, err)
	}
	return s.blob(key, aws.ToInt64(head.ContentLength)), nil
}

func (s *Store) blob(key string, size int64) *blobstore.RemoteBlob {
	return blobstore.NewRemoteBlob(key, size, func(ctx context.Context, first, last int64) (io.ReadCloser, error) {
		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", first, last)),
		})
		if err != nil {
			return nil, s.wrap(key, err)
		}
		return resp.Body, nil
	})
}

// Put uploads data. Blobs no larger than one part go out as a single
// PutObject; larger blobs are split by the multipart uploader.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)

	if int64(len(data)) <= s.upload.PartSize {
		return putWithChecksum(ctx, s.client, s.bucket, key, data, s.upload.EnableChecksum)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3: multipart upload %s: %w", key, err)
	}
	return nil
}

// Delete removes a blob. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List pages through the bucket and returns the sorted blob names starting
// with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})

	var names []string
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if name, ok := strings.CutPrefix(aws.ToString(obj.Key), s.prefix); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

// wrap maps missing keys to blobstore.ErrNotFound.
func (s *Store) wrap(key string, err error) error {
	var (
		nf  *types.NotFound
		nsk *types.NoSuchKey
	)
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return fmt.Errorf("s3: %s/%s: %w", s.bucket, key, blobstore.ErrNotFound)
	}
	return err
}
