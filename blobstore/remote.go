package blobstore

import (
	"context"
	"errors"
	"io"
)

// RangeReader opens the inclusive byte range [first, last] of a remote object.
type RangeReader func(ctx context.Context, first, last int64) (io.ReadCloser, error)

// RemoteBlob is a Blob served by ranged requests against object storage.
// Every ReadAt issues one request for the bytes of p that exist, so a loader
// reading in blocks transfers exactly what it copies.
type RemoteBlob struct {
	name string
	size int64
	open RangeReader
}

// NewRemoteBlob returns a blob of size bytes read through open.
func NewRemoteBlob(name string, size int64, open RangeReader) *RemoteBlob {
	return &RemoteBlob{name: name, size: size, open: open}
}

// Name returns the object key the blob was opened with.
func (b *RemoteBlob) Name() string { return b.name }

func (b *RemoteBlob) Size() int64 { return b.size }

func (b *RemoteBlob) Close() error { return nil }

func (b *RemoteBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}

	last := min(off+int64(len(p)), b.size) - 1
	rc, err := b.open(ctx, off, last)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	n, err := io.ReadFull(rc, p[:last-off+1])
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
