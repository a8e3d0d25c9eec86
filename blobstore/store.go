package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for blob names that are empty or escape the store root.
var ErrInvalidName = errors.New("blobstore: invalid blob name")

// BlobStore is an abstraction for reading and writing immutable blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes at offset off. It returns io.EOF when fewer
	// bytes are available.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	io.Closer
}

// Mappable is an optional interface for Blobs already resident in memory.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed and must not be modified.
	Bytes() ([]byte, error)
}

// ReadAll returns a copy of the blob's content.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), data...), nil
	}

	buf := make([]byte, b.Size())
	if err := ReadInto(ctx, b, buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadInto fills dst from the blob starting at off.
func ReadInto(ctx context.Context, b Blob, dst []byte, off int64) error {
	if len(dst) == 0 {
		return nil
	}
	if off < 0 || off+int64(len(dst)) > b.Size() {
		return fmt.Errorf("blobstore: read [%d,%d) beyond blob size %d", off, off+int64(len(dst)), b.Size())
	}

	if m, ok := b.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return err
		}
		copy(dst, data[off:])
		return nil
	}

	n, err := b.ReadAt(ctx, dst, off)
	if n == len(dst) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func readAtSlice(ctx context.Context, data, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
