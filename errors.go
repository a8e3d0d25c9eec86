package triton

import (
	"errors"
	"fmt"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/blobstore"
	"github.com/hupe1980/triton/object"
)

var (
	// ErrOutOfMemory is returned when the arena cannot satisfy an allocation.
	ErrOutOfMemory = arena.ErrOutOfMemory

	// ErrIdentifierExhausted is returned when a seed reached its ceiling.
	ErrIdentifierExhausted = object.ErrIdentifierExhausted

	// ErrInvalidFree is returned by Engine.Free for addresses that are not live.
	ErrInvalidFree = errors.New("triton: invalid free")

	// ErrNotFound is returned when an asset blob does not exist.
	ErrNotFound = blobstore.ErrNotFound

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("triton: engine closed")

	// ErrNoBlobStore is returned by asset operations on an engine without a blob store.
	ErrNoBlobStore = errors.New("triton: no blob store configured")
)

// ErrCapacity reports an allocation the arena could not satisfy.
//
// It wraps ErrOutOfMemory; the original error can be accessed via errors.Unwrap.
type ErrCapacity struct {
	Op        string
	ByteSize  int
	BytesUsed int
	Allocs    int
	MaxAllocs int
	cause     error
}

func (e *ErrCapacity) Error() string {
	return fmt.Sprintf("%s: arena capacity exhausted (%d/%d bytes, %d/%d allocations)",
		e.Op, e.BytesUsed, e.ByteSize, e.Allocs, e.MaxAllocs)
}

func (e *ErrCapacity) Unwrap() error { return e.cause }

func capacityError(op string, a *arena.Arena, err error) error {
	if err == nil || !errors.Is(err, arena.ErrOutOfMemory) {
		return err
	}
	return &ErrCapacity{
		Op:        op,
		ByteSize:  a.ByteSize(),
		BytesUsed: a.BytesUsed(),
		Allocs:    a.AllocCount(),
		MaxAllocs: a.MaxAllocs(),
		cause:     err,
	}
}
