package arena

import (
	"fmt"
	"unsafe"
)

// Slice lays n values of T over the live allocation at addr, starting at
// the first offset aligned for T.
//
// T must not contain Go pointers. The returned slice aliases arena memory and
// is invalid after the allocation is freed or the arena is closed.
func Slice[T any](a *Arena, addr Addr, n int) ([]T, error) {
	var zero T

	if n <= 0 {
		return nil, fmt.Errorf("%w: slice length %d", ErrInvalidSize, n)
	}

	b := a.Bytes(addr)
	need := SizeOf[T](n)
	if b == nil || len(b) < need {
		return nil, fmt.Errorf("%w: %d x %d bytes do not fit allocation %d", ErrInvalidSize, n, unsafe.Sizeof(zero), addr)
	}

	base := unsafe.Pointer(unsafe.SliceData(b)) //nolint:gosec // unsafe is required for arena implementation
	align := unsafe.Alignof(zero)
	pad := int((align - uintptr(base)%align) % align)
	if pad+need > len(b) {
		return nil, fmt.Errorf("%w: allocation %d has no room to align %T", ErrMisaligned, addr, zero)
	}

	return unsafe.Slice((*T)(unsafe.Add(base, pad)), n), nil
}

// AllocSlice allocates room for n values of T and returns the address and a
// zeroed view of the allocation. When the arena alignment is weaker than
// T's, the allocation carries padding so Slice can align the view.
func AllocSlice[T any](a *Arena, n int) (Addr, []T, error) {
	if n <= 0 {
		return 0, nil, fmt.Errorf("%w: slice length %d", ErrInvalidSize, n)
	}

	size := SizeOf[T](n)
	if align := alignOf[T](); a.Alignment()%align != 0 {
		size += align - 1
	}

	addr, err := a.Allocate(size)
	if err != nil {
		return 0, nil, err
	}

	s, err := Slice[T](a, addr, n)
	if err != nil {
		a.Free(addr)
		return 0, nil, err
	}
	clear(s)

	return addr, s, nil
}

func alignOf[T any]() int {
	var zero T
	return int(unsafe.Alignof(zero))
}

// SizeOf returns the byte footprint of n values of T.
func SizeOf[T any](n int) int {
	var zero T
	return int(unsafe.Sizeof(zero)) * n
}
