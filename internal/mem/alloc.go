package mem

import (
	"unsafe"
)

// DefaultAlignment is the cache line size assumed when no alignment is given.
const DefaultAlignment = 64

// AllocAligned allocates a zeroed byte slice of size bytes whose first byte
// sits at an address divisible by alignment. alignment must be a power of
// two; non-positive values select DefaultAlignment.
//
// The returned slice keeps the whole over-allocated buffer alive.
func AllocAligned(size, alignment int) []byte {
	if size <= 0 {
		return nil
	}
	if alignment <= 0 {
		alignment = DefaultAlignment
	}

	buf := make([]byte, size+alignment)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // address arithmetic only
	mask := uintptr(alignment - 1)
	offset := (uintptr(alignment) - addr&mask) & mask

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// IsAligned reports whether b starts at an address divisible by alignment.
func IsAligned(b []byte, alignment int) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%uintptr(alignment) == 0 //nolint:gosec // address arithmetic only
}
