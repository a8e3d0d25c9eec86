package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
)

// region is a mapped range and the call that gives it back to the OS.
type region struct {
	data    []byte
	release func() error
}

// Mapping is a mapped memory region. File mappings are read-only; anonymous
// mappings are read-write and zero-filled. Close unmaps the region.
type Mapping struct {
	region
	writable bool
	closed   atomic.Bool
}

// Open maps the file at path read-only. An empty file yields an empty
// mapping with nothing to unmap.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	switch size := fi.Size(); {
	case size == 0:
		return &Mapping{}, nil
	case size < 0 || int64(int(size)) != size:
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrInvalidSize, path, size)
	default:
		r, err := mapFile(f, int(size))
		if err != nil {
			return nil, fmt.Errorf("mmap: map %s: %w", path, err)
		}
		return &Mapping{region: r}, nil
	}
}

// MapAnon maps size bytes of private anonymous memory.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	r, err := mapAnon(size)
	if err != nil {
		return nil, fmt.Errorf("mmap: map %d anonymous bytes: %w", size, err)
	}
	return &Mapping{region: r, writable: true}, nil
}

// Bytes returns the mapped bytes, or nil once the mapping is closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the mapped length, zero once closed.
func (m *Mapping) Size() int { return len(m.Bytes()) }

// Writable reports whether the mapping may be written through Bytes.
func (m *Mapping) Writable() bool { return m.writable }

// Advise passes a paging hint to the kernel. Hints are best effort; a
// platform without them accepts every hint.
func (m *Mapping) Advise(advice Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return advise(m.data, advice)
}

// Close unmaps the region. Calls after the first return nil.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	r := m.region
	m.region = region{}
	if r.release == nil {
		return nil
	}
	return r.release()
}
