package asset

import (
	"unsafe"

	"github.com/hupe1980/triton/arena"
	"github.com/hupe1980/triton/object"
)

// File is a loaded blob whose bytes live in arena memory.
type File struct {
	object.Base

	name   string
	data   arena.Addr
	buf    []byte
	size   int
	asText bool
}

// Name returns the blob name the file was loaded from.
func (f *File) Name() string { return f.name }

// Len returns the content length, excluding the string terminator.
func (f *File) Len() int { return f.size }

// IsText reports whether the file was loaded with a trailing zero byte.
func (f *File) IsText() bool { return f.asText }

// Bytes returns the content. The slice aliases arena memory and is invalid
// after Unload.
func (f *File) Bytes() []byte {
	if f.buf == nil {
		return nil
	}
	return f.buf[:f.size:f.size]
}

// Terminated returns the content including the trailing zero byte of a text
// file, or the plain content otherwise.
func (f *File) Terminated() []byte {
	return f.buf
}

// String returns the content as a string without copying. The string is
// invalid after Unload.
func (f *File) String() string {
	if f.size == 0 {
		return ""
	}
	return unsafe.String(&f.buf[0], f.size) //nolint:gosec // aliases arena bytes until Unload
}

// Release implements object.Releaser.
func (f *File) Release() {
	f.buf = nil
	f.size = 0
}
