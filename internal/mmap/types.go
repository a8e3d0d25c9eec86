package mmap

import "errors"

// Advice is a paging hint for a mapping.
type Advice uint8

const (
	AdviseNormal Advice = iota
	// AdviseSequential is used for blobs that are copied front to back once.
	AdviseSequential
	// AdviseRandom is used for the arena block, which is accessed by offset.
	AdviseRandom
)

var (
	// ErrClosed is returned when using a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for a negative or zero mapping size.
	ErrInvalidSize = errors.New("mmap: invalid size")
)
