package store

import (
	"fmt"
	"math/bits"
)

const (
	// DefaultChunkByteSize is the default byte size of one chunk.
	DefaultChunkByteSize = 16 * 1024
	// DefaultMaxChunkCount is the default chunk ceiling.
	DefaultMaxChunkCount = 256
	// DefaultBucketCount is the default number of hash buckets.
	DefaultBucketCount = 512
)

// Config sizes a store. Zero fields select the defaults.
type Config struct {
	// ChunkByteSize is the arena reservation per chunk; it must hold at least
	// one object.
	ChunkByteSize int
	// MaxChunkCount is the hard ceiling on chunks.
	MaxChunkCount int
	// BucketCount is the number of hash buckets, rounded up to a power of two.
	BucketCount int
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		ChunkByteSize: DefaultChunkByteSize,
		MaxChunkCount: DefaultMaxChunkCount,
		BucketCount:   DefaultBucketCount,
	}
}

func (c Config) normalize() (Config, error) {
	if c.ChunkByteSize < 0 || c.MaxChunkCount < 0 || c.BucketCount < 0 {
		return c, fmt.Errorf("store: negative config %+v", c)
	}
	if c.ChunkByteSize == 0 {
		c.ChunkByteSize = DefaultChunkByteSize
	}
	if c.MaxChunkCount == 0 {
		c.MaxChunkCount = DefaultMaxChunkCount
	}
	if c.BucketCount == 0 {
		c.BucketCount = DefaultBucketCount
	}
	c.BucketCount = nextPowerOfTwo(c.BucketCount)
	return c, nil
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
