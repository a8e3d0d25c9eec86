package hash

import "github.com/cespare/xxhash/v2"

// Identifier returns the 64-bit hash of raw identifier bytes.
func Identifier(raw []byte) uint64 {
	return xxhash.Sum64(raw)
}

// Mask returns the bucket index of h in a power-of-two table of size buckets.
func Mask(h uint64, buckets int) int {
	return int(h & uint64(buckets-1))
}
