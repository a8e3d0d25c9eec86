// Package hash provides the two hashes the engine relies on.
//
// # Identifier Hash
//
// Identifier hashes every 32-byte identifier with xxhash64. It is fast and
// non-cryptographic; the object store masks it down to a bucket index and
// tolerates collisions through its linear-scan fallback.
//
// # CRC32-Castagnoli (CRC32C)
//
// Packed asset blobs carry a CRC32C of their stored payload, and S3 uploads
// send one as the object checksum. Go's crc32
// package uses the SSE4.2 / ARM CRC instructions when available.
//
//	sum := hash.CRC32C(payload)
package hash
