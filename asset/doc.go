// Package asset loads blobs from a blobstore.BlobStore into arena memory.
//
// A Loader reads a named blob, copies it into a fresh arena allocation and
// wraps the allocation in a File. Files are arena objects: each carries an
// identifier from the shared registry and must be returned with Unload.
//
//	loader := asset.NewLoader(a, reg, blobstore.NewLocalStore("assets"))
//	f, err := loader.Load(ctx, "shaders/basic.vert", true)
//	...
//	defer loader.Unload(f)
//
// # Packed Blobs
//
// Blobs produced by Pack start with a 32-byte header:
//
//	magic "TPAK" | version u8 | compression u8 | reserved u16
//	raw size u64 | payload size u64 | payload CRC32C u32 | reserved u32
//
// The payload is verified before it is decoded straight into arena memory
// with LZ4 block or Zstandard decompression. Any other blob is loaded as is.
//
// # Concurrency
//
// A Loader shares its arena's single-owner model: Load, LoadAll and Unload
// must be called from the goroutine that owns the arena. LoadAll fetches blobs
// in parallel but places them into the arena sequentially on the caller's
// goroutine.
package asset
