// Package mmap provides the memory mappings used by the arena and the local
// blob store.
//
// # Anonymous Mappings
//
// MapAnon creates a read-write anonymous mapping. The arena uses it when
// configured off-heap, so the engine's memory block lives outside the Go
// heap and is returned to the OS on Close.
//
// # File Mappings
//
// Open maps a file read-only. The local blob store reads asset files through
// it without copying them into intermediate buffers.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) and madvise(2)
//   - Windows: VirtualAlloc for anonymous memory, MapViewOfFile for files
//
// # Thread Safety
//
// Close is idempotent. Callers must not touch Bytes() after Close returns.
package mmap
