// Package store implements the chunked object store.
//
// A Store keeps objects of one type densely in fixed-size chunks reserved from
// an arena and indexes them by identifier. Elements are addressed by a logical
// index 0..Len()-1 that maps onto (chunk, slot) by division against the
// objects-per-chunk count, so iteration is a tight loop over Element(i).
//
// # Index
//
// The hash index has one slot per bucket: Insert overwrites whatever the
// bucket of the new identifier held. Find consults the bucket first and falls
// back to a linear scan of all elements when the bucket points elsewhere, so
// lookups are always correct while the index stays one word per bucket.
//
// # Erase
//
// Erase moves the last element into the erased position (swap-removal) and
// returns the last chunk to the arena as soon as it becomes empty. Pointers
// returned by Insert, Find and Element are therefore only valid until the next
// Erase or Close.
//
// # Memory Layout
//
// The chunk table and the hash index are pointer-free and live inside arena
// memory. Slots may hold Go pointers (handlers, slices), so each chunk's slots
// live in a GC-visible slice whose footprint is reserved from the arena.
//
// A Store is not safe for concurrent use.
package store
