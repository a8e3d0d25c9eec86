// Package arena implements the engine's fixed-capacity memory arena.
//
// An Arena owns one contiguous block of bytes sized once at start-up. Every
// subsystem carves its storage out of that block through Allocate and returns
// it through Free; the arena never grows. Allocations are identified by an
// Addr, the byte offset of the allocation inside the block.
//
// # Allocation Records
//
// The arena keeps an ordered table of allocation records (address, requested
// size, reserved size, free flag). Allocate reuses the first free record that
// is large enough, splitting off the unused remainder as a new free record,
// and otherwise appends a record at the tail of the block. Free merges a
// released record with free neighbours so fragmentation is recovered as soon
// as adjacent allocations die.
//
// # Failure Policy
//
// Running out of bytes or out of allocation records is reported as
// ErrOutOfMemory. Freeing an unknown address returns false and is logged; the
// arena state is left untouched.
//
// # Typed Views
//
// Slice and AllocSlice lay pointer-free values over arena bytes:
//
//	addr, buckets, err := arena.AllocSlice[bucket](a, 512)
//
// Values containing Go pointers must not live in arena memory: the garbage
// collector does not scan it.
//
// # Concurrency
//
// An Arena is not safe for concurrent use. All access is expected from the
// simulation goroutine; callers that share an arena with workers must
// serialize access themselves.
package arena
