// Package resource implements the engine-wide resource controller.
//
// The Controller governs three resource types:
//
//   - Memory: a byte budget that arenas reserve their block from
//   - Concurrency: slots for background jobs such as bulk asset loads
//   - IO: a token bucket throttling asset reads
//
// # Memory
//
// TryAcquireMemory is non-blocking and fails fast when the limit would be
// exceeded. AcquireMemory waits for memory to be released, bounded by ctx, and
// fails immediately with ErrMemoryLimitExceeded when the request is larger than
// the whole budget:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	})
//
//	a, err := arena.New(16<<20, 0, 0, arena.WithMemoryAcquirer(rc))
//
// # Background Slots
//
//	if err := rc.AcquireBackground(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBackground()
//
// # IO Rate Limiting
//
//	if err := rc.AcquireIO(ctx, len(buf)); err != nil {
//	    return err
//	}
//	reader := resource.NewRateLimitedReader(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully: they become no-ops.
package resource
