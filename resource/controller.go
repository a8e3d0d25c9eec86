package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a request is larger than the whole
// memory budget.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds engine-wide limits.
type Config struct {
	// MemoryLimitBytes caps the bytes reserved by arenas and asset caches.
	// 0 tracks usage without a limit.
	MemoryLimitBytes int64

	// MaxBackgroundWorkers caps concurrent background jobs such as bulk
	// asset fetches. 0 means 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec caps asset read throughput. 0 means unlimited.
	IOLimitBytesPerSec int64
}

// Stats is a point-in-time view of a controller.
type Stats struct {
	MemoryLimit     int64
	MemoryUsed      int64
	BackgroundSlots int
	BackgroundBusy  int
	IOLimit         int64
	IOBytes         int64
}

// Controller enforces a Config. A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	mem     *semaphore.Weighted // nil without a limit
	memUsed atomic.Int64

	slots     *semaphore.Weighted
	slotsBusy atomic.Int64

	io      *rate.Limiter // nil without a limit
	ioBytes atomic.Int64
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	cfg.MaxBackgroundWorkers = max(cfg.MaxBackgroundWorkers, 1)

	c := &Controller{
		cfg:   cfg,
		slots: semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}
	if cfg.MemoryLimitBytes > 0 {
		c.mem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		// One second worth of tokens may be spent at once.
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// Config returns the effective limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// Stats returns current usage.
func (c *Controller) Stats() Stats {
	if c == nil {
		return Stats{BackgroundSlots: 1}
	}
	return Stats{
		MemoryLimit:     c.cfg.MemoryLimitBytes,
		MemoryUsed:      c.memUsed.Load(),
		BackgroundSlots: int(c.cfg.MaxBackgroundWorkers),
		BackgroundBusy:  int(c.slotsBusy.Load()),
		IOLimit:         c.cfg.IOLimitBytesPerSec,
		IOBytes:         c.ioBytes.Load(),
	}
}

// AcquireMemory reserves n bytes, waiting for releases until ctx is done.
func (c *Controller) AcquireMemory(ctx context.Context, n int64) error {
	if c == nil || n <= 0 {
		return nil
	}
	if c.mem != nil {
		if n > c.cfg.MemoryLimitBytes {
			return fmt.Errorf("%w: %d bytes requested, limit %d", ErrMemoryLimitExceeded, n, c.cfg.MemoryLimitBytes)
		}
		if err := c.mem.Acquire(ctx, n); err != nil {
			return err
		}
	}
	c.memUsed.Add(n)
	return nil
}

// TryAcquireMemory reserves n bytes if they fit the budget right now.
func (c *Controller) TryAcquireMemory(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}
	if c.mem != nil && !c.mem.TryAcquire(n) {
		return false
	}
	c.memUsed.Add(n)
	return true
}

// ReleaseMemory returns n reserved bytes.
func (c *Controller) ReleaseMemory(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.mem != nil {
		c.mem.Release(n)
	}
	c.memUsed.Add(-n)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireBackground takes a background slot, waiting while all are busy.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	c.slotsBusy.Add(1)
	return nil
}

// TryAcquireBackground takes a background slot if one is free.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	if !c.slots.TryAcquire(1) {
		return false
	}
	c.slotsBusy.Add(1)
	return true
}

// ReleaseBackground frees a slot taken by AcquireBackground or
// TryAcquireBackground.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.slotsBusy.Add(-1)
	c.slots.Release(1)
}

// BackgroundSlots returns the number of background slots.
func (c *Controller) BackgroundSlots() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxBackgroundWorkers)
}

// AcquireIO accounts n bytes of asset IO and waits until the limiter admits
// them. Requests above the burst are admitted in burst-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || n <= 0 {
		return nil
	}
	c.ioBytes.Add(int64(n))
	if c.io == nil {
		return nil
	}

	for burst := c.io.Burst(); n > 0; {
		step := min(n, burst)
		if err := c.io.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// IOBytes returns the bytes accounted by AcquireIO.
func (c *Controller) IOBytes() int64 {
	if c == nil {
		return 0
	}
	return c.ioBytes.Load()
}
