package worker

import (
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

var (
	// ErrStopped is returned when submitting to a stopped pool.
	ErrStopped = errors.New("worker: pool stopped")
	// ErrNilTask is returned when submitting a nil task.
	ErrNilTask = errors.New("worker: nil task")
)

// Task is a unit of work.
type Task func()

// Stats is a point-in-time view of a pool.
type Stats struct {
	Workers  int
	Pending  int
	Running  int
	Paused   bool
	Executed uint64
	Panics   uint64
}

// Pool is a fixed-size worker pool.
type Pool struct {
	mu      sync.Mutex
	work    *sync.Cond // signalled on submit, resume and stop
	idle    *sync.Cond // broadcast when the queue is empty and nothing runs
	queue   []Task
	running int
	paused  bool
	stopped bool

	size     int
	wg       sync.WaitGroup
	executed atomic.Uint64
	panics   atomic.Uint64
	logger   *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New starts a pool of n workers. n <= 0 selects runtime.NumCPU().
func New(n int, opts ...Option) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}

	p := &Pool{
		size:   n,
		logger: slog.New(slog.DiscardHandler),
	}
	p.work = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)

	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(n)
	for i := range n {
		go p.run(i)
	}

	return p
}

// Submit enqueues t.
func (p *Pool) Submit(t Task) error {
	if t == nil {
		return ErrNilTask
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	p.queue = append(p.queue, t)
	p.work.Signal()
	return nil
}

// Pause stops workers from picking up new tasks. Running tasks complete.
func (p *Pool) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// Resume lets workers pick up tasks again.
func (p *Pool) Resume() {
	p.mu.Lock()
	p.paused = false
	p.work.Broadcast()
	p.mu.Unlock()
}

// Paused reports whether the pool is paused.
func (p *Pool) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Pending returns the number of queued tasks not yet picked up.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Wait blocks until the queue is empty and no task is running.
// On a paused pool with queued tasks it blocks until Resume or Stop.
func (p *Pool) Wait() {
	p.mu.Lock()
	for len(p.queue) > 0 || p.running > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Stop rejects further submissions, lets the workers drain the queue and
// waits for them to exit. Stop is idempotent.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		p.work.Broadcast()
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns the current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers:  p.size,
		Pending:  len(p.queue),
		Running:  p.running,
		Paused:   p.paused,
		Executed: p.executed.Load(),
		Panics:   p.panics.Load(),
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.stopped && (p.paused || len(p.queue) == 0) {
			p.work.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.running++
		p.mu.Unlock()

		p.execute(id, t)

		p.mu.Lock()
		p.running--
		if p.running == 0 && len(p.queue) == 0 {
			p.idle.Broadcast()
		}
		p.mu.Unlock()
	}
}

func (p *Pool) execute(id int, t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.Error("worker: task panicked",
				"worker", id,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
		p.executed.Add(1)
	}()

	t()
}
