// Package worker provides a fixed-size pool of goroutines draining a single
// FIFO task queue.
//
// The pool can be paused and resumed between task pickups: a paused pool lets
// running tasks finish but starts no new ones, and idle workers sleep instead
// of spinning. Stop drains every task already queued, even while paused, and
// waits for the workers to exit; tasks submitted after Stop are rejected with
// ErrStopped.
//
// A panicking task is recovered and logged; the worker that ran it keeps
// serving the queue.
package worker
