// Package scheduler provides the serialized task queues that admit events into
// a session.
//
// A Scheduler runs deferred tasks one at a time in FIFO order and never runs a
// task synchronously inside Defer. Pending computations are started with Go
// and are expected to hand their results back through Defer.
//
// Loop is the production scheduler: a single goroutine drains an unbounded
// queue fed from any number of goroutines. Manual runs nothing until the
// caller steps it, which makes ordering in tests deterministic.
package scheduler

import "errors"

// ErrClosed is returned by Defer once the scheduler has been closed.
var ErrClosed = errors.New("scheduler closed")

// Scheduler serializes deferred tasks.
type Scheduler interface {
	// Defer queues task behind every previously deferred task. It never
	// runs task before returning.
	Defer(task func()) error
	// Go starts fn outside the serialized queue.
	Go(fn func())
}
