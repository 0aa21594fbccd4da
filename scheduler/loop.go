package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Loop drains deferred tasks on a dedicated goroutine. Defer never blocks:
// the queue is unbounded, so a producer that outruns the loop grows memory.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	closed atomic.Int32
	ran    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop starts a Loop bound to ctx. Cancelling ctx stops the loop; queued
// tasks that have not started are discarded.
func NewLoop(ctx context.Context) *Loop {
	loopCtx, cancel := context.WithCancel(ctx)

	l := &Loop{
		wake:   make(chan struct{}, 1),
		ctx:    loopCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go l.run()

	return l
}

func (l *Loop) Defer(task func()) error {
	if l.closed.Load() == 1 || l.ctx.Err() != nil {
		return ErrClosed
	}

	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return nil
}

func (l *Loop) Go(fn func()) {
	go fn()
}

// Pending returns the number of queued tasks that have not started.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Executed returns the number of tasks run so far.
func (l *Loop) Executed() int64 {
	return l.ran.Load()
}

// Close stops the loop and waits up to timeout for the running task to
// finish. A task cannot wait for itself: called from inside a task, Close
// must be given a non-positive timeout, which stops the loop without waiting.
func (l *Loop) Close(timeout time.Duration) error {
	if !l.closed.CompareAndSwap(0, 1) {
		return nil
	}
	l.cancel()

	if timeout <= 0 {
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("scheduler shutdown timeout after %v", timeout)
	}
}

// Done is closed when the loop goroutine exits.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		task, ok := l.next()
		if !ok {
			select {
			case <-l.wake:
				continue
			case <-l.ctx.Done():
				return
			}
		}

		if l.ctx.Err() != nil {
			return
		}
		task()
		l.ran.Add(1)
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}
