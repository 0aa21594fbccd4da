package scheduler

import "sync"

// Manual queues tasks until the caller steps them. Computations started with
// Go are parked as well and run synchronously by RunBackground, so a test
// decides exactly when an asynchronous result arrives.
type Manual struct {
	mu         sync.Mutex
	queue      []func()
	background []func()
	closed     bool
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Defer(task func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.queue = append(m.queue, task)
	return nil
}

func (m *Manual) Go(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.background = append(m.background, fn)
}

// Step runs the oldest deferred task. It reports false when the queue is
// empty.
func (m *Manual) Step() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()

	task()
	return true
}

// Drain steps until the queue is empty, including tasks deferred by the tasks
// it runs. It returns the number of tasks run.
func (m *Manual) Drain() int {
	n := 0
	for m.Step() {
		n++
	}
	return n
}

// RunBackground runs every parked computation in the order it was started
// and returns how many ran. Computations started while running are left for
// the next call.
func (m *Manual) RunBackground() int {
	m.mu.Lock()
	fns := m.background
	m.background = nil
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Settle alternates Drain and RunBackground until nothing is left.
func (m *Manual) Settle() int {
	n := 0
	for {
		steps := m.Drain()
		bg := m.RunBackground()
		n += steps
		if steps == 0 && bg == 0 {
			return n
		}
	}
}

// Pending returns the number of deferred tasks waiting to run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Parked returns the number of computations waiting for RunBackground.
func (m *Manual) Parked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.background)
}

// Close rejects further Defer calls. Queued tasks can still be stepped.
func (m *Manual) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
