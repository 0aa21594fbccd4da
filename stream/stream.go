// Package stream provides the push-based, multi-subscriber sequences a
// session publishes on.
//
// A Stream delivers values and errors in order, one at a time. Deliveries
// queue behind the one in progress: a Publish, Fail or Subscribe made from
// inside a callback returns immediately and its delivery runs once the
// current callback returns. A stream created with Seeded behaves like a
// property: subscribers that attach before the first Publish receive the seed,
// later subscribers only see future values.
package stream

import (
	"sync"
	"sync/atomic"
)

// Observer receives values and errors from a Stream. Either callback may be
// nil.
type Observer[T any] struct {
	Value func(T)
	Error func(error)
}

type entry[T any] struct {
	id       uint64
	observer Observer[T]
}

// Stream is safe for concurrent Subscribe, Unsubscribe and Publish.
type Stream[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	nextID  uint64

	pending    []func()
	delivering bool
	seed       T
	seeded     bool

	values atomic.Int64
	errors atomic.Int64
}

// New creates an unseeded stream.
func New[T any]() *Stream[T] {
	return &Stream[T]{}
}

// Seeded creates a stream that replays seed to subscribers until the first
// Publish.
func Seeded[T any](seed T) *Stream[T] {
	return &Stream[T]{seed: seed, seeded: true}
}

// Subscribe registers observer and returns a handle to cancel it. On a seeded
// stream the seed is delivered before any later Publish.
func (s *Stream[T]) Subscribe(observer Observer[T]) *Subscription {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, entry[T]{id: id, observer: observer})

	if s.seeded && observer.Value != nil {
		seed := s.seed
		s.pending = append(s.pending, func() {
			if s.subscribed(id) {
				observer.Value(seed)
			}
		})
	}
	s.mu.Unlock()

	s.drain()

	return &Subscription{cancel: func() { s.remove(id) }}
}

// OnValue subscribes to values only.
func (s *Stream[T]) OnValue(fn func(T)) *Subscription {
	return s.Subscribe(Observer[T]{Value: fn})
}

// OnError subscribes to errors only.
func (s *Stream[T]) OnError(fn func(error)) *Subscription {
	return s.Subscribe(Observer[T]{Error: fn})
}

// Publish delivers v to every subscriber present when its delivery starts.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	s.seeded = false
	s.pending = append(s.pending, func() {
		s.values.Add(1)
		for _, e := range s.snapshot() {
			if e.observer.Value != nil {
				e.observer.Value(v)
			}
		}
	})
	s.mu.Unlock()

	s.drain()
}

// Fail delivers err on the error channel. The stream stays open.
func (s *Stream[T]) Fail(err error) {
	s.mu.Lock()
	s.pending = append(s.pending, func() {
		s.errors.Add(1)
		for _, e := range s.snapshot() {
			if e.observer.Error != nil {
				e.observer.Error(err)
			}
		}
	})
	s.mu.Unlock()

	s.drain()
}

// drain runs queued deliveries until the queue is empty. Only one goroutine
// drains at a time; any other caller leaves its delivery to that goroutine.
func (s *Stream[T]) drain() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	s.mu.Unlock()

	finished := false
	defer func() {
		if !finished {
			s.mu.Lock()
			s.delivering = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			finished = true
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		next()
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Stream[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Published returns how many values and errors have been delivered.
func (s *Stream[T]) Published() (values, errors int64) {
	return s.values.Load(), s.errors.Load()
}

func (s *Stream[T]) snapshot() []entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entry[T], len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Stream[T]) subscribed(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

func (s *Stream[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Subscription cancels a stream subscription.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops delivery. Safe to call more than once.
func (sub *Subscription) Unsubscribe() {
	if sub == nil {
		return
	}
	sub.once.Do(sub.cancel)
}
