package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

// Buffer adapts a Stream subscription to a bounded Go channel. Values that
// arrive while the buffer is full are dropped and counted, so a slow reader
// never stalls the publisher.
type Buffer[T any] struct {
	channel    chan T
	bufferSize int

	mu      sync.Mutex
	closed  bool
	dropped atomic.Int64
	errs    chan error

	sub  *Subscription
	stop func() bool
}

// Watch subscribes to s and buffers up to bufferSize values. The buffer
// closes when ctx is done or Close is called.
func Watch[T any](ctx context.Context, s *Stream[T], bufferSize int) *Buffer[T] {
	b := &Buffer[T]{
		channel:    make(chan T, bufferSize),
		bufferSize: bufferSize,
		errs:       make(chan error, 1),
	}

	b.sub = s.Subscribe(Observer[T]{
		Value: b.trySend,
		Error: b.tryFail,
	})

	stop := context.AfterFunc(ctx, b.Close)
	b.mu.Lock()
	b.stop = stop
	b.mu.Unlock()

	return b
}

// C returns the receive side of the buffer.
func (b *Buffer[T]) C() <-chan T {
	return b.channel
}

// Errors returns the most recent undelivered stream error, if any.
func (b *Buffer[T]) Errors() <-chan error {
	return b.errs
}

func (b *Buffer[T]) Receive(ctx context.Context) (T, error) {
	select {
	case message, ok := <-b.channel:
		if !ok {
			var zero T
			return zero, context.Canceled
		}
		return message, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (b *Buffer[T]) TryReceive() (T, bool) {
	select {
	case message, ok := <-b.channel:
		return message, ok
	default:
		var zero T
		return zero, false
	}
}

// Close unsubscribes and closes the channel.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	stop := b.stop
	b.mu.Unlock()
	if stop != nil {
		stop()
	}
	b.sub.Unsubscribe()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.channel)
}

func (b *Buffer[T]) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Buffer[T]) BufferSize() int {
	return b.bufferSize
}

func (b *Buffer[T]) QueueLength() int {
	return len(b.channel)
}

// Dropped returns the number of values discarded because the buffer was full.
func (b *Buffer[T]) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Buffer[T]) trySend(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	select {
	case b.channel <- v:
	default:
		b.dropped.Add(1)
	}
}

func (b *Buffer[T]) tryFail(err error) {
	select {
	case b.errs <- err:
	default:
	}
}
