package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tailored-agentic-units/sunshine/scheduler"
)

func TestManual_DeferDoesNotRun(t *testing.T) {
	m := scheduler.NewManual()
	ran := false

	if err := m.Defer(func() { ran = true }); err != nil {
		t.Fatalf("Defer failed: %v", err)
	}
	if ran {
		t.Fatal("Defer must not run the task synchronously")
	}
	if m.Pending() != 1 {
		t.Errorf("got %d pending, want 1", m.Pending())
	}

	if !m.Step() {
		t.Fatal("Step should run the queued task")
	}
	if !ran {
		t.Error("task did not run")
	}
	if m.Step() {
		t.Error("Step on empty queue should report false")
	}
}

func TestManual_DrainRunsNestedDefersInOrder(t *testing.T) {
	m := scheduler.NewManual()
	var order []int

	m.Defer(func() {
		order = append(order, 1)
		m.Defer(func() { order = append(order, 3) })
	})
	m.Defer(func() { order = append(order, 2) })

	if n := m.Drain(); n != 3 {
		t.Errorf("Drain ran %d tasks, want 3", n)
	}

	want := []int{1, 2, 3}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got order %v, want %v", order, want)
		}
	}
}

func TestManual_BackgroundParkedUntilRun(t *testing.T) {
	m := scheduler.NewManual()
	var got []string

	m.Go(func() {
		got = append(got, "bg")
		m.Defer(func() { got = append(got, "rejoin") })
	})

	if m.Drain() != 0 {
		t.Error("Drain should not run background computations")
	}
	if m.Parked() != 1 {
		t.Fatalf("got %d parked, want 1", m.Parked())
	}

	if n := m.Settle(); n != 1 {
		t.Errorf("Settle ran %d deferred tasks, want 1", n)
	}
	if len(got) != 2 || got[0] != "bg" || got[1] != "rejoin" {
		t.Errorf("got %v, want [bg rejoin]", got)
	}
}

func TestManual_Close(t *testing.T) {
	m := scheduler.NewManual()
	m.Close()

	if err := m.Defer(func() {}); !errors.Is(err, scheduler.ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestLoop_RunsInFIFOOrder(t *testing.T) {
	l := scheduler.NewLoop(context.Background())
	defer l.Close(time.Second)

	const n = 100
	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	wg.Add(n)

	for i := range n {
		err := l.Defer(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("Defer failed: %v", err)
		}
	}

	wg.Wait()

	for i := range n {
		if order[i] != i {
			t.Fatalf("task %d ran at position %d", order[i], i)
		}
	}
	if l.Executed() != n {
		t.Errorf("got %d executed, want %d", l.Executed(), n)
	}
}

func TestLoop_NeverConcurrent(t *testing.T) {
	l := scheduler.NewLoop(context.Background())
	defer l.Close(time.Second)

	const producers = 10
	const perProducer = 50

	var (
		active  int
		maxSeen int
		mu      sync.Mutex
		wg      sync.WaitGroup
	)
	wg.Add(producers * perProducer)

	for range producers {
		go func() {
			for range perProducer {
				l.Defer(func() {
					defer wg.Done()
					mu.Lock()
					active++
					if active > maxSeen {
						maxSeen = active
					}
					mu.Unlock()

					mu.Lock()
					active--
					mu.Unlock()
				})
			}
		}()
	}

	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("observed %d concurrent tasks, want 1", maxSeen)
	}
}

func TestLoop_CloseRejectsDefer(t *testing.T) {
	l := scheduler.NewLoop(context.Background())

	if err := l.Close(time.Second); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := l.Defer(func() {}); !errors.Is(err, scheduler.ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}

	select {
	case <-l.Done():
	default:
		t.Error("loop goroutine should have exited")
	}
}

func TestLoop_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := scheduler.NewLoop(ctx)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
}

func TestLoop_CloseFromTask(t *testing.T) {
	l := scheduler.NewLoop(context.Background())

	result := make(chan error, 1)
	l.Defer(func() {
		result <- l.Close(0)
	})

	select {
	case err := <-result:
		if err != nil {
			t.Errorf("Close failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close from a task did not return")
	}

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after Close from a task")
	}
}
