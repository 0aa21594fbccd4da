package observability

import "context"

// MultiObserver reports each session event to several observers, one after
// another on the goroutine running the transition.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver skips nil observers and flattens nested MultiObservers so
// composing options repeatedly keeps a single level of fan-out.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, obs := range observers {
		switch o := obs.(type) {
		case nil, NoOpObserver:
		case *MultiObserver:
			m.observers = append(m.observers, o.observers...)
		default:
			m.observers = append(m.observers, o)
		}
	}
	return m
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// Len returns the number of observers events are reported to.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}

// LevelFilter passes on session events at or above Min, for example only
// drops and failures when Min is LevelWarning.
type LevelFilter struct {
	Min  Level
	Next Observer
}

func (f LevelFilter) OnEvent(ctx context.Context, event Event) {
	if event.Level < f.Min || f.Next == nil {
		return
	}
	f.Next.OnEvent(ctx, event)
}
