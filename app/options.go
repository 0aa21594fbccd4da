package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/sunshine/history"
	"github.com/tailored-agentic-units/sunshine/observability"
	"github.com/tailored-agentic-units/sunshine/scheduler"
)

// Option configures a Session. Options passed to NewSession are applied
// after the config-created defaults and replace them.
type Option func(*settings)

type settings struct {
	ctx       context.Context
	name      string
	scheduler scheduler.Scheduler
	observer  observability.Observer
	tracer    trace.Tracer
	store     history.Store
	ownsStore bool
	onError   func(error)
}

func defaultSettings() settings {
	return settings{
		ctx:      context.Background(),
		name:     "sunshine",
		observer: observability.NoOpObserver{},
		tracer:   observability.Tracer(),
	}
}

// WithContext sets the parent context of the session. Asynchronous updates
// receive a context derived from it that is cancelled by Close.
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithName labels the session in observer events.
func WithName(name string) Option {
	return func(s *settings) { s.name = name }
}

// WithScheduler replaces the session-owned Loop. The caller keeps ownership
// of sched; Close does not stop it.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(s *settings) { s.scheduler = sched }
}

// WithObserver overrides the default observer.
func WithObserver(o observability.Observer) Option {
	return func(s *settings) { s.observer = o }
}

// AddObserver reports session events to o as well as to the observer chosen
// so far. A later WithObserver or WithLogger replaces both.
func AddObserver(o observability.Observer) Option {
	return func(s *settings) { s.observer = observability.NewMultiObserver(s.observer, o) }
}

// WithLogger reports session events to logger through a SlogObserver.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.observer = observability.NewSlogObserver(logger) }
}

// WithTracer overrides the tracer transitions are recorded with.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) { s.tracer = t }
}

// WithHistory records every committed state in store. The caller keeps
// ownership of store.
func WithHistory(store history.Store) Option {
	return func(s *settings) {
		s.store = store
		s.ownsStore = false
	}
}

// WithErrorHandler receives every *TransitionError in addition to the
// observer.
func WithErrorHandler(fn func(error)) Option {
	return func(s *settings) { s.onError = fn }
}
