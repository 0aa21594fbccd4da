package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/sunshine/event"
	"github.com/tailored-agentic-units/sunshine/history"
	"github.com/tailored-agentic-units/sunshine/observability"
	"github.com/tailored-agentic-units/sunshine/scheduler"
	"github.com/tailored-agentic-units/sunshine/stream"
)

const spanTransition = "sunshine.transition"

// Session is a running App. It admits events through one serialized queue
// and commits exactly one state per processed event.
type Session[S any] struct {
	id   string
	name string
	root *node[S]

	sched scheduler.Scheduler
	loop  *scheduler.Loop

	observer  observability.Observer
	tracer    trace.Tracer
	store     history.Store
	ownsStore bool
	onError   func(error)

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	current S
	seq     uint64

	states  *stream.Stream[S]
	events  *stream.Stream[event.Event]
	metrics *Metrics

	closed atomic.Bool
}

// Run starts a Session from the App. Without WithScheduler the session owns
// a Loop and should be closed when no longer needed.
func (a App[S]) Run(opts ...Option) *Session[S] {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return start(a, cfg)
}

// NewSession starts a Session configured from cfg, or DefaultConfig when cfg
// is nil: the observer and history store are resolved by name. Options are
// applied afterwards and override the config-created defaults.
func NewSession[S any](a App[S], cfg *Config, opts ...Option) (*Session[S], error) {
	if cfg == nil {
		d := DefaultConfig()
		cfg = &d
	}

	o := defaultSettings()

	if cfg.Name != "" {
		o.name = cfg.Name
	}

	if cfg.Observer != "" {
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		o.observer = obs
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	if store != nil {
		o.store = store
		o.ownsStore = true
	}

	for _, opt := range opts {
		opt(&o)
	}

	if store != nil && o.store != store {
		store.Close()
	}

	return start(a, o), nil
}

func start[S any](a App[S], cfg settings) *Session[S] {
	ctx, cancel := context.WithCancel(cfg.ctx)

	s := &Session[S]{
		id:        uuid.Must(uuid.NewV7()).String(),
		name:      cfg.name,
		root:      compile(a, asyncHandler[S]()),
		sched:     cfg.scheduler,
		observer:  cfg.observer,
		tracer:    cfg.tracer,
		store:     cfg.store,
		ownsStore: cfg.ownsStore,
		onError:   cfg.onError,
		ctx:       ctx,
		cancel:    cancel,
		current:   a.initial,
		states:    stream.Seeded(a.initial),
		events:    stream.New[event.Event](),
		metrics:   NewMetrics(),
	}

	if s.sched == nil {
		s.loop = scheduler.NewLoop(ctx)
		s.sched = s.loop
	}

	s.record(ctx, 0, nil, a.initial)

	s.observe(ctx, EventSessionStart, observability.LevelInfo, map[string]any{
		"history": s.store != nil,
	})

	return s
}

// ID returns the session's UUIDv7.
func (s *Session[S]) ID() string {
	return s.id
}

func (s *Session[S]) Name() string {
	return s.name
}

// CurrentState returns the latest committed state. Safe to call from any
// goroutine, including state subscribers.
func (s *Session[S]) CurrentState() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// States publishes every committed state. Subscribers that attach before the
// first commit also receive the initial state. Failed asynchronous updates
// arrive as *AsyncError on the error channel.
func (s *Session[S]) States() *stream.Stream[S] {
	return s.states
}

// Events publishes every event as its turn starts, including the internal
// KindAsyncUpdate events.
func (s *Session[S]) Events() *stream.Stream[event.Event] {
	return s.events
}

func (s *Session[S]) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Emit queues e behind every previously admitted event. It never processes e
// before returning, even when called from a subscriber or a reducer.
func (s *Session[S]) Emit(e event.Event) error {
	if event.KindOf(e) == nil {
		return ErrNilEvent
	}
	return s.admit(e)
}

// Close stops admitting events. A session-owned loop is stopped, waiting up
// to timeout for the running transition; queued events are discarded.
// Pending asynchronous updates see their context cancelled.
//
// Subscribers, reducers and error handlers run inside the transition, so
// they must pass a non-positive timeout: Close then stops the loop without
// waiting and the transition finishes normally.
func (s *Session[S]) Close(timeout time.Duration) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if s.loop != nil {
		if err := s.loop.Close(timeout); err != nil {
			errs = append(errs, err)
		}
	}
	s.cancel()

	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close history store: %w", err))
		}
	}

	s.observe(context.Background(), EventSessionClose, observability.LevelInfo, map[string]any{
		"transitions": s.metrics.Snapshot().Transitions,
	})

	return errors.Join(errs...)
}

func (s *Session[S]) admit(e event.Event) error {
	if s.closed.Load() {
		s.drop(e, ErrSessionClosed)
		return ErrSessionClosed
	}

	if err := s.sched.Defer(func() { s.process(e) }); err != nil {
		s.drop(e, err)
		return fmt.Errorf("%w: %w", ErrSessionClosed, err)
	}
	return nil
}

func (s *Session[S]) drop(e event.Event, reason error) {
	s.metrics.RecordDropped(1)
	s.observe(s.ctx, EventDropped, observability.LevelWarning, map[string]any{
		"kind":   event.KindOf(e).Name(),
		"reason": reason.Error(),
	})
}

// process runs one turn of the serialized loop.
func (s *Session[S]) process(e event.Event) {
	if s.closed.Load() {
		s.drop(e, ErrSessionClosed)
		return
	}

	s.metrics.RecordAdmitted(1)
	s.events.Publish(e)

	seq := s.seq + 1
	kind := e.Kind()

	ctx, span := s.tracer.Start(s.ctx, spanTransition, trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("event.kind", kind.Name()),
		attribute.Int64("transition.seq", int64(seq)),
	))
	defer span.End()

	s.observe(ctx, EventAdmit, observability.LevelVerbose, map[string]any{
		"kind": kind.Name(),
		"seq":  seq,
	})

	began := time.Now()
	next, fx, err := s.transition(s.CurrentState(), e)
	if err != nil {
		s.fail(ctx, span, &TransitionError{Seq: seq, Event: e, Err: err})
		return
	}

	s.seq = seq
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.record(ctx, seq, kind, next)

	for _, follow := range fx.events {
		s.admit(follow)
	}
	for _, pending := range fx.async {
		s.schedule(ctx, kind, pending)
	}

	s.metrics.RecordTransition(1)
	s.observe(ctx, EventTransitionComplete, observability.LevelVerbose, map[string]any{
		"kind":        kind.Name(),
		"seq":         seq,
		"follow_ups":  len(fx.events),
		"async":       len(fx.async),
		"duration_ms": time.Since(began).Milliseconds(),
	})

	s.states.Publish(next)
}

// transition folds e over state. A reducer panic is reported like a reducer
// error.
func (s *Session[S]) transition(state S, e event.Event) (next S, fx *effects, err error) {
	fx = &effects{}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrReducerPanic, r)
		}
	}()

	next, err = s.root.dispatch(state, e, fx, liftRoot[S])
	return next, fx, err
}

func (s *Session[S]) fail(ctx context.Context, span trace.Span, err *TransitionError) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.metrics.RecordTransitionFailure(1)
	s.observe(ctx, EventTransitionFailed, observability.LevelError, map[string]any{
		"kind":  event.KindOf(err.Event).Name(),
		"seq":   err.Seq,
		"error": err.Err.Error(),
	})

	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Session[S]) record(ctx context.Context, seq uint64, kind *event.Kind, state S) {
	if s.store == nil {
		return
	}

	rec, err := history.NewRecord(s.id, seq, kind.Name(), state)
	if err == nil {
		err = s.store.Append(ctx, rec)
	}
	if err != nil {
		s.observe(ctx, EventHistoryFailed, observability.LevelWarning, map[string]any{
			"seq":   seq,
			"error": err.Error(),
		})
	}
}

func (s *Session[S]) observe(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	data["session_id"] = s.id
	data["session"] = s.name

	s.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "app.Session",
		Data:      data,
	})
}
