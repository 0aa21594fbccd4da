package app

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/sunshine/event"
	"github.com/tailored-agentic-units/sunshine/observability"
)

// KindAsyncUpdate is the kind of the event a finished AsyncUpdate re-enters
// the session with.
var KindAsyncUpdate = event.NewKind("sunshine.async-update")

// AsyncUpdateEvent carries a finished asynchronous update back through the
// session queue. Origin is the kind of the event that scheduled it.
type AsyncUpdateEvent struct {
	Origin *event.Kind
	apply  rootUpdater
}

func (AsyncUpdateEvent) Kind() *event.Kind {
	return KindAsyncUpdate
}

// asyncHandler is registered after every top-level reducer. It applies the
// carried updater to the state current at the event's turn.
func asyncHandler[S any]() Handler[S] {
	return On(KindAsyncUpdate, func(state S, e event.Event) (Result[S], error) {
		update, ok := e.(AsyncUpdateEvent)
		if !ok || update.apply == nil {
			return NoChange[S](), nil
		}

		applied := update.apply(state)
		next, ok := applied.(S)
		if !ok && applied != nil {
			return Result[S]{}, fmt.Errorf("%w: async update from %s", ErrEventType, update.Origin.Name())
		}
		return Update(next), nil
	})
}

// schedule starts pending outside the loop and re-admits its updater, or
// reports its error on the state stream, through the session queue.
func (s *Session[S]) schedule(ctx context.Context, origin *event.Kind, pending pendingUpdate) {
	s.metrics.RecordAsyncScheduled(1)
	s.observe(ctx, EventAsyncSchedule, observability.LevelVerbose, map[string]any{
		"origin": origin.Name(),
	})

	s.sched.Go(func() {
		apply, err := pending(s.ctx)
		if err != nil {
			s.asyncFailed(origin, err)
			return
		}

		s.metrics.RecordAsyncCompleted(1)
		s.observe(s.ctx, EventAsyncComplete, observability.LevelVerbose, map[string]any{
			"origin": origin.Name(),
			"noop":   apply == nil,
		})

		if apply == nil {
			return
		}
		s.admit(AsyncUpdateEvent{Origin: origin, apply: apply})
	})
}

func (s *Session[S]) asyncFailed(origin *event.Kind, err error) {
	asyncErr := &AsyncError{Origin: origin, Err: err}

	s.metrics.RecordAsyncFailed(1)
	s.observe(s.ctx, EventAsyncFailed, observability.LevelError, map[string]any{
		"origin": origin.Name(),
		"error":  err.Error(),
	})

	if deferErr := s.sched.Defer(func() { s.states.Fail(asyncErr) }); deferErr != nil {
		s.states.Fail(asyncErr)
	}
}
