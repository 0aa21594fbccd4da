package app

import (
	"errors"
	"fmt"

	"github.com/tailored-agentic-units/sunshine/event"
)

// Sentinel errors for session operations.
var (
	ErrSessionClosed = errors.New("session closed")
	ErrNilEvent      = errors.New("event has no kind")
	ErrReducerPanic  = errors.New("reducer panicked")
	ErrEventType     = errors.New("unexpected event type")
)

// TransitionError reports an aborted transition. Seq is the sequence number
// the transition would have committed under.
type TransitionError struct {
	Seq   uint64
	Event event.Event
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %d (%s): %v", e.Seq, event.KindOf(e.Event).Name(), e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// AsyncError reports a failed asynchronous update. Origin is the kind of the
// event whose reducer scheduled it.
type AsyncError struct {
	Origin *event.Kind
	Err    error
}

func (e *AsyncError) Error() string {
	return fmt.Sprintf("async update from %s: %v", e.Origin.Name(), e.Err)
}

func (e *AsyncError) Unwrap() error {
	return e.Err
}
