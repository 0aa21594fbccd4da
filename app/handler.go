package app

import (
	"fmt"

	"github.com/tailored-agentic-units/sunshine/event"
)

// Reducer maps a state slice and an event to a Result. Returning an error
// aborts the whole transition.
type Reducer[S any] func(state S, e event.Event) (Result[S], error)

// Handler registers a reducer under an event kind. It receives events of
// that kind and of every declared subtype.
type Handler[S any] struct {
	Kind   *event.Kind
	Reduce Reducer[S]
}

// On registers an untyped reducer.
func On[S any](kind *event.Kind, reduce Reducer[S]) Handler[S] {
	return Handler[S]{Kind: kind, Reduce: reduce}
}

// Handle registers a reducer over the concrete event type E. An event of the
// matching kind that is not an E aborts the transition with ErrEventType.
func Handle[S any, E event.Event](kind *event.Kind, reduce func(state S, e E) (Result[S], error)) Handler[S] {
	return Handler[S]{
		Kind: kind,
		Reduce: func(state S, e event.Event) (Result[S], error) {
			typed, ok := e.(E)
			if !ok {
				return Result[S]{}, fmt.Errorf("%w: %s handler got %T", ErrEventType, kind.Name(), e)
			}
			return reduce(state, typed)
		},
	}
}
