package app

import (
	"context"

	"github.com/tailored-agentic-units/sunshine/event"
)

// Updater maps the latest state to a new state.
type Updater[S any] func(latest S) S

// AsyncUpdate is a pending computation that eventually yields an Updater.
// A nil Updater with a nil error means there is nothing to apply.
type AsyncUpdate[S any] func(ctx context.Context) (Updater[S], error)

// Result describes what one reducer invocation contributes. A nil State
// leaves the running state unchanged.
type Result[S any] struct {
	State  *S
	Async  AsyncUpdate[S]
	Events []event.Event
}

func NoChange[S any]() Result[S] {
	return Result[S]{}
}

func Update[S any](state S) Result[S] {
	return Result[S]{State: &state}
}

// Emit requests follow-up events without changing state.
func Emit[S any](events ...event.Event) Result[S] {
	return Result[S]{Events: events}
}

func UpdateAndEmit[S any](state S, events ...event.Event) Result[S] {
	return Result[S]{State: &state, Events: events}
}

// Async schedules fn without changing state now.
func Async[S any](fn AsyncUpdate[S]) Result[S] {
	return Result[S]{Async: fn}
}

func UpdateAsync[S any](state S, fn AsyncUpdate[S]) Result[S] {
	return Result[S]{State: &state, Async: fn}
}

// Resolved wraps an already known value as an AsyncUpdate that replaces the
// slice with value when it re-enters.
func Resolved[S any](value S) AsyncUpdate[S] {
	return func(context.Context) (Updater[S], error) {
		return func(S) S { return value }, nil
	}
}

// Then builds an AsyncUpdate from a computation and a function that folds its
// output into the latest state.
func Then[S, T any](compute func(ctx context.Context) (T, error), apply func(latest S, value T) S) AsyncUpdate[S] {
	return func(ctx context.Context) (Updater[S], error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return func(latest S) S { return apply(latest, value) }, nil
	}
}
