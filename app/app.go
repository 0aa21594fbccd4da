package app

import (
	"slices"

	"github.com/tailored-agentic-units/sunshine/event"
)

// App is an immutable blueprint. The zero value is a valid App over the zero
// state with no reducers.
type App[S any] struct {
	initial  S
	handlers []Handler[S]
	includes []Include[S]
}

// New creates an App with an initial state and reducers.
func New[S any](initial S, handlers ...Handler[S]) App[S] {
	return App[S]{
		initial:  initial,
		handlers: slices.Clone(handlers),
	}
}

// OnEvent returns a new App with handlers appended.
func (a App[S]) OnEvent(handlers ...Handler[S]) App[S] {
	return App[S]{
		initial:  a.initial,
		handlers: slices.Concat(a.handlers, handlers),
		includes: a.includes,
	}
}

// Include returns a new App with child apps appended. Includes run in the
// order they were added, before the App's own reducers.
func (a App[S]) Include(includes ...Include[S]) App[S] {
	return App[S]{
		initial:  a.initial,
		handlers: a.handlers,
		includes: slices.Concat(a.includes, includes),
	}
}

// WithInitialState returns a new App that starts from state.
func (a App[S]) WithInitialState(state S) App[S] {
	return App[S]{
		initial:  state,
		handlers: a.handlers,
		includes: a.includes,
	}
}

func (a App[S]) InitialState() S {
	return a.initial
}

// Handlers returns a copy of the registered reducers.
func (a App[S]) Handlers() []Handler[S] {
	return slices.Clone(a.handlers)
}

// Includes returns a copy of the registered child apps.
func (a App[S]) Includes() []Include[S] {
	return slices.Clone(a.includes)
}

// Step applies e to state the way a session would, without committing,
// publishing or scheduling anything. Follow-up events are returned in order;
// asynchronous updates are counted but not started.
func (a App[S]) Step(state S, e event.Event) (StepResult[S], error) {
	if event.KindOf(e) == nil {
		return StepResult[S]{State: state}, ErrNilEvent
	}

	fx := &effects{}
	next, err := compile(a).dispatch(state, e, fx, liftRoot[S])
	if err != nil {
		return StepResult[S]{State: state}, err
	}
	return StepResult[S]{
		State:  next,
		Events: fx.events,
		Async:  len(fx.async),
	}, nil
}

// StepResult is the outcome of App.Step.
type StepResult[S any] struct {
	State  S
	Events []event.Event
	Async  int
}
