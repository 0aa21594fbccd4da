package app

import (
	"context"
	"slices"

	"github.com/tailored-agentic-units/sunshine/event"
)

// rootUpdater is an Updater lifted to the session's root state, with the
// state type erased so children of any type can produce one.
type rootUpdater func(root any) any

// lifter turns an Updater over a slice into a rootUpdater.
type lifter[S any] func(Updater[S]) rootUpdater

func liftRoot[S any](u Updater[S]) rootUpdater {
	return func(root any) any {
		state, _ := root.(S)
		return u(state)
	}
}

type pendingUpdate func(ctx context.Context) (rootUpdater, error)

// effects collects what a transition asks for. Nothing in it takes effect
// until the transition commits.
type effects struct {
	events []event.Event
	async  []pendingUpdate
}

func (fx *effects) collect(events []event.Event, async pendingUpdate) {
	for _, e := range events {
		if e != nil {
			fx.events = append(fx.events, e)
		}
	}
	if async != nil {
		fx.async = append(fx.async, async)
	}
}

// node is an App compiled for dispatch.
type node[S any] struct {
	includes []mounted[S]
	table    *table[S]
}

func compile[S any](a App[S], extra ...Handler[S]) *node[S] {
	n := &node[S]{
		includes: make([]mounted[S], 0, len(a.includes)),
		table:    newTable(slices.Concat(a.handlers, extra)),
	}
	for _, inc := range a.includes {
		n.includes = append(n.includes, inc.mount())
	}
	return n
}

// dispatch runs every include in order, then folds the node's own reducers
// over the result.
func (n *node[S]) dispatch(state S, e event.Event, fx *effects, lift lifter[S]) (S, error) {
	var err error
	for _, inc := range n.includes {
		if state, err = inc.apply(state, e, fx, lift); err != nil {
			return state, err
		}
	}
	return n.table.fold(state, e, fx, lift)
}

// table maps event kinds to handler positions. Lookups merge the handlers of
// a kind and all its declared ancestors in registration order and are cached
// per kind. A table is owned by one session and is only used from its loop.
type table[S any] struct {
	handlers []Handler[S]
	byKind   map[*event.Kind][]int
	resolved map[*event.Kind][]int
}

func newTable[S any](handlers []Handler[S]) *table[S] {
	t := &table[S]{
		handlers: handlers,
		byKind:   make(map[*event.Kind][]int),
		resolved: make(map[*event.Kind][]int),
	}
	for i, h := range handlers {
		if h.Kind == nil || h.Reduce == nil {
			continue
		}
		t.byKind[h.Kind] = append(t.byKind[h.Kind], i)
	}
	return t
}

func (t *table[S]) lookup(kind *event.Kind) []int {
	if idx, ok := t.resolved[kind]; ok {
		return idx
	}

	var idx []int
	for _, k := range kind.Lineage() {
		idx = append(idx, t.byKind[k]...)
	}
	slices.Sort(idx)

	t.resolved[kind] = idx
	return idx
}

func (t *table[S]) fold(state S, e event.Event, fx *effects, lift lifter[S]) (S, error) {
	for _, i := range t.lookup(e.Kind()) {
		result, err := t.handlers[i].Reduce(state, e)
		if err != nil {
			return state, err
		}

		fx.collect(result.Events, liftAsync(result.Async, lift))

		if result.State != nil {
			state = *result.State
		}
	}
	return state, nil
}

func liftAsync[S any](fn AsyncUpdate[S], lift lifter[S]) pendingUpdate {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) (rootUpdater, error) {
		u, err := fn(ctx)
		if err != nil || u == nil {
			return nil, err
		}
		return lift(u), nil
	}
}
