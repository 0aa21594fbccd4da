package app

import (
	"github.com/tailored-agentic-units/sunshine/event"
	"github.com/tailored-agentic-units/sunshine/lens"
)

// Include is a child App mounted on part of a parent state S. Build one with
// Mount.
type Include[S any] interface {
	mount() mounted[S]
}

// Mount nests child under its parent at l. The child's reducers see l.Get of
// the parent state and their results are written back with l.Set.
func Mount[S, C any](child App[C], l lens.Lens[S, C]) Include[S] {
	return include[S, C]{child: child, lens: l}
}

type include[S, C any] struct {
	child App[C]
	lens  lens.Lens[S, C]
}

func (i include[S, C]) mount() mounted[S] {
	return &mountedInclude[S, C]{
		node: compile(i.child),
		lens: i.lens,
	}
}

// mounted is an include whose child has been compiled for a session.
type mounted[S any] interface {
	apply(state S, e event.Event, fx *effects, lift lifter[S]) (S, error)
}

type mountedInclude[S, C any] struct {
	node *node[C]
	lens lens.Lens[S, C]
}

func (m *mountedInclude[S, C]) apply(state S, e event.Event, fx *effects, lift lifter[S]) (S, error) {
	child, err := m.node.dispatch(m.lens.Get(state), e, fx, m.liftChild(lift))
	if err != nil {
		return state, err
	}
	return m.lens.Set(state, child), nil
}

// liftChild composes the parent's lift with this include's lens, so an
// updater produced by the child is applied to whatever the child slice holds
// when it re-enters.
func (m *mountedInclude[S, C]) liftChild(lift lifter[S]) lifter[C] {
	return func(u Updater[C]) rootUpdater {
		return lift(func(parent S) S {
			return m.lens.Set(parent, u(m.lens.Get(parent)))
		})
	}
}
