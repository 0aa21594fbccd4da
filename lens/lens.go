// Package lens provides the accessor pair used to mount a sub-app's state
// inside a parent's state.
//
// A lens must satisfy the round-trip laws
//
//	Get(Set(s, c)) == c
//	Set(s, Get(s)) == s
//
// Nothing in this module verifies them.
package lens

// Lens focuses a whole value S on a part C.
type Lens[S, C any] interface {
	Get(whole S) C
	Set(whole S, part C) S
}

type funcLens[S, C any] struct {
	get func(S) C
	set func(S, C) S
}

// New builds a Lens from a getter and a setter. set must return a new value
// rather than mutate whole.
func New[S, C any](get func(S) C, set func(S, C) S) Lens[S, C] {
	return funcLens[S, C]{get: get, set: set}
}

func (l funcLens[S, C]) Get(whole S) C {
	return l.get(whole)
}

func (l funcLens[S, C]) Set(whole S, part C) S {
	return l.set(whole, part)
}

type identity[S any] struct{}

// Identity focuses a value on itself.
func Identity[S any]() Lens[S, S] {
	return identity[S]{}
}

func (identity[S]) Get(whole S) S {
	return whole
}

func (identity[S]) Set(_ S, part S) S {
	return part
}

type composed[A, B, C any] struct {
	outer Lens[A, B]
	inner Lens[B, C]
}

// Compose focuses through outer and then inner.
func Compose[A, B, C any](outer Lens[A, B], inner Lens[B, C]) Lens[A, C] {
	return composed[A, B, C]{outer: outer, inner: inner}
}

func (l composed[A, B, C]) Get(whole A) C {
	return l.inner.Get(l.outer.Get(whole))
}

func (l composed[A, B, C]) Set(whole A, part C) A {
	return l.outer.Set(whole, l.inner.Set(l.outer.Get(whole), part))
}

// Over applies f to the part focused by l.
func Over[S, C any](l Lens[S, C], whole S, f func(C) C) S {
	return l.Set(whole, f(l.Get(whole)))
}

// Key focuses a map on one entry. Set copies the map; a missing key reads as
// the zero value.
func Key[K comparable, V any](key K) Lens[map[K]V, V] {
	return New(
		func(m map[K]V) V { return m[key] },
		func(m map[K]V, v V) map[K]V {
			out := make(map[K]V, len(m)+1)
			for k, val := range m {
				out[k] = val
			}
			out[key] = v
			return out
		},
	)
}
