// Package event defines the identifiers that route events to reducers.
//
// Every event carries a Kind. Kinds form a tree: a kind declared with a parent
// is a subtype of that parent, and a reducer registered for the parent also
// receives events of the subtype.
//
//	var (
//	    Input     = event.NewKind("input")
//	    KeyPress  = event.NewKind("input.key", Input)
//	)
//
//	KeyPress.Is(Input)    // true
//	Input.Is(KeyPress)    // false
package event

import "strings"

// Event is any value that can be routed by kind.
type Event interface {
	Kind() *Kind
}

// Kind is a stable event identifier with an optional declared parent.
// Kinds are compared by identity, which is also what dispatch tables key on.
// Name is for diagnostics.
type Kind struct {
	name   string
	parent *Kind
}

// NewKind declares a kind. At most one parent is honoured; passing a parent
// makes the new kind a subtype of it.
func NewKind(name string, parent ...*Kind) *Kind {
	k := &Kind{name: name}
	if len(parent) > 0 {
		k.parent = parent[0]
	}
	return k
}

// Name returns the identifier the kind was declared with.
func (k *Kind) Name() string {
	if k == nil {
		return ""
	}
	return k.name
}

// Parent returns the declared parent, or nil for a root kind.
func (k *Kind) Parent() *Kind {
	if k == nil {
		return nil
	}
	return k.parent
}

// Is reports whether k is target or one of its declared subtypes.
func (k *Kind) Is(target *Kind) bool {
	if target == nil {
		return false
	}
	for cur := k; cur != nil; cur = cur.parent {
		if cur == target {
			return true
		}
	}
	return false
}

// Lineage returns k followed by its ancestors, nearest first.
func (k *Kind) Lineage() []*Kind {
	var out []*Kind
	for cur := k; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

// Path renders the lineage root first, separated by "/".
func (k *Kind) Path() string {
	lineage := k.Lineage()
	names := make([]string, len(lineage))
	for i, cur := range lineage {
		names[len(lineage)-1-i] = cur.name
	}
	return strings.Join(names, "/")
}

func (k *Kind) String() string {
	return k.Name()
}

// KindOf returns the kind of e, or nil when e is nil.
func KindOf(e Event) *Kind {
	if e == nil {
		return nil
	}
	return e.Kind()
}

// Matches reports whether e's kind is target or a declared subtype of it.
func Matches(e Event, target *Kind) bool {
	return KindOf(e).Is(target)
}

// Signal is a payload-free event.
type Signal struct {
	K *Kind
}

func (s Signal) Kind() *Kind {
	return s.K
}

// Message pairs a kind with a typed payload for events that do not warrant a
// dedicated Go type.
type Message[T any] struct {
	K       *Kind
	Payload T
}

// New builds a Message event.
func New[T any](kind *Kind, payload T) Message[T] {
	return Message[T]{K: kind, Payload: payload}
}

func (m Message[T]) Kind() *Kind {
	return m.K
}
