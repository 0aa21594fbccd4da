package lens_test

import (
	"testing"

	"github.com/tailored-agentic-units/sunshine/lens"
)

type inner struct {
	N int
}

type outer struct {
	Label string
	In    inner
}

var inLens = lens.New(
	func(o outer) inner { return o.In },
	func(o outer, i inner) outer { o.In = i; return o },
)

var nLens = lens.New(
	func(i inner) int { return i.N },
	func(i inner, n int) inner { i.N = n; return i },
)

func TestNew_RoundTrip(t *testing.T) {
	s := outer{Label: "a", In: inner{N: 1}}

	if got := inLens.Get(inLens.Set(s, inner{N: 7})); got.N != 7 {
		t.Errorf("Get(Set(s, c)) = %v, want N=7", got)
	}
	if got := inLens.Set(s, inLens.Get(s)); got != s {
		t.Errorf("Set(s, Get(s)) = %v, want %v", got, s)
	}
}

func TestIdentity(t *testing.T) {
	id := lens.Identity[int]()
	if id.Get(3) != 3 {
		t.Error("identity Get should return the whole")
	}
	if id.Set(3, 5) != 5 {
		t.Error("identity Set should return the part")
	}
}

func TestCompose(t *testing.T) {
	l := lens.Compose(inLens, nLens)
	s := outer{Label: "x", In: inner{N: 2}}

	if l.Get(s) != 2 {
		t.Errorf("Get = %d, want 2", l.Get(s))
	}

	updated := l.Set(s, 9)
	if updated.In.N != 9 || updated.Label != "x" {
		t.Errorf("Set = %+v, want N=9 and label preserved", updated)
	}
	if s.In.N != 2 {
		t.Error("Set must not mutate the original value")
	}
}

func TestOver(t *testing.T) {
	s := outer{In: inner{N: 4}}
	got := lens.Over(lens.Compose(inLens, nLens), s, func(n int) int { return n * 2 })
	if got.In.N != 8 {
		t.Errorf("Over = %d, want 8", got.In.N)
	}
}

func TestKey(t *testing.T) {
	m := map[string]int{"a": 1}
	l := lens.Key[string, int]("b")

	if l.Get(m) != 0 {
		t.Error("missing key should read as zero")
	}

	updated := l.Set(m, 2)
	if updated["b"] != 2 || updated["a"] != 1 {
		t.Errorf("unexpected map after Set: %v", updated)
	}
	if _, ok := m["b"]; ok {
		t.Error("Set must copy the map")
	}
}
