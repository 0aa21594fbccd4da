package event_test

import (
	"testing"

	"github.com/tailored-agentic-units/sunshine/event"
)

var (
	input    = event.NewKind("input")
	keyPress = event.NewKind("key", input)
	enter    = event.NewKind("enter", keyPress)
	timer    = event.NewKind("timer")
)

func TestKind_Is(t *testing.T) {
	tests := []struct {
		name   string
		kind   *event.Kind
		target *event.Kind
		want   bool
	}{
		{"exact", input, input, true},
		{"direct parent", keyPress, input, true},
		{"grandparent", enter, input, true},
		{"child does not match parent query reversed", input, keyPress, false},
		{"unrelated", timer, input, false},
		{"nil target", input, nil, false},
		{"nil kind", nil, input, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Is(tt.target); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_IdentityNotName(t *testing.T) {
	other := event.NewKind("input")
	if other.Is(input) {
		t.Error("kinds with equal names but distinct declarations should not match")
	}
}

func TestKind_Lineage(t *testing.T) {
	lineage := enter.Lineage()
	if len(lineage) != 3 {
		t.Fatalf("got %d kinds, want 3", len(lineage))
	}
	if lineage[0] != enter || lineage[1] != keyPress || lineage[2] != input {
		t.Errorf("unexpected lineage order: %v", lineage)
	}
	if got := enter.Path(); got != "input/key/enter" {
		t.Errorf("Path() = %q, want %q", got, "input/key/enter")
	}
}

func TestMatches(t *testing.T) {
	if !event.Matches(event.Signal{K: enter}, input) {
		t.Error("signal of subtype should match ancestor")
	}
	if event.Matches(nil, input) {
		t.Error("nil event should not match")
	}

	msg := event.New(keyPress, "a")
	if msg.Payload != "a" {
		t.Errorf("got payload %q, want %q", msg.Payload, "a")
	}
	if !event.Matches(msg, keyPress) {
		t.Error("message should match its own kind")
	}
}
