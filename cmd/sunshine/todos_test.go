package main

import (
	"testing"
	"time"

	"github.com/tailored-agentic-units/sunshine/app"
	"github.com/tailored-agentic-units/sunshine/scheduler"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		arg     string
		kind    string
		wantErr bool
	}{
		{"add:milk", KindAdd.Name(), false},
		{"done:0", KindComplete.Name(), false},
		{"clear", KindClear.Name(), false},
		{"add:", "", true},
		{"done:x", "", true},
		{"frobnicate", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			e, err := parseCommand(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCommand failed: %v", err)
			}
			if e.Kind().Name() != tt.kind {
				t.Errorf("got kind %s, want %s", e.Kind().Name(), tt.kind)
			}
		})
	}
}

func TestTodoApp(t *testing.T) {
	m := scheduler.NewManual()
	var failures int
	s := todoApp(0).Run(
		app.WithScheduler(m),
		app.WithErrorHandler(func(error) { failures++ }),
	)
	defer s.Close(time.Second)

	for _, arg := range []string{"add:milk", "add:eggs", "done:0", "done:9", "clear"} {
		e, err := parseCommand(arg)
		if err != nil {
			t.Fatalf("parseCommand failed: %v", err)
		}
		s.Emit(e)
	}
	m.Drain()

	st := s.CurrentState()
	if st.Sync.Pending != 2 {
		t.Errorf("got %d pending saves, want 2", st.Sync.Pending)
	}

	m.Settle()

	st = s.CurrentState()
	if len(st.Todos) != 1 || st.Todos[0].Text != "eggs" {
		t.Errorf("got todos %+v, want [eggs]", st.Todos)
	}
	if st.Applied != 4 {
		t.Errorf("got %d applied, want 4", st.Applied)
	}
	if st.Sync.Pending != 0 || st.Sync.Saved != 2 {
		t.Errorf("got sync %+v, want 0 pending 2 saved", st.Sync)
	}
	if failures != 1 {
		t.Errorf("got %d failures, want 1", failures)
	}
}
