package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tailored-agentic-units/sunshine/app"
	"github.com/tailored-agentic-units/sunshine/event"
	"github.com/tailored-agentic-units/sunshine/lens"
)

type Todo struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// SyncState tracks simulated saves to a remote backend.
type SyncState struct {
	Pending int `json:"pending"`
	Saved   int `json:"saved"`
}

type State struct {
	Todos   []Todo    `json:"todos"`
	Applied int       `json:"applied"`
	Sync    SyncState `json:"sync"`
}

var (
	KindCommand  = event.NewKind("todo.command")
	KindAdd      = event.NewKind("todo.add", KindCommand)
	KindComplete = event.NewKind("todo.complete", KindCommand)
	KindClear    = event.NewKind("todo.clear", KindCommand)
)

type Add struct{ Text string }

func (Add) Kind() *event.Kind { return KindAdd }

type Complete struct{ Index int }

func (Complete) Kind() *event.Kind { return KindComplete }

var syncLens = lens.New(
	func(s State) SyncState { return s.Sync },
	func(s State, sync SyncState) State { s.Sync = sync; return s },
)

// parseCommand reads "add:<text>", "done:<index>" or "clear".
func parseCommand(arg string) (event.Event, error) {
	verb, rest, _ := strings.Cut(arg, ":")

	switch verb {
	case "add":
		if rest == "" {
			return nil, fmt.Errorf("add needs text: %q", arg)
		}
		return Add{Text: rest}, nil
	case "done":
		i, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("done needs an index: %w", err)
		}
		return Complete{Index: i}, nil
	case "clear":
		return event.Signal{K: KindClear}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", arg)
	}
}

func syncApp(latency time.Duration) app.App[SyncState] {
	return app.New(SyncState{},
		app.On(KindAdd, func(s SyncState, _ event.Event) (app.Result[SyncState], error) {
			s.Pending++
			return app.UpdateAsync(s, app.Then(
				func(ctx context.Context) (struct{}, error) {
					select {
					case <-time.After(latency):
						return struct{}{}, nil
					case <-ctx.Done():
						return struct{}{}, ctx.Err()
					}
				},
				func(latest SyncState, _ struct{}) SyncState {
					latest.Pending--
					latest.Saved++
					return latest
				},
			)), nil
		}),
	)
}

func todoApp(latency time.Duration) app.App[State] {
	return app.New(State{Todos: []Todo{}}).
		Include(app.Mount(syncApp(latency), syncLens)).
		OnEvent(
			app.Handle(KindAdd, func(s State, e Add) (app.Result[State], error) {
				s.Todos = append(slices.Clone(s.Todos), Todo{Text: e.Text})
				return app.Update(s), nil
			}),
			app.Handle(KindComplete, func(s State, e Complete) (app.Result[State], error) {
				if e.Index < 0 || e.Index >= len(s.Todos) {
					return app.Result[State]{}, fmt.Errorf("no todo at index %d", e.Index)
				}
				s.Todos = slices.Clone(s.Todos)
				s.Todos[e.Index].Done = true
				return app.Update(s), nil
			}),
			app.On(KindClear, func(s State, _ event.Event) (app.Result[State], error) {
				s.Todos = slices.DeleteFunc(slices.Clone(s.Todos), func(t Todo) bool { return t.Done })
				return app.Update(s), nil
			}),
			app.On(KindCommand, func(s State, _ event.Event) (app.Result[State], error) {
				s.Applied++
				return app.Update(s), nil
			}),
		)
}
