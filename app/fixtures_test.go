package app_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/tailored-agentic-units/sunshine/app"
	"github.com/tailored-agentic-units/sunshine/event"
	"github.com/tailored-agentic-units/sunshine/lens"
	"github.com/tailored-agentic-units/sunshine/scheduler"
)

// counter

type Counter struct {
	Count int `json:"count"`
}

var (
	KindIncrement = event.NewKind("counter.increment")
	KindAdd       = event.NewKind("counter.add")
)

var increment = event.Signal{K: KindIncrement}

func add(n int) event.Message[int] {
	return event.New(KindAdd, n)
}

func counterApp() app.App[Counter] {
	return app.New(Counter{},
		app.On(KindIncrement, func(s Counter, _ event.Event) (app.Result[Counter], error) {
			return app.Update(Counter{Count: s.Count + 1}), nil
		}),
		app.Handle(KindAdd, func(s Counter, e event.Message[int]) (app.Result[Counter], error) {
			return app.Update(Counter{Count: s.Count + e.Payload}), nil
		}),
	)
}

// mail

type Message struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type MailState struct {
	AuthToken      string    `json:"auth_token,omitempty"`
	Messages       []Message `json:"messages"`
	PendingQueries []string  `json:"pending_queries"`
}

var (
	KindGetAuthToken = event.NewKind("mail.get-auth-token")
	KindGetMessages  = event.NewKind("mail.get-messages")
	KindRunQueries   = event.NewKind("mail.run-queries")
	KindSetAuthToken = event.NewKind("mail.set-auth-token")
)

type GetMessages struct{ Query string }

func (GetMessages) Kind() *event.Kind { return KindGetMessages }

type SetAuthToken struct{ Token string }

func (SetAuthToken) Kind() *event.Kind { return KindSetAuthToken }

var fixtureMessages = []Message{
	{From: "Joe", Body: "hi"},
	{From: "Alice", Body: "525f8e2858d56a93bca87dfb818d5bce98bef638"},
}

func fetchMessages(_ context.Context, queries []string, token string) ([]Message, error) {
	return slices.Clone(fixtureMessages), nil
}

func mailApp() app.App[MailState] {
	return app.New(MailState{},
		app.Handle(KindGetMessages, func(s MailState, e GetMessages) (app.Result[MailState], error) {
			s.PendingQueries = append(slices.Clone(s.PendingQueries), e.Query)
			return app.UpdateAndEmit(s, event.Signal{K: KindRunQueries}), nil
		}),
		app.On(KindRunQueries, func(s MailState, _ event.Event) (app.Result[MailState], error) {
			if s.AuthToken == "" {
				return app.Emit[MailState](event.Signal{K: KindGetAuthToken}), nil
			}

			queries, token := s.PendingQueries, s.AuthToken
			s.PendingQueries = []string{}

			return app.UpdateAsync(s, app.Then(
				func(ctx context.Context) ([]Message, error) {
					return fetchMessages(ctx, queries, token)
				},
				func(latest MailState, ms []Message) MailState {
					latest.Messages = ms
					return latest
				},
			)), nil
		}),
		app.Handle(KindSetAuthToken, func(s MailState, e SetAuthToken) (app.Result[MailState], error) {
			s.AuthToken = e.Token
			return app.UpdateAndEmit(s, event.Signal{K: KindRunQueries}), nil
		}),
	)
}

// password

type PasswordState struct {
	RequestPassword bool `json:"request_password"`
}

var (
	KindRequestPassword = event.NewKind("password.request")
	KindGotPassword     = event.NewKind("password.got")
	KindProvidePassword = event.NewKind("password.provide")
)

type GotPassword struct{ Pass string }

func (GotPassword) Kind() *event.Kind { return KindGotPassword }

type ProvidePassword struct{ Pass string }

func (ProvidePassword) Kind() *event.Kind { return KindProvidePassword }

func passwordApp() app.App[PasswordState] {
	return app.New(PasswordState{},
		app.On(KindRequestPassword, func(s PasswordState, _ event.Event) (app.Result[PasswordState], error) {
			return app.Update(PasswordState{RequestPassword: true}), nil
		}),
		app.Handle(KindGotPassword, func(s PasswordState, e GotPassword) (app.Result[PasswordState], error) {
			return app.UpdateAndEmit(PasswordState{RequestPassword: false}, ProvidePassword(e)), nil
		}),
	)
}

// top level

type TopState struct {
	Mail MailState     `json:"mail"`
	Pass PasswordState `json:"pass"`
}

var (
	mailLens = lens.New(
		func(s TopState) MailState { return s.Mail },
		func(s TopState, m MailState) TopState { s.Mail = m; return s },
	)
	passLens = lens.New(
		func(s TopState) PasswordState { return s.Pass },
		func(s TopState, p PasswordState) TopState { s.Pass = p; return s },
	)
)

func topLevelApp() app.App[TopState] {
	return app.New(TopState{}).
		Include(
			app.Mount(mailApp(), mailLens),
			app.Mount(passwordApp(), passLens),
		).
		OnEvent(
			app.On(KindGetAuthToken, func(s TopState, _ event.Event) (app.Result[TopState], error) {
				return app.Emit[TopState](event.Signal{K: KindRequestPassword}), nil
			}),
			app.Handle(KindProvidePassword, func(s TopState, e ProvidePassword) (app.Result[TopState], error) {
				return app.Emit[TopState](SetAuthToken{Token: e.Pass}), nil
			}),
		)
}

// helpers

func runManual[S any](t *testing.T, a app.App[S], opts ...app.Option) (*app.Session[S], *scheduler.Manual) {
	t.Helper()

	m := scheduler.NewManual()
	s := a.Run(append([]app.Option{app.WithScheduler(m)}, opts...)...)
	t.Cleanup(func() { s.Close(time.Second) })

	return s, m
}

func collect[S any](s *app.Session[S]) *[]S {
	var got []S
	s.States().OnValue(func(v S) { got = append(got, v) })
	return &got
}

func recordKinds[S any](s *app.Session[S]) *[]string {
	var got []string
	s.Events().OnValue(func(e event.Event) { got = append(got, e.Kind().Name()) })
	return &got
}
