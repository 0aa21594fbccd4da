// Package app composes independently written state machines into one
// application-wide state value.
//
// An App is an immutable blueprint: an initial state, an ordered list of
// reducers keyed by event kind, and an ordered list of included child apps,
// each mounted on a slice of the parent state through a lens. Builders return
// new Apps and never modify the receiver.
//
//	counter := app.New(Counter{},
//	    app.Handle(KindIncrement, func(s Counter, _ Increment) (app.Result[Counter], error) {
//	        return app.Update(Counter{N: s.N + 1}), nil
//	    }),
//	)
//
//	root := app.New(Root{}).Include(app.Mount(counter, counterLens))
//
// Run turns a blueprint into a Session. A Session admits events through one
// serialized queue and applies them one at a time:
//
//  1. each include, in registration order, folds the event over its slice
//     (its own includes first, then its reducers) and writes the slice back;
//  2. the session's own reducers fold the event over the whole state;
//  3. the result is committed, then follow-up events are queued and
//     asynchronous updates are started, then the state is published.
//
// Emit never processes an event synchronously, even from a reducer's follow-up
// events. A reducer may return an AsyncUpdate: a computation that yields an
// Updater. When it finishes, the updater is re-admitted through the same queue
// as an internal event of kind KindAsyncUpdate and applied to the state that
// is current at that moment, not the state it was scheduled from.
//
// A reducer error (or panic) aborts its whole transition: nothing is
// committed or published and the effects collected so far are discarded.
// Later events are processed normally. Asynchronous failures are delivered on
// the state stream's error channel.
package app
