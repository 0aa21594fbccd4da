package observability

import "context"

// NoOpObserver ignores session events. It is what a session reports to when
// neither an observer nor a logger is configured.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}
