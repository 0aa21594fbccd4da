package app

import "github.com/tailored-agentic-units/sunshine/observability"

// Event types reported by a Session.
const (
	EventSessionStart       observability.EventType = "session.start"
	EventSessionClose       observability.EventType = "session.close"
	EventAdmit              observability.EventType = "event.admit"
	EventDropped            observability.EventType = "event.dropped"
	EventTransitionComplete observability.EventType = "transition.complete"
	EventTransitionFailed   observability.EventType = "transition.failed"
	EventAsyncSchedule      observability.EventType = "async.schedule"
	EventAsyncComplete      observability.EventType = "async.complete"
	EventAsyncFailed        observability.EventType = "async.failed"
	EventHistoryFailed      observability.EventType = "history.failed"
)
