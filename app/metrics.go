package app

import "sync/atomic"

type MetricsSnapshot struct {
	EventsAdmitted     int64
	EventsDropped      int64
	Transitions        int64
	TransitionFailures int64
	AsyncScheduled     int64
	AsyncCompleted     int64
	AsyncFailed        int64
}

// Metrics counts session activity. All methods are safe for concurrent use.
type Metrics struct {
	eventsAdmitted     atomic.Int64
	eventsDropped      atomic.Int64
	transitions        atomic.Int64
	transitionFailures atomic.Int64
	asyncScheduled     atomic.Int64
	asyncCompleted     atomic.Int64
	asyncFailed        atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordAdmitted(delta int) {
	m.eventsAdmitted.Add(int64(delta))
}

func (m *Metrics) RecordDropped(delta int) {
	m.eventsDropped.Add(int64(delta))
}

func (m *Metrics) RecordTransition(delta int) {
	m.transitions.Add(int64(delta))
}

func (m *Metrics) RecordTransitionFailure(delta int) {
	m.transitionFailures.Add(int64(delta))
}

func (m *Metrics) RecordAsyncScheduled(delta int) {
	m.asyncScheduled.Add(int64(delta))
}

func (m *Metrics) RecordAsyncCompleted(delta int) {
	m.asyncCompleted.Add(int64(delta))
}

func (m *Metrics) RecordAsyncFailed(delta int) {
	m.asyncFailed.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsAdmitted:     m.eventsAdmitted.Load(),
		EventsDropped:      m.eventsDropped.Load(),
		Transitions:        m.transitions.Load(),
		TransitionFailures: m.transitionFailures.Load(),
		AsyncScheduled:     m.asyncScheduled.Load(),
		AsyncCompleted:     m.asyncCompleted.Load(),
		AsyncFailed:        m.asyncFailed.Load(),
	}
}
