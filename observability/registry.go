package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ErrUnknownObserver is returned when a session config names an observer
// that was never registered.
var ErrUnknownObserver = errors.New("unknown observer")

var (
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
		"warn": LevelFilter{Min: LevelWarning, Next: NewSlogObserver(slog.Default())},
	}
	mutex sync.RWMutex
)

// GetObserver resolves the observer a session config names. "noop", "slog"
// and "warn" are always available: "slog" reports every session event to the
// default logger, "warn" only dropped events and failures.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, exists := observers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObserver, name)
	}
	return obs, nil
}

// RegisterObserver makes observer selectable by name from session configs,
// replacing any previous registration.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	observers[name] = observer
}

// ObserverNames lists the registered names in sorted order.
func ObserverNames() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(observers))
	for name := range observers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
