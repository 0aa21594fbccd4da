package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tailored-agentic-units/sunshine/event"
)

// ErrUnknownKind is returned when no decoder is registered for a kind name.
var ErrUnknownKind = errors.New("unknown event kind")

// Decoder rebuilds an event from its JSON payload. An absent payload is
// passed as nil.
type Decoder func(payload []byte) (event.Event, error)

// Registry maps kind names to decoders. Only registered kinds can be emitted
// remotely.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register adds or replaces the decoder for kind.
func (r *Registry) Register(kind *event.Kind, decode Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[kind.Name()] = decode
}

func (r *Registry) Decode(kind string, payload []byte) (event.Event, error) {
	r.mu.RLock()
	decode, ok := r.decoders[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return decode(payload)
}

// Kinds lists the registered kind names.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.decoders))
	for name := range r.decoders {
		out = append(out, name)
	}
	return out
}

// JSON decodes the payload into a value of the event type E. E must report
// its kind without relying on decoded fields.
func JSON[E event.Event]() Decoder {
	return func(payload []byte) (event.Event, error) {
		var e E
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	}
}

// Message decodes the payload as T and wraps it in an event.Message of kind.
func Message[T any](kind *event.Kind) Decoder {
	return func(payload []byte) (event.Event, error) {
		var v T
		if err := unmarshal(payload, &v); err != nil {
			return nil, err
		}
		return event.New(kind, v), nil
	}
}

// Signal ignores the payload.
func Signal(kind *event.Kind) Decoder {
	return func([]byte) (event.Event, error) {
		return event.Signal{K: kind}, nil
	}
}

func unmarshal(payload []byte, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
