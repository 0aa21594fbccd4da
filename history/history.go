// Package history persists the append-only sequence of states a session
// commits: one record per processed event, plus the initial state at
// sequence 0.
//
// Stores are selected by name through a registry so a session can be wired
// from configuration:
//
//	store, err := history.Open(history.Config{Store: "bolt", Path: "/var/lib/app/history.db"})
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for store operations.
var (
	ErrNotFound     = errors.New("history not found")
	ErrSequence     = errors.New("record out of sequence")
	ErrUnknownStore = errors.New("unknown history store")
)

// Record is one committed state.
type Record struct {
	SessionID string          `json:"session_id"`
	Seq       uint64          `json:"seq"`
	Kind      string          `json:"kind,omitempty"`
	State     json.RawMessage `json:"state"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecord encodes state as JSON.
func NewRecord(sessionID string, seq uint64, kind string, state any) (Record, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return Record{}, fmt.Errorf("marshal state: %w", err)
	}
	return Record{
		SessionID: sessionID,
		Seq:       seq,
		Kind:      kind,
		State:     payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the recorded state into v.
func (r Record) Decode(v any) error {
	if err := json.Unmarshal(r.State, v); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}
	return nil
}

// Store is an append-only log of records keyed by session. Implementations
// must be safe for concurrent use.
type Store interface {
	// Append adds rec. Seq must be greater than the last appended Seq for
	// the same session.
	Append(ctx context.Context, rec Record) error
	// Load returns every record for sessionID in sequence order.
	Load(ctx context.Context, sessionID string) ([]Record, error)
	// Latest returns the highest-sequence record for sessionID.
	Latest(ctx context.Context, sessionID string) (Record, error)
	// Sessions lists the session IDs with at least one record.
	Sessions(ctx context.Context) ([]string, error)
	// Delete removes a session's records. Missing sessions are ignored.
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

func validate(rec Record) error {
	if rec.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}
