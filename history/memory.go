package history

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// memoryStore keeps records in process memory. Records are lost when the
// process exits.
type memoryStore struct {
	records map[string][]Record
	mu      sync.RWMutex
}

func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[string][]Record),
	}
}

func (m *memoryStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.records[rec.SessionID]
	if n := len(existing); n > 0 && existing[n-1].Seq >= rec.Seq {
		return fmt.Errorf("%w: session %s seq %d after %d", ErrSequence, rec.SessionID, rec.Seq, existing[n-1].Seq)
	}
	rec.State = slices.Clone(rec.State)
	m.records[rec.SessionID] = append(existing, rec)
	return nil
}

func (m *memoryStore) Load(ctx context.Context, sessionID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	existing, ok := m.records[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return slices.Clone(existing), nil
}

func (m *memoryStore) Latest(ctx context.Context, sessionID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	existing := m.records[sessionID]
	if len(existing) == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return existing[len(existing)-1], nil
}

func (m *memoryStore) Sessions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, sessionID)
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}
