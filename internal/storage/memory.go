package storage

import (
	"context"
	"sync"
	"time"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// battleKey identifies one battle of one session.
type battleKey struct {
	session string
	battle  int
}

// MemoryBackend implements an in-memory decision log
type MemoryBackend struct {
	mu        sync.RWMutex
	decisions []*Decision
	sessions  map[string][]int // SessionID -> indexes into decisions
	battles   map[battleKey]struct{}
	closed    bool
}

// NewMemoryBackend creates a new in-memory storage backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string][]int),
		battles:  make(map[battleKey]struct{}),
	}
}

// Store implements Backend.Store
func (m *MemoryBackend) Store(ctx context.Context, d *Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	prepare(d, time.Now())

	stored := *d
	m.sessions[d.SessionID] = append(m.sessions[d.SessionID], len(m.decisions))
	m.decisions = append(m.decisions, &stored)
	m.battles[battleKey{d.SessionID, d.Battle}] = struct{}{}
	return nil
}

// StoreBatch implements Backend.StoreBatch
func (m *MemoryBackend) StoreBatch(ctx context.Context, ds []*Decision) ([]string, error) {
	ids := make([]string, len(ds))

	for i, d := range ds {
		if err := m.Store(ctx, d); err != nil {
			return ids[:i], err
		}
		ids[i] = d.ID
	}

	return ids, nil
}

// Actions implements Backend.Actions
func (m *MemoryBackend) Actions(ctx context.Context, sessionID string, side schema.Side) ([]schema.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	var actions []schema.Action
	for _, i := range m.sessions[sessionID] {
		d := m.decisions[i]
		if d.Side == side && !d.Action.IsSentinel() {
			actions = append(actions, d.Action)
		}
	}
	return actions, nil
}

// Stats implements Backend.Stats
func (m *MemoryBackend) Stats(ctx context.Context, sessionID string) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	stats := &Stats{}
	sessions := make(map[string]struct{})
	for _, d := range m.decisions {
		if sessionID != "" && d.SessionID != sessionID {
			continue
		}
		stats.TotalDecisions++
		sessions[d.SessionID] = struct{}{}
		if d.Action == schema.ActionReset {
			stats.Resets++
		}
		if stats.OldestTimestamp == nil || d.Timestamp.Before(*stats.OldestTimestamp) {
			ts := d.Timestamp
			stats.OldestTimestamp = &ts
		}
		if stats.NewestTimestamp == nil || d.Timestamp.After(*stats.NewestTimestamp) {
			ts := d.Timestamp
			stats.NewestTimestamp = &ts
		}
	}
	for key := range m.battles {
		if sessionID == "" || key.session == sessionID {
			stats.TotalBattles++
		}
	}
	stats.TotalSessions = uint64(len(sessions))
	return stats, nil
}

// Close implements Backend.Close
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.decisions = nil
	m.sessions = nil
	m.battles = nil
	return nil
}
