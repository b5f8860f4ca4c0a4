package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// ErrClosed is returned by a backend after Close.
var ErrClosed = errors.New("storage backend closed")

// Decision is one action returned by a model to the simulation
type Decision struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	Battle     int           `json:"battle"`
	Turn       int           `json:"turn"`
	Side       schema.Side   `json:"side"`
	Model      string        `json:"model"`
	Version    int           `json:"version"`
	Action     schema.Action `json:"action"`
	LegalCount int           `json:"legal_count"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Stats summarises the decision log
type Stats struct {
	TotalDecisions  uint64
	TotalSessions   uint64
	TotalBattles    uint64
	Resets          uint64
	OldestTimestamp *time.Time
	NewestTimestamp *time.Time
}

// Backend defines the interface for decision log implementations
type Backend interface {
	// Store a single decision
	Store(ctx context.Context, d *Decision) error

	// Store multiple decisions in a batch
	StoreBatch(ctx context.Context, ds []*Decision) ([]string, error)

	// Actions returns the non-sentinel actions one side took in a
	// session, in decision order.
	Actions(ctx context.Context, sessionID string, side schema.Side) ([]schema.Action, error)

	// Stats returns log statistics, for one session or all if sessionID is empty
	Stats(ctx context.Context, sessionID string) (*Stats, error)

	// Close the backend and cleanup resources
	Close() error
}

// prepare fills in the ID and timestamp of d when missing.
func prepare(d *Decision, now time.Time) {
	if d.ID == "" {
		d.ID = newID()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = now
	}
}

func newID() string {
	return uuid.New().String()
}

// Memory is the Open path that selects MemoryBackend.
const Memory = "-"

// Open returns a MemoryBackend for Memory and a SQLiteBackend for any
// other path.
func Open(path string) (Backend, error) {
	if path == Memory {
		return NewMemoryBackend(), nil
	}
	return NewSQLiteBackend(path)
}
