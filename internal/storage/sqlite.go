package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	session_id  TEXT NOT NULL,
	battle      INTEGER NOT NULL,
	turn        INTEGER NOT NULL,
	side        INTEGER NOT NULL,
	model       TEXT NOT NULL,
	version     INTEGER NOT NULL,
	action      INTEGER NOT NULL,
	legal_count INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS decisions_session_side ON decisions (session_id, side);
`

// timestampLayout has fixed width so timestamps order lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteBackend persists the decision log in a SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (creating if needed) the database at path and
// runs migrations. ":memory:" gives a private in-memory database.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Store implements Backend.Store
func (s *SQLiteBackend) Store(ctx context.Context, d *Decision) error {
	_, err := s.StoreBatch(ctx, []*Decision{d})
	return err
}

// StoreBatch implements Backend.StoreBatch. The batch is one transaction.
func (s *SQLiteBackend) StoreBatch(ctx context.Context, ds []*Decision) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO decisions (id, session_id, battle, turn, side, model, version, action, legal_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		prepare(d, now)
		_, err := stmt.ExecContext(ctx,
			d.ID, d.SessionID, d.Battle, d.Turn, int(d.Side), d.Model, d.Version,
			int(d.Action), d.LegalCount, d.Timestamp.UTC().Format(timestampLayout))
		if err != nil {
			return nil, fmt.Errorf("insert decision %s: %w", d.ID, err)
		}
		ids = append(ids, d.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// Actions implements Backend.Actions
func (s *SQLiteBackend) Actions(ctx context.Context, sessionID string, side schema.Side) ([]schema.Action, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT action FROM decisions
		 WHERE session_id = ? AND side = ? AND action >= 0
		 ORDER BY seq`,
		sessionID, int(side))
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}
	defer rows.Close()

	var actions []schema.Action
	for rows.Next() {
		var a int
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, schema.Action(a))
	}
	return actions, rows.Err()
}

// Stats implements Backend.Stats
func (s *SQLiteBackend) Stats(ctx context.Context, sessionID string) (*Stats, error) {
	var (
		stats          Stats
		oldest, newest sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT session_id),
		        COUNT(DISTINCT session_id || ':' || battle),
		        COALESCE(SUM(CASE WHEN action = ? THEN 1 ELSE 0 END), 0),
		        MIN(created_at),
		        MAX(created_at)
		 FROM decisions
		 WHERE ? = '' OR session_id = ?`,
		int(schema.ActionReset), sessionID, sessionID,
	).Scan(&stats.TotalDecisions, &stats.TotalSessions, &stats.TotalBattles, &stats.Resets, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	if stats.OldestTimestamp, err = parseTimestamp(oldest); err != nil {
		return nil, err
	}
	if stats.NewestTimestamp, err = parseTimestamp(newest); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close closes the underlying database connection.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func parseTimestamp(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	ts, err := time.Parse(timestampLayout, v.String)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", v.String, err)
	}
	return &ts, nil
}
