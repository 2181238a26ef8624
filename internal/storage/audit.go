// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the admin audit trail in SQLite.
//
// The store records authentication events (attempts, lockouts, unlocks,
// logouts) and serves the most recent ones to the admin dashboard.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryPath selects an in-memory database.
const MemoryPath = ":memory:"

// DefaultRecentLimit is used by Recent when limit is not positive.
const DefaultRecentLimit = 20

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("audit store closed")

// Schema is the audit database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	ts      INTEGER NOT NULL,
	type    TEXT    NOT NULL,
	actor   TEXT    NOT NULL DEFAULT '',
	detail  TEXT    NOT NULL DEFAULT '',
	success INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_audit_events_ts ON audit_events(ts);
`

// =============================================================================
// EVENT TYPE
// =============================================================================

// EventType names an audited action.
type EventType string

const (
	EventLoginSuccess EventType = "LOGIN_SUCCESS"
	EventLoginFailure EventType = "LOGIN_FAILURE"
	EventLoginBlocked EventType = "LOGIN_BLOCKED"
	EventThrottled    EventType = "LOGIN_THROTTLED"
	EventLockout      EventType = "LOCKOUT"
	EventUnlock       EventType = "UNLOCK"
	EventLogout       EventType = "LOGOUT"
)

// Event is one audit record. Actor holds a masked identifier, never a secret.
type Event struct {
	ID      int64     `json:"id"`
	Time    time.Time `json:"time"`
	Type    EventType `json:"type"`
	Actor   string    `json:"actor"`
	Detail  string    `json:"detail,omitempty"`
	Success bool      `json:"success"`
}

// Counts summarises the audit trail by event type.
type Counts struct {
	Total  int
	ByType map[EventType]int
}

// =============================================================================
// AUDIT STORE
// =============================================================================

// AuditStore is an SQLite-backed audit trail. It is safe for concurrent use.
type AuditStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Open opens (creating if needed) the audit database at path.
// MemoryPath opens a private in-memory database.
func Open(path string) (*AuditStore, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// lives only as long as its single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout=5000",
	}
	if path != MemoryPath {
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if path != MemoryPath {
		// The audit trail names admin accounts; keep it private.
		_ = os.Chmod(path, 0600)
	}

	return &AuditStore{db: db, path: path}, nil
}

// NewMemory opens an in-memory audit store.
func NewMemory() (*AuditStore, error) {
	return Open(MemoryPath)
}

// Path returns the database path the store was opened with.
func (s *AuditStore) Path() string {
	return s.path
}

// Record appends an event. A zero Time is replaced with the current time.
func (s *AuditStore) Record(ctx context.Context, e Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (ts, type, actor, detail, success) VALUES (?, ?, ?, ?, ?)`,
		e.Time.UnixNano(), string(e.Type), e.Actor, e.Detail, boolToInt(e.Success),
	)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, type, actor, detail, success FROM audit_events ORDER BY ts DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			ts      int64
			typ     string
			success int
		)
		if err := rows.Scan(&e.ID, &ts, &typ, &e.Actor, &e.Detail, &success); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Time = time.Unix(0, ts)
		e.Type = EventType(typ)
		e.Success = success != 0
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

// Counts returns the number of recorded events per type.
func (s *AuditStore) Counts(ctx context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Counts{}, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM audit_events GROUP BY type`)
	if err != nil {
		return Counts{}, fmt.Errorf("count audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	c := Counts{ByType: make(map[EventType]int)}
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return Counts{}, fmt.Errorf("scan audit count: %w", err)
		}
		c.ByType[EventType(typ)] = n
		c.Total += n
	}
	return c, rows.Err()
}

// Close closes the database. It is safe to call more than once.
func (s *AuditStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
