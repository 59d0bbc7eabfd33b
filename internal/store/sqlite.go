// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Compile-time interface check.
var _ HistoryStore = (*SQLiteHistory)(nil)

// SQLiteHistory is a HistoryStore backed by SQLite, for sessions that
// must survive process restarts.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory opens (or creates) a SQLite database at dbPath and
// initialises the exchanges table.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS exchanges (
	rowid      INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, rowid);
`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "migrating history table: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}

// Get returns the most recent exchanges for a session, oldest first.
func (s *SQLiteHistory) Get(ctx context.Context, sessionID string, limit int) ([]Exchange, error) {
	if sessionID == "" {
		return nil, lecternerr.New(lecternerr.CodeStoreInvalidInput, "session ID is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryWindow
	}

	// Newest N rows, then reversed so callers see chronological order.
	const q = `SELECT question, answer, created_at FROM exchanges
WHERE session_id = ? ORDER BY rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "getting history for %s: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	var newestFirst []Exchange
	for rows.Next() {
		var ex Exchange
		var createdAt string
		if err := rows.Scan(&ex.Question, &ex.Answer, &createdAt); err != nil {
			return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "scanning exchange row: %w", err)
		}
		ex.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		newestFirst = append(newestFirst, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "reading exchange rows: %w", err)
	}

	out := make([]Exchange, len(newestFirst))
	for i, ex := range newestFirst {
		out[len(newestFirst)-1-i] = ex
	}
	return out, nil
}

// Append records a completed exchange.
func (s *SQLiteHistory) Append(ctx context.Context, sessionID string, ex Exchange) error {
	if sessionID == "" {
		return lecternerr.New(lecternerr.CodeStoreInvalidInput, "session ID is required")
	}

	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const q = `INSERT INTO exchanges (session_id, question, answer, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, sessionID, ex.Question, ex.Answer, createdAt.Format(time.RFC3339Nano)); err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "appending exchange for %s: %w", sessionID, err)
	}
	return nil
}

// Sessions lists known sessions, most recently active first.
func (s *SQLiteHistory) Sessions(ctx context.Context) ([]SessionInfo, error) {
	const q = `SELECT session_id, COUNT(*), MAX(created_at) FROM exchanges
GROUP BY session_id ORDER BY MAX(created_at) DESC, session_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var lastActive string
		if err := rows.Scan(&info.ID, &info.Exchanges, &lastActive); err != nil {
			return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "scanning session row: %w", err)
		}
		info.LastActive, _ = time.Parse(time.RFC3339Nano, lastActive)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "reading session rows: %w", err)
	}
	return infos, nil
}

// Clear drops all history for a session.
func (s *SQLiteHistory) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE session_id = ?`, sessionID); err != nil {
		return lecternerr.Errorf(lecternerr.CodeStoreDatabaseFailure, "clearing history for %s: %w", sessionID, err)
	}
	return nil
}
