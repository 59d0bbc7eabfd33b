// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package store persists per-session conversation history, consumed at
// session boundaries around each reasoning run.
package store

import (
	"context"
	"time"
)

// Exchange is one completed question/answer pair in a session.
type Exchange struct {
	Question  string
	Answer    string
	CreatedAt time.Time
}

// SessionInfo summarises one session for listings.
type SessionInfo struct {
	ID         string
	Exchanges  int
	LastActive time.Time
}

// HistoryStore manages session conversation history.
type HistoryStore interface {
	// Get returns the most recent exchanges for a session, oldest
	// first, capped at limit (0 means the store's default window).
	Get(ctx context.Context, sessionID string, limit int) ([]Exchange, error)

	// Append records a completed exchange.
	Append(ctx context.Context, sessionID string, ex Exchange) error

	// Clear drops all history for a session.
	Clear(ctx context.Context, sessionID string) error

	// Sessions lists known sessions, most recently active first.
	Sessions(ctx context.Context) ([]SessionInfo, error)

	Close() error
}

// DefaultHistoryWindow is how many prior exchanges seed a run's context
// when the caller does not specify a limit.
const DefaultHistoryWindow = 2
