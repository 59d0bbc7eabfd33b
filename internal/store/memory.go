// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Compile-time interface check.
var _ HistoryStore = (*MemoryHistory)(nil)

// MemoryHistory is an in-process HistoryStore for single-binary runs
// and tests.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string][]Exchange
}

// NewMemoryHistory creates an empty MemoryHistory.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{
		sessions: make(map[string][]Exchange),
	}
}

// Get returns the most recent exchanges for a session, oldest first.
func (m *MemoryHistory) Get(_ context.Context, sessionID string, limit int) ([]Exchange, error) {
	if sessionID == "" {
		return nil, lecternerr.New(lecternerr.CodeStoreInvalidInput, "session ID is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryWindow
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[sessionID]
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]Exchange, len(history))
	copy(out, history)
	return out, nil
}

// Append records a completed exchange.
func (m *MemoryHistory) Append(_ context.Context, sessionID string, ex Exchange) error {
	if sessionID == "" {
		return lecternerr.New(lecternerr.CodeStoreInvalidInput, "session ID is required")
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], ex)
	return nil
}

// Sessions lists known sessions, most recently active first.
func (m *MemoryHistory) Sessions(_ context.Context) ([]SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for id, history := range m.sessions {
		info := SessionInfo{ID: id, Exchanges: len(history)}
		if len(history) > 0 {
			info.LastActive = history[len(history)-1].CreatedAt
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].LastActive.Equal(infos[j].LastActive) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].LastActive.After(infos[j].LastActive)
	})
	return infos, nil
}

// Clear drops all history for a session.
func (m *MemoryHistory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryHistory) Close() error { return nil }
