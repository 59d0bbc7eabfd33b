// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package assistant owns the session boundary around a reasoning run:
// it resolves the session, feeds prior exchanges into the orchestrator,
// and persists the finished exchange.
package assistant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lectern-ai/lectern/internal/orchestrator"
	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/store"
	"github.com/lectern-ai/lectern/internal/tool"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Config holds dependencies for an Assistant.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	History      store.HistoryStore

	// HistoryWindow caps how many prior exchanges seed each run.
	// Zero uses store.DefaultHistoryWindow.
	HistoryWindow int

	Logger *slog.Logger
}

// Assistant answers questions within sessions. Runs in the same
// session execute serially; distinct sessions run independently.
type Assistant struct {
	orch          *orchestrator.Orchestrator
	history       store.HistoryStore
	historyWindow int
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
	metrics  Metrics
}

// Answer is the session-level result of one question.
type Answer struct {
	SessionID string
	Text      string
	Sources   []tool.Source
	Reason    orchestrator.TerminationReason
	Usage     provider.Usage
}

// Metrics is a snapshot of session-level counters.
type Metrics struct {
	Runs          int
	Failures      int
	ByTermination map[orchestrator.TerminationReason]int
}

// New creates an Assistant.
func New(cfg Config) (*Assistant, error) {
	if cfg.Orchestrator == nil {
		return nil, lecternerr.New(lecternerr.CodeOrchestratorInvalidInput, "Orchestrator is required")
	}
	if cfg.History == nil {
		return nil, lecternerr.New(lecternerr.CodeOrchestratorInvalidInput, "History is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Assistant{
		orch:          cfg.Orchestrator,
		history:       cfg.History,
		historyWindow: cfg.HistoryWindow,
		logger:        logger,
		sessions:      make(map[string]*sync.Mutex),
		metrics: Metrics{
			ByTermination: make(map[orchestrator.TerminationReason]int),
		},
	}, nil
}

// Ask answers one question. An empty sessionID starts a new session;
// the returned Answer carries the ID for follow-ups.
func (a *Assistant) Ask(ctx context.Context, question, sessionID string) (*Answer, error) {
	if question == "" {
		return nil, lecternerr.New(lecternerr.CodeOrchestratorInvalidInput, "question is required")
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	lock := a.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	history, err := a.history.Get(ctx, sessionID, a.historyWindow)
	if err != nil {
		return nil, err
	}

	resp, err := a.orch.Run(ctx, orchestrator.Query{Text: question, SessionID: sessionID}, history)
	if err != nil {
		a.count(func(m *Metrics) { m.Runs++; m.Failures++ })
		return nil, lecternerr.With(err, lecternerr.FieldSessionID(sessionID))
	}
	a.count(func(m *Metrics) { m.Runs++; m.ByTermination[resp.Reason]++ })

	if err := a.history.Append(ctx, sessionID, store.Exchange{
		Question: question,
		Answer:   resp.Answer,
	}); err != nil {
		// The answer is already in hand; losing the history write
		// degrades follow-ups but should not fail the run.
		a.logger.Warn("failed to persist exchange",
			"session_id", sessionID,
			"error", err,
		)
	}

	return &Answer{
		SessionID: sessionID,
		Text:      resp.Answer,
		Sources:   resp.Sources,
		Reason:    resp.Reason,
		Usage:     resp.Usage,
	}, nil
}

// Reset drops the stored history for a session.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return lecternerr.New(lecternerr.CodeStoreInvalidInput, "session ID is required")
	}
	return a.history.Clear(ctx, sessionID)
}

// Sessions lists known sessions, most recently active first.
func (a *Assistant) Sessions(ctx context.Context) ([]store.SessionInfo, error) {
	return a.history.Sessions(ctx)
}

// Metrics returns a snapshot of the session counters.
func (a *Assistant) Metrics() Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := Metrics{
		Runs:          a.metrics.Runs,
		Failures:      a.metrics.Failures,
		ByTermination: make(map[orchestrator.TerminationReason]int, len(a.metrics.ByTermination)),
	}
	for reason, n := range a.metrics.ByTermination {
		snapshot.ByTermination[reason] = n
	}
	return snapshot
}

// sessionLock returns the mutex serialising runs for one session.
func (a *Assistant) sessionLock(sessionID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.sessions[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		a.sessions[sessionID] = lock
	}
	return lock
}

// count applies a mutation to the metrics under the assistant lock.
func (a *Assistant) count(fn func(*Metrics)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.metrics)
}
