// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/store"
	"github.com/lectern-ai/lectern/internal/tool"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// DefaultMaxRounds is the round budget when none is configured.
const DefaultMaxRounds = 2

// defaultMaxTokens bounds the model output per round.
const defaultMaxTokens = 800

// Config holds dependencies and tuning for the Orchestrator.
type Config struct {
	Completion provider.CompletionService
	Model      string
	Tools      *tool.Registry

	SystemPrompt string
	MaxRounds    int
	MaxTokens    int
	Temperature  float32

	// CompletionTimeout bounds each completion call; ToolTimeout bounds
	// each individual tool call. Zero disables the deadline.
	CompletionTimeout time.Duration
	ToolTimeout       time.Duration

	// ReplyAfterToolFailure permits one extra completion call after a
	// round where every tool failed, letting the model word the
	// degraded answer itself. Off, the loop terminates immediately and
	// the assembler synthesizes from whatever text exists.
	ReplyAfterToolFailure bool

	Logger *slog.Logger
}

// Orchestrator drives the round loop for one query at a time. It holds
// no per-run state; every Run owns its own Session.
type Orchestrator struct {
	completion provider.CompletionService
	model      string
	tools      *tool.Registry
	dispatcher *Dispatcher

	systemPrompt          string
	maxRounds             int
	maxTokens             int
	temperature           float32
	completionTimeout     time.Duration
	replyAfterToolFailure bool

	logger *slog.Logger
}

// New creates an Orchestrator. Returns an error if required
// dependencies are missing or the round budget is invalid.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Completion == nil {
		return nil, lecternerr.New(lecternerr.CodeOrchestratorInvalidInput, "Completion is required")
	}
	if cfg.Tools == nil {
		return nil, lecternerr.New(lecternerr.CodeOrchestratorInvalidInput, "Tools is required")
	}
	if cfg.Model == "" {
		return nil, lecternerr.New(lecternerr.CodeOrchestratorInvalidInput, "Model is required")
	}

	maxRounds := cfg.MaxRounds
	if maxRounds == 0 {
		maxRounds = DefaultMaxRounds
	}
	if maxRounds < 1 {
		return nil, lecternerr.Errorf(lecternerr.CodeOrchestratorInvalidInput, "MaxRounds must be >= 1, got %d", maxRounds)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		completion:            cfg.Completion,
		model:                 cfg.Model,
		tools:                 cfg.Tools,
		dispatcher:            NewDispatcher(cfg.Tools, cfg.ToolTimeout, logger),
		systemPrompt:          systemPrompt,
		maxRounds:             maxRounds,
		maxTokens:             maxTokens,
		temperature:           cfg.Temperature,
		completionTimeout:     cfg.CompletionTimeout,
		replyAfterToolFailure: cfg.ReplyAfterToolFailure,
		logger:                logger,
	}, nil
}

// Run executes the round loop for one query and returns the terminal
// response. The full tool schema is sent on every round; only fatal
// completion failures and cancellation propagate as errors.
func (o *Orchestrator) Run(ctx context.Context, query Query, history []store.Exchange) (*FinalResponse, error) {
	if query.Text == "" {
		return nil, lecternerr.New(lecternerr.CodeOrchestratorInvalidInput, "query text is required")
	}

	session := &Session{
		Query:     query,
		MaxRounds: o.maxRounds,
	}
	toolSchema := o.tools.Definitions()
	var usage provider.Usage

	for index := 0; index < o.maxRounds; index++ {
		completion, err := o.complete(ctx, buildContext(history, query, session.Rounds), toolSchema)
		if err != nil {
			return nil, err
		}
		usage.Add(completion.Usage)

		round := &RoundState{
			Index:     index,
			Assistant: assistantMessageOf(completion),
			Calls:     completion.ToolCalls,
		}
		session.Rounds = append(session.Rounds, round)

		decision := Decide(completion, index, o.maxRounds)
		if !decision.Continue {
			round.Reason = decision.Reason
			o.logger.Debug("round loop terminated",
				"session_id", query.SessionID,
				"round", index,
				"reason", decision.Reason,
			)
			break
		}

		round.Outcomes = o.dispatcher.Dispatch(ctx, completion.ToolCalls)
		if err := ctx.Err(); err != nil {
			return nil, lecternerr.Wrap(err, lecternerr.CodeOrchestratorCancelled, "run cancelled during tool dispatch")
		}

		if allFailed(round.Outcomes) {
			round.Reason = ReasonAllToolsFailed
			o.logger.Warn("all tool calls failed, terminating round loop",
				"session_id", query.SessionID,
				"round", index,
				"calls", len(round.Calls),
			)
			if o.replyAfterToolFailure {
				if u, err := o.replyToFailures(ctx, history, query, session); err == nil {
					usage.Add(u)
				} else {
					o.logger.Warn("failure-reply completion failed",
						"session_id", query.SessionID,
						"error", err,
					)
				}
			}
			break
		}
	}

	answer, sources := assemble(session)
	session.Response = &FinalResponse{
		Answer:  answer,
		Sources: sources,
		Reason:  session.Rounds[len(session.Rounds)-1].Reason,
		Usage:   usage,
	}
	return session.Response, nil
}

// complete issues one completion call under the configured timeout.
func (o *Orchestrator) complete(ctx context.Context, msgs []provider.Message, toolSchema []provider.ToolDefinition) (*provider.Completion, error) {
	callCtx := ctx
	if o.completionTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.completionTimeout)
		defer cancel()
	}

	completion, err := o.completion.Complete(callCtx, provider.Request{
		Model:        o.model,
		SystemPrompt: o.systemPrompt,
		Messages:     msgs,
		Tools:        toolSchema,
		Temperature:  o.temperature,
		MaxTokens:    o.maxTokens,
	})
	if err != nil {
		// The parent context ending is a cancellation regardless of how
		// the provider classified it; the per-call deadline alone is a
		// completion failure.
		if ctx.Err() != nil {
			return nil, lecternerr.Wrap(err, lecternerr.CodeOrchestratorCancelled, "run cancelled during completion call")
		}
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, lecternerr.Wrap(err, lecternerr.CodeProviderTransientFailure, "completion call timed out")
		}
		return nil, err
	}
	return completion, nil
}

// replyToFailures issues one extra completion call after an
// all-tools-failed round so the model can word the degraded answer.
// The extra assistant text is recorded as a final round carrying the
// same termination reason.
func (o *Orchestrator) replyToFailures(ctx context.Context, history []store.Exchange, query Query, session *Session) (provider.Usage, error) {
	// No tool schema: the run is terminating, further calls would have
	// nowhere to go.
	completion, err := o.complete(ctx, buildContext(history, query, session.Rounds), nil)
	if err != nil {
		return provider.Usage{}, err
	}

	session.Rounds = append(session.Rounds, &RoundState{
		Index:     len(session.Rounds),
		Assistant: provider.AssistantMessage(completion.Text),
		Reason:    ReasonAllToolsFailed,
	})
	return completion.Usage, nil
}
