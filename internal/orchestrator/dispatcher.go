// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/tool"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Dispatcher executes one round's tool calls with per-call isolation.
type Dispatcher struct {
	registry *tool.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given tool registry.
// A timeout of 0 disables per-call deadlines.
func NewDispatcher(registry *tool.Registry, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, timeout: timeout, logger: logger}
}

// Dispatch executes all tool calls of a round concurrently and joins
// their outcomes in original call order. Every call produces exactly
// one outcome; a failing call yields a failure outcome the model can
// read, never an error to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []provider.ToolCall) []ToolOutcome {
	outcomes := make([]ToolOutcome, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call provider.ToolCall) {
			defer wg.Done()
			outcomes[i] = d.dispatchOne(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return outcomes
}

// dispatchOne runs a single tool call under its own timeout.
func (d *Dispatcher) dispatchOne(ctx context.Context, call provider.ToolCall) ToolOutcome {
	execCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := d.registry.Execute(execCtx, call.Name, call.Arguments)
	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			err = lecternerr.Wrapf(err, lecternerr.CodeToolTimeout, "tool %q execution timeout", call.Name)
		}
		d.logger.Warn("tool call failed",
			"tool", call.Name,
			"call_id", call.ID,
			"duration", time.Since(start),
			"error", err,
		)
		return ToolOutcome{
			CallID:   call.ID,
			ToolName: call.Name,
			Content:  fmt.Sprintf("tool '%s' failed: %s", call.Name, err.Error()),
			Failed:   true,
		}
	}

	d.logger.Debug("tool call completed",
		"tool", call.Name,
		"call_id", call.ID,
		"duration", time.Since(start),
	)
	return ToolOutcome{
		CallID:   call.ID,
		ToolName: call.Name,
		Content:  result.Content,
		Sources:  result.Sources,
	}
}

// allFailed reports whether every outcome in a non-empty set failed.
func allFailed(outcomes []ToolOutcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !o.Failed {
			return false
		}
	}
	return true
}
