// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/tool"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// scriptedTool runs a caller-supplied function under a fixed name.
type scriptedTool struct {
	name string
	fn   func(ctx context.Context, args map[string]any) (*tool.Result, error)
}

var _ tool.Tool = (*scriptedTool)(nil)

func (s *scriptedTool) Name() string { return s.name }

func (s *scriptedTool) Definition() provider.ToolDefinition {
	return provider.ToolDefinition{Name: s.name, InputSchema: map[string]any{"type": "object"}}
}

func (s *scriptedTool) Execute(ctx context.Context, args map[string]any) (*tool.Result, error) {
	return s.fn(ctx, args)
}

func dispatcherWith(t *testing.T, timeout time.Duration, tools ...tool.Tool) *Dispatcher {
	t.Helper()
	registry := tool.NewRegistry()
	for _, tl := range tools {
		registry.Register(tl)
	}
	return NewDispatcher(registry, timeout, nil)
}

func TestDispatchPreservesCallOrder(t *testing.T) {
	// The first call sleeps past the second's completion; outcomes must
	// still come back in call order, keyed by position and ID.
	slow := &scriptedTool{name: "slow", fn: func(ctx context.Context, _ map[string]any) (*tool.Result, error) {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &tool.Result{Content: "slow result"}, nil
	}}
	fast := &scriptedTool{name: "fast", fn: func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return &tool.Result{Content: "fast result"}, nil
	}}

	d := dispatcherWith(t, 0, slow, fast)
	outcomes := d.Dispatch(context.Background(), []provider.ToolCall{
		{ID: "call_slow", Name: "slow"},
		{ID: "call_fast", Name: "fast"},
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, "call_slow", outcomes[0].CallID)
	assert.Equal(t, "slow result", outcomes[0].Content)
	assert.Equal(t, "call_fast", outcomes[1].CallID)
	assert.Equal(t, "fast result", outcomes[1].Content)
}

func TestDispatchFailureBecomesOutcome(t *testing.T) {
	failing := &scriptedTool{name: "broken", fn: func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return nil, lecternerr.New(lecternerr.CodeKnowledgeQueryFailure, "database locked")
	}}
	working := &scriptedTool{name: "working", fn: func(_ context.Context, _ map[string]any) (*tool.Result, error) {
		return &tool.Result{Content: "fine"}, nil
	}}

	d := dispatcherWith(t, 0, failing, working)
	outcomes := d.Dispatch(context.Background(), []provider.ToolCall{
		{ID: "call_1", Name: "broken"},
		{ID: "call_2", Name: "working"},
	})

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Failed)
	assert.Contains(t, outcomes[0].Content, "tool 'broken' failed:")
	assert.Contains(t, outcomes[0].Content, "database locked")
	assert.False(t, outcomes[1].Failed)
}

func TestDispatchUnknownToolFails(t *testing.T) {
	d := dispatcherWith(t, 0)
	outcomes := d.Dispatch(context.Background(), []provider.ToolCall{
		{ID: "call_1", Name: "no_such_tool"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Failed)
	assert.Contains(t, outcomes[0].Content, "tool 'no_such_tool' failed:")
}

func TestDispatchTimeout(t *testing.T) {
	hanging := &scriptedTool{name: "hanging", fn: func(ctx context.Context, _ map[string]any) (*tool.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	d := dispatcherWith(t, 10*time.Millisecond, hanging)
	outcomes := d.Dispatch(context.Background(), []provider.ToolCall{
		{ID: "call_1", Name: "hanging"},
	})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Failed)
	assert.Contains(t, outcomes[0].Content, "timeout")
}

func TestDispatchEmpty(t *testing.T) {
	d := dispatcherWith(t, 0)
	outcomes := d.Dispatch(context.Background(), nil)
	assert.Empty(t, outcomes)
}

func TestAllFailed(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []ToolOutcome
		want     bool
	}{
		{name: "empty set", outcomes: nil, want: false},
		{name: "all failed", outcomes: []ToolOutcome{{Failed: true}, {Failed: true}}, want: true},
		{name: "one succeeded", outcomes: []ToolOutcome{{Failed: true}, {Failed: false}}, want: false},
		{name: "all succeeded", outcomes: []ToolOutcome{{}, {}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, allFailed(tt.outcomes))
		})
	}
}
