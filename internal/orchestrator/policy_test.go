// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lectern-ai/lectern/internal/provider"
)

func TestDecide(t *testing.T) {
	withCalls := &provider.Completion{
		Text:       "let me look that up",
		ToolCalls:  []provider.ToolCall{{ID: "call_1", Name: "search_course_content"}},
		StopReason: provider.StopReasonToolUse,
	}
	withoutCalls := &provider.Completion{
		Text:       "here is the answer",
		StopReason: provider.StopReasonEndTurn,
	}

	tests := []struct {
		name       string
		completion *provider.Completion
		roundIndex int
		maxRounds  int
		want       Decision
	}{
		{
			name:       "no tool calls stops naturally",
			completion: withoutCalls,
			roundIndex: 0,
			maxRounds:  2,
			want:       Decision{Reason: ReasonNaturalCompletion},
		},
		{
			name:       "no tool calls on last round is still natural",
			completion: withoutCalls,
			roundIndex: 1,
			maxRounds:  2,
			want:       Decision{Reason: ReasonNaturalCompletion},
		},
		{
			name:       "tool calls mid-budget continue",
			completion: withCalls,
			roundIndex: 0,
			maxRounds:  2,
			want:       Decision{Continue: true},
		},
		{
			name:       "tool calls on last round hit the budget",
			completion: withCalls,
			roundIndex: 1,
			maxRounds:  2,
			want:       Decision{Reason: ReasonMaxRounds},
		},
		{
			name:       "single-round budget stops immediately on tool calls",
			completion: withCalls,
			roundIndex: 0,
			maxRounds:  1,
			want:       Decision{Reason: ReasonMaxRounds},
		},
		{
			name:       "deep budget continues on intermediate rounds",
			completion: withCalls,
			roundIndex: 3,
			maxRounds:  5,
			want:       Decision{Continue: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.completion, tt.roundIndex, tt.maxRounds))
		})
	}
}
