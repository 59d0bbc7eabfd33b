// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/store"
)

func TestBuildContextFirstRound(t *testing.T) {
	msgs := buildContext(nil, Query{Text: "What is lesson 2 about?"}, nil)

	require.Len(t, msgs, 1)
	assert.Equal(t, provider.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "What is lesson 2 about?", msgs[0].Blocks[0].Text)
}

func TestBuildContextHistoryPrefix(t *testing.T) {
	history := []store.Exchange{
		{Question: "first question", Answer: "first answer"},
		{Question: "second question", Answer: "second answer"},
	}

	msgs := buildContext(history, Query{Text: "third question"}, nil)

	require.Len(t, msgs, 5)
	assert.Equal(t, provider.MessageRoleUser, msgs[0].Role)
	assert.Equal(t, "first question", msgs[0].Blocks[0].Text)
	assert.Equal(t, provider.MessageRoleAssistant, msgs[1].Role)
	assert.Equal(t, "first answer", msgs[1].Blocks[0].Text)
	assert.Equal(t, "second question", msgs[2].Blocks[0].Text)
	assert.Equal(t, "second answer", msgs[3].Blocks[0].Text)
	assert.Equal(t, "third question", msgs[4].Blocks[0].Text)
}

func TestBuildContextReplaysRounds(t *testing.T) {
	calls := []provider.ToolCall{
		{ID: "call_a", Name: "search_course_content", Arguments: map[string]any{"query": "mcp"}},
		{ID: "call_b", Name: "get_course_outline", Arguments: map[string]any{"course_name": "MCP"}},
	}
	rounds := []*RoundState{
		{
			Index:     0,
			Assistant: provider.AssistantMessage("searching", calls...),
			Calls:     calls,
			Outcomes: []ToolOutcome{
				{CallID: "call_a", ToolName: "search_course_content", Content: "found it"},
				{CallID: "call_b", ToolName: "get_course_outline", Content: "tool 'get_course_outline' failed: boom", Failed: true},
			},
		},
	}

	msgs := buildContext(nil, Query{Text: "tell me about MCP"}, rounds)

	require.Len(t, msgs, 3)
	assert.Equal(t, provider.MessageRoleUser, msgs[0].Role)

	assistant := msgs[1]
	assert.Equal(t, provider.MessageRoleAssistant, assistant.Role)
	require.Len(t, assistant.Blocks, 3)
	assert.Equal(t, provider.BlockKindText, assistant.Blocks[0].Kind)
	assert.Equal(t, "call_a", assistant.Blocks[1].ToolUse.ID)
	assert.Equal(t, "call_b", assistant.Blocks[2].ToolUse.ID)

	results := msgs[2]
	assert.Equal(t, provider.MessageRoleToolResult, results.Role)
	require.Len(t, results.Blocks, 2)
	assert.Equal(t, "call_a", results.Blocks[0].ToolResult.CallID)
	assert.Equal(t, "found it", results.Blocks[0].ToolResult.Content)
	assert.False(t, results.Blocks[0].ToolResult.IsError)
	assert.Equal(t, "call_b", results.Blocks[1].ToolResult.CallID)
	assert.True(t, results.Blocks[1].ToolResult.IsError)
}

func TestBuildContextTerminalRoundHasNoResults(t *testing.T) {
	// A round that terminated before dispatch carries no outcomes and
	// therefore contributes only its assistant message.
	rounds := []*RoundState{
		{
			Index:     0,
			Assistant: provider.AssistantMessage("the answer"),
			Reason:    ReasonNaturalCompletion,
		},
	}

	msgs := buildContext(nil, Query{Text: "question"}, rounds)

	require.Len(t, msgs, 2)
	assert.Equal(t, provider.MessageRoleAssistant, msgs[1].Role)
}

func TestAssistantMessageOf(t *testing.T) {
	completion := &provider.Completion{
		Text: "checking two things",
		ToolCalls: []provider.ToolCall{
			{ID: "call_1", Name: "search_course_content"},
			{ID: "call_2", Name: "get_course_outline"},
		},
	}

	msg := assistantMessageOf(completion)

	require.NoError(t, msg.Validate())
	assert.Equal(t, provider.MessageRoleAssistant, msg.Role)
	require.Len(t, msg.Blocks, 3)
	assert.Equal(t, "call_1", msg.Blocks[1].ToolUse.ID)
	assert.Equal(t, "call_2", msg.Blocks[2].ToolUse.ID)
}

func TestAssistantMessageOfToolOnly(t *testing.T) {
	completion := &provider.Completion{
		ToolCalls: []provider.ToolCall{{ID: "call_1", Name: "search_course_content"}},
	}

	msg := assistantMessageOf(completion)

	require.Len(t, msg.Blocks, 1)
	assert.Equal(t, provider.BlockKindToolUse, msg.Blocks[0].Kind)
}
