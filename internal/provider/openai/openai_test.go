// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package openai_test

import (
	"context"
	"testing"

	openaisdk "github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/provider/openai"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Compile-time interface satisfaction check.
var _ provider.CompletionService = (*openai.Service)(nil)

func TestOpenAIService_Name(t *testing.T) {
	s := mustNewService(t)
	assert.Equal(t, "openai", s.Name())
}

func TestOpenAIService_MissingAPIKey(t *testing.T) {
	_, err := openai.New(openai.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
	assert.True(t, lecternerr.HasCode(err, lecternerr.CodeProviderRequestInvalid))
}

func TestConvertMessages(t *testing.T) {
	call := provider.ToolCall{
		ID:        "call_abc",
		Name:      "get_course_outline",
		Arguments: map[string]any{"course_name": "MCP"},
	}

	msgs := []provider.Message{
		provider.UserMessage("show me the MCP course outline"),
		provider.AssistantMessage("", call),
		provider.ToolResultMessage(
			provider.ToolResultBlock{CallID: "call_abc", Content: "Lesson 1: Intro"},
		),
	}

	converted, err := openai.ConvertMessages(msgs, "You answer course questions.")
	require.NoError(t, err)
	// system + user + assistant + one tool message per result block
	require.Len(t, converted, 4)

	assert.NotNil(t, converted[0].OfSystem)
	assert.NotNil(t, converted[1].OfUser)
	require.NotNil(t, converted[2].OfAssistant)
	require.Len(t, converted[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "call_abc", converted[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, "get_course_outline", converted[2].OfAssistant.ToolCalls[0].Function.Name)
	require.NotNil(t, converted[3].OfTool)
	assert.Equal(t, "call_abc", converted[3].OfTool.ToolCallID)
}

func TestConvertMessagesSplitsToolResults(t *testing.T) {
	msgs := []provider.Message{
		provider.ToolResultMessage(
			provider.ToolResultBlock{CallID: "call_1", Content: "first"},
			provider.ToolResultBlock{CallID: "call_2", Content: "second", IsError: true},
		),
	}

	converted, err := openai.ConvertMessages(msgs, "")
	require.NoError(t, err)
	require.Len(t, converted, 2)
	assert.Equal(t, "call_1", converted[0].OfTool.ToolCallID)
	assert.Equal(t, "call_2", converted[1].OfTool.ToolCallID)
}

func TestBuildParams(t *testing.T) {
	req := provider.Request{
		Model:        "gpt-4.1-mini",
		SystemPrompt: "You answer course questions.",
		Messages:     []provider.Message{provider.UserMessage("hello")},
		Tools: []provider.ToolDefinition{
			{
				Name:        "search_course_content",
				Description: "Search indexed course material.",
				InputSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"query": map[string]any{"type": "string"}},
					"required":   []any{"query"},
				},
			},
		},
		Temperature: 0.2,
		MaxTokens:   800,
	}

	params, err := openai.BuildParams(req)
	require.NoError(t, err)
	assert.EqualValues(t, "gpt-4.1-mini", params.Model)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "search_course_content", params.Tools[0].Function.Name)
	assert.EqualValues(t, 800, params.MaxCompletionTokens.Value)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode lecternerr.Code
	}{
		{name: "rate limited", status: 429, wantCode: lecternerr.CodeProviderTransientFailure},
		{name: "server error", status: 503, wantCode: lecternerr.CodeProviderTransientFailure},
		{name: "bad request", status: 400, wantCode: lecternerr.CodeProviderFatalFailure},
		{name: "unprocessable", status: 422, wantCode: lecternerr.CodeProviderFatalFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := openai.ClassifyError(&openaisdk.Error{StatusCode: tt.status})
			assert.Equal(t, tt.wantCode, lecternerr.CodeOf(err))
		})
	}

	t.Run("deadline exceeded", func(t *testing.T) {
		err := openai.ClassifyError(context.DeadlineExceeded)
		assert.Equal(t, lecternerr.CodeOrchestratorCancelled, lecternerr.CodeOf(err))
	})
}

// mustNewService creates a service with a dummy API key for unit tests.
func mustNewService(t *testing.T) *openai.Service {
	t.Helper()
	s, err := openai.New(openai.Config{
		APIKey: "test-key-not-real",
	})
	require.NoError(t, err)
	return s
}
