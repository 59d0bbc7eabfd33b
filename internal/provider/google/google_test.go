// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package google_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/provider/google"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Compile-time interface satisfaction check.
var _ provider.CompletionService = (*google.Service)(nil)

func TestGoogleService_MissingAPIKey(t *testing.T) {
	_, err := google.New(context.Background(), google.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
	assert.True(t, lecternerr.HasCode(err, lecternerr.CodeProviderRequestInvalid))
}

func TestConvertMessages(t *testing.T) {
	call := provider.ToolCall{
		ID:        "fc_1",
		Name:      "search_course_content",
		Arguments: map[string]any{"query": "embeddings", "lesson_number": float64(4)},
	}

	msgs := []provider.Message{
		provider.UserMessage("what does lesson 4 cover?"),
		provider.AssistantMessage("checking the index", call),
		provider.ToolResultMessage(
			provider.ToolResultBlock{CallID: "fc_1", Content: "[Course - Lesson 4] Embeddings"},
			provider.ToolResultBlock{CallID: "fc_2", Content: "tool 'x' failed: boom", IsError: true},
		),
	}

	contents, err := google.ConvertMessages(msgs)
	require.NoError(t, err)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	require.NotNil(t, contents[1].Parts[1].FunctionCall)
	assert.Equal(t, "search_course_content", contents[1].Parts[1].FunctionCall.Name)

	// Tool results ride as user-role FunctionResponse parts.
	assert.Equal(t, "user", contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	require.NotNil(t, contents[2].Parts[0].FunctionResponse)
	assert.Contains(t, contents[2].Parts[0].FunctionResponse.Response, "result")
	assert.Contains(t, contents[2].Parts[1].FunctionResponse.Response, "error")
}

func TestConvertTools(t *testing.T) {
	tools := google.ConvertTools([]provider.ToolDefinition{
		{Name: "get_course_outline", Description: "Fetch a course outline."},
		{Name: "search_course_content", Description: "Search indexed material."},
	})
	require.Len(t, tools, 1)
	require.Len(t, tools[0].FunctionDeclarations, 2)
	assert.Equal(t, "get_course_outline", tools[0].FunctionDeclarations[0].Name)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		wantCode lecternerr.Code
	}{
		{name: "rate limited", code: 429, wantCode: lecternerr.CodeProviderTransientFailure},
		{name: "server error", code: 500, wantCode: lecternerr.CodeProviderTransientFailure},
		{name: "bad request", code: 400, wantCode: lecternerr.CodeProviderFatalFailure},
		{name: "permission denied", code: 403, wantCode: lecternerr.CodeProviderFatalFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := google.ClassifyError(genai.APIError{Code: tt.code})
			assert.Equal(t, tt.wantCode, lecternerr.CodeOf(err))
		})
	}

	t.Run("cancellation", func(t *testing.T) {
		err := google.ClassifyError(context.Canceled)
		assert.Equal(t, lecternerr.CodeOrchestratorCancelled, lecternerr.CodeOf(err))
	})
}
