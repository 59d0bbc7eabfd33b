// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package google implements provider.CompletionService against the
// Google Gemini API.
package google

import (
	"context"
	stderrors "errors"

	"google.golang.org/genai"

	"github.com/lectern-ai/lectern/internal/provider"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Config holds Google provider configuration.
type Config struct {
	APIKey string
}

// Service implements provider.CompletionService using the Google Gemini API.
type Service struct {
	client *genai.Client
	config Config
}

var _ provider.CompletionService = (*Service)(nil)

// New creates a new Google completion service. Returns an error if the
// API key is missing.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, lecternerr.New(
			lecternerr.CodeProviderRequestInvalid,
			"google: missing api_key in config",
			lecternerr.FieldProvider("google"),
		)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, lecternerr.Wrapf(err, lecternerr.CodeProviderFatalFailure, "google: creating client")
	}

	return &Service{client: client, config: cfg}, nil
}

func (s *Service) Name() string { return "google" }

func (s *Service) Available(_ context.Context) bool { return true }

func (s *Service) Close() error { return nil }

// Complete performs a single non-streaming model call.
func (s *Service) Complete(ctx context.Context, req provider.Request) (*provider.Completion, error) {
	contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Models.GenerateContent(ctx, req.Model, contents, buildConfig(req))
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, lecternerr.New(
			lecternerr.CodeProviderResponseInvalid,
			"google: completion returned no candidates",
		)
	}

	return convertCompletion(resp), nil
}

// buildConfig converts a provider.Request into a genai.GenerateContentConfig.
func buildConfig(req provider.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: req.SystemPrompt},
			},
		}
	}
	if len(req.Tools) > 0 {
		cfg.Tools = convertTools(req.Tools)
	}

	return cfg
}

// convertMessages transforms provider messages into genai.Content slices.
// Tool results become FunctionResponse parts on a user-role content.
func convertMessages(msgs []provider.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return nil, err
		}

		var role string
		switch msg.Role {
		case provider.MessageRoleUser, provider.MessageRoleToolResult:
			role = "user"
		case provider.MessageRoleAssistant:
			role = "model"
		default:
			return nil, lecternerr.Errorf(lecternerr.CodeProviderRequestInvalid, "google: unsupported message role %q", msg.Role)
		}

		parts := make([]*genai.Part, 0, len(msg.Blocks))
		for _, b := range msg.Blocks {
			switch b.Kind {
			case provider.BlockKindText:
				parts = append(parts, &genai.Part{Text: b.Text})
			case provider.BlockKindToolUse:
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   b.ToolUse.ID,
						Name: b.ToolUse.Name,
						Args: b.ToolUse.Arguments,
					},
				})
			case provider.BlockKindToolResult:
				response := map[string]any{"result": b.ToolResult.Content}
				if b.ToolResult.IsError {
					response = map[string]any{"error": b.ToolResult.Content}
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       b.ToolResult.CallID,
						Response: response,
					},
				})
			}
		}

		result = append(result, &genai.Content{Role: role, Parts: parts})
	}

	return result, nil
}

// convertTools transforms tool definitions into genai.Tool slices.
func convertTools(tools []provider.ToolDefinition) []*genai.Tool {
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.InputSchema,
		})
	}
	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

// convertCompletion maps the first candidate into a provider.Completion.
func convertCompletion(resp *genai.GenerateContentResponse) *provider.Completion {
	out := &provider.Completion{}

	candidate := resp.Candidates[0]
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			out.Text += part.Text
		}
		if part.FunctionCall != nil {
			out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}

	switch {
	case len(out.ToolCalls) > 0:
		out.StopReason = provider.StopReasonToolUse
	case candidate.FinishReason == genai.FinishReasonMaxTokens:
		out.StopReason = provider.StopReasonMaxTokens
	default:
		out.StopReason = provider.StopReasonEndTurn
	}

	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	return out
}

// classifyError buckets SDK errors into transient and fatal completion
// failures.
func classifyError(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return lecternerr.Wrap(err, lecternerr.CodeOrchestratorCancelled, "google: request cancelled")
	}

	var apierr genai.APIError
	if stderrors.As(err, &apierr) {
		if transientStatus(apierr.Code) {
			return lecternerr.Wrapf(err, lecternerr.CodeProviderTransientFailure,
				"google: completion failed with status %d", apierr.Code)
		}
		return lecternerr.Wrapf(err, lecternerr.CodeProviderFatalFailure,
			"google: completion failed with status %d", apierr.Code)
	}

	return lecternerr.Wrap(err, lecternerr.CodeProviderTransientFailure, "google: completion request failed")
}

func transientStatus(status int) bool {
	switch {
	case status == 408, status == 429:
		return true
	case status >= 500:
		return true
	}
	return false
}
