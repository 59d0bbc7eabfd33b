// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package anthropic implements provider.CompletionService against the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	stderrors "errors"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lectern-ai/lectern/internal/provider"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Service implements provider.CompletionService using the Anthropic
// Messages API.
type Service struct {
	client anthropicsdk.Client
	config Config
}

var _ provider.CompletionService = (*Service)(nil)

// New creates a new Anthropic completion service. Returns an error if
// the API key is missing.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, lecternerr.New(
			lecternerr.CodeProviderRequestInvalid,
			"anthropic: missing api_key in config",
			lecternerr.FieldProvider("anthropic"),
		)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Service{
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
	}, nil
}

func (s *Service) Name() string { return "anthropic" }

func (s *Service) Available(_ context.Context) bool { return true }

func (s *Service) Close() error { return nil }

// Complete performs a single non-streaming model call.
func (s *Service) Complete(ctx context.Context, req provider.Request) (*provider.Completion, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	return convertCompletion(msg)
}

// buildParams converts a provider.Request into Anthropic SDK MessageNewParams.
func buildParams(req provider.Request) (anthropicsdk.MessageNewParams, error) {
	msgs, err := convertMessages(req.Messages)
	if err != nil {
		return anthropicsdk.MessageNewParams{}, err
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(req.Model),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}

	if req.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	if req.Temperature > 0 {
		params.Temperature = anthropicsdk.Float(float64(req.Temperature))
	}

	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	return params, nil
}

// convertMessages transforms provider messages into Anthropic SDK
// MessageParam values. Tool results travel as user messages carrying
// tool_result blocks.
func convertMessages(msgs []provider.Message) ([]anthropicsdk.MessageParam, error) {
	result := make([]anthropicsdk.MessageParam, 0, len(msgs))

	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return nil, err
		}

		blocks := make([]anthropicsdk.ContentBlockParamUnion, 0, len(msg.Blocks))
		for _, b := range msg.Blocks {
			switch b.Kind {
			case provider.BlockKindText:
				blocks = append(blocks, anthropicsdk.NewTextBlock(b.Text))
			case provider.BlockKindToolUse:
				blocks = append(blocks, anthropicsdk.NewToolUseBlock(
					b.ToolUse.ID, b.ToolUse.Arguments, b.ToolUse.Name,
				))
			case provider.BlockKindToolResult:
				blocks = append(blocks, anthropicsdk.NewToolResultBlock(
					b.ToolResult.CallID, b.ToolResult.Content, b.ToolResult.IsError,
				))
			}
		}

		switch msg.Role {
		case provider.MessageRoleUser, provider.MessageRoleToolResult:
			result = append(result, anthropicsdk.NewUserMessage(blocks...))
		case provider.MessageRoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(blocks...))
		default:
			return nil, lecternerr.Errorf(
				lecternerr.CodeProviderRequestInvalid,
				"anthropic: unsupported message role %q", msg.Role,
			)
		}
	}

	return result, nil
}

// convertTools transforms tool definitions into Anthropic SDK tool params.
func convertTools(tools []provider.ToolDefinition) []anthropicsdk.ToolUnionParam {
	result := make([]anthropicsdk.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := extractSchema(t.InputSchema)
		result = append(result, anthropicsdk.ToolUnionParam{
			OfTool: &anthropicsdk.ToolParam{
				Name:        t.Name,
				Description: anthropicsdk.Opt(t.Description),
				InputSchema: schema,
			},
		})
	}
	return result
}

// extractSchema maps a full JSON Schema object (keys like "type",
// "properties", "required") into the SDK's ToolInputSchemaParam, which
// expects Properties and Required as separate fields.
func extractSchema(raw map[string]any) anthropicsdk.ToolInputSchemaParam {
	schema := anthropicsdk.ToolInputSchemaParam{}
	if props, ok := raw["properties"]; ok {
		schema.Properties = props
	}
	if req, ok := raw["required"]; ok {
		if arr, ok := req.([]any); ok {
			strs := make([]string, 0, len(arr))
			for _, v := range arr {
				if s, ok := v.(string); ok {
					strs = append(strs, s)
				}
			}
			schema.Required = strs
		}
	}
	return schema
}

// convertCompletion maps an SDK message into a provider.Completion,
// preserving the order tool-use blocks appear in the response.
func convertCompletion(msg *anthropicsdk.Message) (*provider.Completion, error) {
	out := &provider.Completion{
		Usage: provider.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			out.Text += b.Text
		case anthropicsdk.ToolUseBlock:
			var args map[string]any
			if raw := b.JSON.Input.Raw(); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return nil, lecternerr.Wrapf(err,
						lecternerr.CodeProviderResponseInvalid,
						"anthropic: decoding tool input for %s", b.Name,
					)
				}
			}
			out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}

	switch msg.StopReason {
	case anthropicsdk.StopReasonToolUse:
		out.StopReason = provider.StopReasonToolUse
	case anthropicsdk.StopReasonMaxTokens:
		out.StopReason = provider.StopReasonMaxTokens
	default:
		out.StopReason = provider.StopReasonEndTurn
	}

	return out, nil
}

// classifyError buckets SDK errors into transient and fatal completion
// failures. Rate limits, server errors, and timeouts retry on a later
// round; schema and auth problems do not.
func classifyError(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return lecternerr.Wrap(err, lecternerr.CodeOrchestratorCancelled, "anthropic: request cancelled")
	}

	var apierr *anthropicsdk.Error
	if stderrors.As(err, &apierr) {
		if transientStatus(apierr.StatusCode) {
			return lecternerr.Wrapf(err, lecternerr.CodeProviderTransientFailure,
				"anthropic: completion failed with status %d", apierr.StatusCode)
		}
		return lecternerr.Wrapf(err, lecternerr.CodeProviderFatalFailure,
			"anthropic: completion failed with status %d", apierr.StatusCode)
	}

	// Network-level failures without an HTTP status are retryable.
	return lecternerr.Wrap(err, lecternerr.CodeProviderTransientFailure, "anthropic: completion request failed")
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
