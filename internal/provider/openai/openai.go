// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package openai implements provider.CompletionService against the
// OpenAI Chat Completions API.
package openai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/lectern-ai/lectern/internal/provider"
	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, useful for testing against a mock server
}

// Service implements provider.CompletionService using the OpenAI Chat
// Completions API.
type Service struct {
	client openaisdk.Client
	config Config
}

var _ provider.CompletionService = (*Service)(nil)

// New creates a new OpenAI completion service. Returns an error if the
// API key is missing.
func New(cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, lecternerr.New(
			lecternerr.CodeProviderRequestInvalid,
			"openai: missing api_key in config",
			lecternerr.FieldProvider("openai"),
		)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Service{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

func (s *Service) Name() string { return "openai" }

func (s *Service) Available(_ context.Context) bool { return true }

func (s *Service) Close() error { return nil }

// Complete performs a single non-streaming model call.
func (s *Service) Complete(ctx context.Context, req provider.Request) (*provider.Completion, error) {
	params, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, lecternerr.New(
			lecternerr.CodeProviderResponseInvalid,
			"openai: completion returned no choices",
		)
	}

	return convertCompletion(resp)
}

// buildParams converts a provider.Request into OpenAI SDK ChatCompletionNewParams.
func buildParams(req provider.Request) (openaisdk.ChatCompletionNewParams, error) {
	msgs, err := convertMessages(req.Messages, req.SystemPrompt)
	if err != nil {
		return openaisdk.ChatCompletionNewParams{}, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: msgs,
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(float64(req.Temperature))
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	return params, nil
}

// convertMessages transforms provider messages into OpenAI SDK message
// params. The system prompt is prepended as a system message; each
// tool-result block becomes its own role=tool message.
func convertMessages(msgs []provider.Message, systemPrompt string) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	var result []openaisdk.ChatCompletionMessageParamUnion

	if systemPrompt != "" {
		result = append(result, openaisdk.SystemMessage(systemPrompt))
	}

	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return nil, err
		}

		switch msg.Role {
		case provider.MessageRoleUser:
			result = append(result, openaisdk.UserMessage(textOf(msg)))

		case provider.MessageRoleAssistant:
			assistant := openaisdk.ChatCompletionAssistantMessageParam{}
			if text := textOf(msg); text != "" {
				assistant.Content.OfString = param.NewOpt(text)
			}
			for _, b := range msg.Blocks {
				if b.Kind != provider.BlockKindToolUse {
					continue
				}
				args, err := json.Marshal(b.ToolUse.Arguments)
				if err != nil {
					return nil, lecternerr.Wrapf(err,
						lecternerr.CodeProviderRequestInvalid,
						"openai: encoding arguments for %s", b.ToolUse.Name,
					)
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
					ID: b.ToolUse.ID,
					Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
						Name:      b.ToolUse.Name,
						Arguments: string(args),
					},
				})
			}
			result = append(result, openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

		case provider.MessageRoleToolResult:
			for _, b := range msg.Blocks {
				result = append(result, openaisdk.ToolMessage(b.ToolResult.Content, b.ToolResult.CallID))
			}

		default:
			return nil, lecternerr.Errorf(
				lecternerr.CodeProviderRequestInvalid,
				"openai: unsupported message role %q", msg.Role,
			)
		}
	}

	return result, nil
}

// textOf joins the text blocks of a message.
func textOf(msg provider.Message) string {
	var sb strings.Builder
	for _, b := range msg.Blocks {
		if b.Kind == provider.BlockKindText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// convertTools transforms tool definitions into OpenAI SDK tool params.
func convertTools(tools []provider.ToolDefinition) []openaisdk.ChatCompletionToolParam {
	result := make([]openaisdk.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		result = append(result, openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: param.NewOpt(t.Description),
				Parameters:  shared.FunctionParameters(t.InputSchema),
			},
		})
	}
	return result
}

// convertCompletion maps the first choice into a provider.Completion.
func convertCompletion(resp *openaisdk.ChatCompletion) (*provider.Completion, error) {
	choice := resp.Choices[0]

	out := &provider.Completion{
		Text: choice.Message.Content,
		Usage: provider.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, lecternerr.Wrapf(err,
					lecternerr.CodeProviderResponseInvalid,
					"openai: decoding tool arguments for %s", tc.Function.Name,
				)
			}
		}
		out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	switch choice.FinishReason {
	case "tool_calls":
		out.StopReason = provider.StopReasonToolUse
	case "length":
		out.StopReason = provider.StopReasonMaxTokens
	default:
		out.StopReason = provider.StopReasonEndTurn
	}

	return out, nil
}

// classifyError buckets SDK errors into transient and fatal completion
// failures.
func classifyError(err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return lecternerr.Wrap(err, lecternerr.CodeOrchestratorCancelled, "openai: request cancelled")
	}

	var apierr *openaisdk.Error
	if stderrors.As(err, &apierr) {
		if transientStatus(apierr.StatusCode) {
			return lecternerr.Wrapf(err, lecternerr.CodeProviderTransientFailure,
				"openai: completion failed with status %d", apierr.StatusCode)
		}
		return lecternerr.Wrapf(err, lecternerr.CodeProviderFatalFailure,
			"openai: completion failed with status %d", apierr.StatusCode)
	}

	return lecternerr.Wrap(err, lecternerr.CodeProviderTransientFailure, "openai: completion request failed")
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
