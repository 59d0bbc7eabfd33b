// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package provider defines the completion abstraction shared by all
// model backends, plus the registry that routes requests to one of them.
package provider

import (
	"context"

	lecternerr "github.com/lectern-ai/lectern/pkg/errors"
)

// CompletionService is the core interface for LLM completion backends.
// Complete performs exactly one model call; it never loops over tool use.
type CompletionService interface {
	Name() string
	Available(ctx context.Context) bool
	Complete(ctx context.Context, req Request) (*Completion, error)
	Close() error
}

// Request represents a single completion request.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
	Temperature  float32
	MaxTokens    int
}

// Message is one conversation entry. A message carries one or more
// content blocks; block kinds must be consistent with the role
// (assistant messages may mix text and tool-use, tool-result messages
// carry only tool-result blocks).
type Message struct {
	Role   MessageRole
	Blocks []Block
}

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	MessageRoleUser       MessageRole = "user"
	MessageRoleAssistant  MessageRole = "assistant"
	MessageRoleToolResult MessageRole = "tool_result"
)

// BlockKind discriminates the content block variants.
type BlockKind string

const (
	BlockKindText       BlockKind = "text"
	BlockKindToolUse    BlockKind = "tool_use"
	BlockKindToolResult BlockKind = "tool_result"
)

// Block is a tagged content block. Exactly the fields for its Kind are set.
type Block struct {
	Kind BlockKind

	// Text content (BlockKindText).
	Text string

	// Tool invocation (BlockKindToolUse).
	ToolUse *ToolCall

	// Tool outcome (BlockKindToolResult).
	ToolResult *ToolResultBlock
}

// ToolResultBlock carries the outcome of one tool call back to the model.
// CallID must match the ID of the tool-use block it answers.
type ToolResultBlock struct {
	CallID  string
	Content string
	IsError bool
}

// TextBlock builds a text content block.
func TextBlock(text string) Block {
	return Block{Kind: BlockKindText, Text: text}
}

// ToolUseBlock builds a tool-use content block.
func ToolUseBlock(call ToolCall) Block {
	return Block{Kind: BlockKindToolUse, ToolUse: &call}
}

// ToolResultBlockOf builds a tool-result content block.
func ToolResultBlockOf(callID, content string, isError bool) Block {
	return Block{Kind: BlockKindToolResult, ToolResult: &ToolResultBlock{
		CallID:  callID,
		Content: content,
		IsError: isError,
	}}
}

// UserMessage builds a plain text user message.
func UserMessage(text string) Message {
	return Message{Role: MessageRoleUser, Blocks: []Block{TextBlock(text)}}
}

// AssistantMessage builds an assistant message from an optional text
// segment and zero or more tool calls, preserving call order.
func AssistantMessage(text string, calls ...ToolCall) Message {
	blocks := make([]Block, 0, 1+len(calls))
	if text != "" {
		blocks = append(blocks, TextBlock(text))
	}
	for _, c := range calls {
		blocks = append(blocks, ToolUseBlock(c))
	}
	return Message{Role: MessageRoleAssistant, Blocks: blocks}
}

// ToolResultMessage builds a tool-result message from block contents.
func ToolResultMessage(results ...ToolResultBlock) Message {
	blocks := make([]Block, 0, len(results))
	for _, r := range results {
		r := r
		blocks = append(blocks, Block{Kind: BlockKindToolResult, ToolResult: &r})
	}
	return Message{Role: MessageRoleToolResult, Blocks: blocks}
}

// Validate checks role/block consistency for a message.
func (m Message) Validate() error {
	if len(m.Blocks) == 0 {
		return lecternerr.New(lecternerr.CodeProviderRequestInvalid, "message has no content blocks")
	}
	for _, b := range m.Blocks {
		switch b.Kind {
		case BlockKindText:
			if m.Role == MessageRoleToolResult {
				return lecternerr.New(lecternerr.CodeProviderRequestInvalid, "text block in tool-result message")
			}
		case BlockKindToolUse:
			if m.Role != MessageRoleAssistant {
				return lecternerr.Errorf(lecternerr.CodeProviderRequestInvalid, "tool-use block in %s message", m.Role)
			}
			if b.ToolUse == nil || b.ToolUse.ID == "" || b.ToolUse.Name == "" {
				return lecternerr.New(lecternerr.CodeProviderRequestInvalid, "tool-use block missing call ID or name")
			}
		case BlockKindToolResult:
			if m.Role != MessageRoleToolResult {
				return lecternerr.Errorf(lecternerr.CodeProviderRequestInvalid, "tool-result block in %s message", m.Role)
			}
			if b.ToolResult == nil || b.ToolResult.CallID == "" {
				return lecternerr.New(lecternerr.CodeProviderRequestInvalid, "tool-result block missing call ID")
			}
		default:
			return lecternerr.Errorf(lecternerr.CodeProviderRequestInvalid, "unknown block kind %q", b.Kind)
		}
	}
	return nil
}

// ToolDefinition describes a tool exposed to the model.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall represents a tool invocation requested by the model.
// Arguments holds the decoded JSON object from the provider response.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Completion is the result of one model call. Text and ToolCalls may
// both be present; ToolCalls preserve the order the model emitted them.
type Completion struct {
	Text       string
	ToolCalls  []ToolCall
	Usage      Usage
	StopReason StopReason
}

// HasToolCalls reports whether the model requested any tool invocations.
func (c *Completion) HasToolCalls() bool {
	return len(c.ToolCalls) > 0
}

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonToolUse   StopReason = "tool_use"
	StopReasonMaxTokens StopReason = "max_tokens"
)

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates another usage sample.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
