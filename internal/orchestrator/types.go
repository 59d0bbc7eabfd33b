// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

// Package orchestrator drives the multi-round tool-calling loop: each
// round issues one completion call, decides whether to stop, and if
// continuing dispatches the requested tools before the next round.
package orchestrator

import (
	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/tool"
)

// TerminationReason is the enumerated cause for ending the round loop.
type TerminationReason string

const (
	// ReasonNaturalCompletion: the model answered without requesting tools.
	ReasonNaturalCompletion TerminationReason = "natural_completion"

	// ReasonMaxRounds: the round budget ran out with tool calls pending.
	ReasonMaxRounds TerminationReason = "max_rounds_reached"

	// ReasonAllToolsFailed: every tool call in a round failed.
	ReasonAllToolsFailed TerminationReason = "all_tools_failed"
)

// Query is the immutable input to one orchestration run.
type Query struct {
	Text      string
	SessionID string
}

// ToolOutcome is the result of dispatching one tool call, correlated
// back to the call by ID and position.
type ToolOutcome struct {
	CallID   string
	ToolName string
	Content  string
	Sources  []tool.Source
	Failed   bool
}

// RoundState captures one completed round. Rounds are append-only;
// every later round's context is built from the full prior history.
type RoundState struct {
	Index     int
	Assistant provider.Message
	Calls     []provider.ToolCall
	Outcomes  []ToolOutcome
	Reason    TerminationReason
}

// Session is the accumulated state of a single orchestration run,
// owned exclusively by that run and discarded after the response.
type Session struct {
	Query     Query
	MaxRounds int
	Rounds    []*RoundState
	Response  *FinalResponse
}

// FinalResponse is the terminal result of a run.
type FinalResponse struct {
	Answer  string
	Sources []tool.Source
	Reason  TerminationReason
	Usage   provider.Usage
}
