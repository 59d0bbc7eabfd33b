// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/store"
)

// buildContext assembles the outbound message sequence for a round:
// the history prefix, the original query as a user message, then for
// each prior round its assistant message followed by a single
// tool-result message wrapping that round's outcomes in original call
// order. The completion service correlates outcomes to calls
// positionally and by ID, so this ordering must not change.
func buildContext(history []store.Exchange, query Query, rounds []*RoundState) []provider.Message {
	msgs := make([]provider.Message, 0, len(history)*2+1+len(rounds)*2)

	for _, ex := range history {
		msgs = append(msgs, provider.UserMessage(ex.Question))
		msgs = append(msgs, provider.AssistantMessage(ex.Answer))
	}

	msgs = append(msgs, provider.UserMessage(query.Text))

	for _, round := range rounds {
		msgs = append(msgs, round.Assistant)
		if len(round.Outcomes) > 0 {
			results := make([]provider.ToolResultBlock, 0, len(round.Outcomes))
			for _, outcome := range round.Outcomes {
				results = append(results, provider.ToolResultBlock{
					CallID:  outcome.CallID,
					Content: outcome.Content,
					IsError: outcome.Failed,
				})
			}
			msgs = append(msgs, provider.ToolResultMessage(results...))
		}
	}

	return msgs
}

// assistantMessageOf rebuilds the assistant message a completion
// produced, preserving the emitted tool-call order.
func assistantMessageOf(completion *provider.Completion) provider.Message {
	return provider.AssistantMessage(completion.Text, completion.ToolCalls...)
}
