// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import "github.com/lectern-ai/lectern/internal/provider"

// Decision is the termination policy's verdict for one round.
type Decision struct {
	Continue bool
	Reason   TerminationReason
}

// Decide evaluates whether the loop continues after a completion
// response, before any tool dispatch. Precedence:
//
//  1. No tool calls in the response: stop, natural_completion.
//  2. Last budgeted round: stop, max_rounds_reached — the pending tool
//     calls are never dispatched, since no round exists to consume
//     their outcomes.
//  3. Otherwise: continue into dispatch.
//
// Pure function; exhaustively unit-testable.
func Decide(completion *provider.Completion, roundIndex, maxRounds int) Decision {
	if !completion.HasToolCalls() {
		return Decision{Reason: ReasonNaturalCompletion}
	}
	if roundIndex >= maxRounds-1 {
		return Decision{Reason: ReasonMaxRounds}
	}
	return Decision{Continue: true}
}
