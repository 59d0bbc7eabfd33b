// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectern Contributors

package orchestrator

import (
	"strings"

	"github.com/lectern-ai/lectern/internal/provider"
	"github.com/lectern-ai/lectern/internal/tool"
)

// assemble extracts the final answer text and the de-duplicated
// retrieval sources from a finished session. The provenance buffer is
// rebuilt per call, so nothing leaks between runs.
func assemble(session *Session) (string, []tool.Source) {
	return bestAnswer(session), collectSources(session.Rounds)
}

// bestAnswer picks the answer text with a fallback chain: the final
// round's text, then the latest non-empty text from any round, then a
// synthesis of successful tool findings, then a canned degraded answer.
func bestAnswer(session *Session) string {
	rounds := session.Rounds
	if len(rounds) == 0 {
		return "I couldn't process your question properly."
	}

	if text := textOf(rounds[len(rounds)-1].Assistant); text != "" {
		return text
	}

	for i := len(rounds) - 2; i >= 0; i-- {
		if text := textOf(rounds[i].Assistant); text != "" {
			return text
		}
	}

	if findings := synthesizeFindings(rounds); findings != "" {
		switch rounds[len(rounds)-1].Reason {
		case ReasonAllToolsFailed:
			return "I encountered some technical difficulties while searching, but here's what I can tell you: " + findings
		default:
			return "Based on the information I found: " + findings
		}
	}

	switch rounds[len(rounds)-1].Reason {
	case ReasonAllToolsFailed:
		return "I ran into technical difficulties while searching and couldn't gather the information needed to answer your question."
	case ReasonMaxRounds:
		return "I've gathered some information but need more rounds to provide a complete answer."
	default:
		return "I've gathered some information about your question."
	}
}

// synthesizeFindings joins the successful tool outputs across rounds.
func synthesizeFindings(rounds []*RoundState) string {
	var findings []string
	for _, round := range rounds {
		for _, outcome := range round.Outcomes {
			if !outcome.Failed && outcome.Content != "" {
				findings = append(findings, outcome.Content)
			}
		}
	}
	return strings.Join(findings, "\n\n")
}

// collectSources gathers retrieval provenance across all rounds,
// de-duplicated by label, preserving first-seen order.
func collectSources(rounds []*RoundState) []tool.Source {
	var sources []tool.Source
	seen := make(map[string]bool)

	for _, round := range rounds {
		for _, outcome := range round.Outcomes {
			if outcome.Failed {
				continue
			}
			for _, src := range outcome.Sources {
				if seen[src.Label] {
					continue
				}
				seen[src.Label] = true
				sources = append(sources, src)
			}
		}
	}
	return sources
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
