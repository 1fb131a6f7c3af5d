// Package agents contains the default scoring agents and the runner that
// executes them against a fetched data bundle.
package agents

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/interfaces"
)

// Narrator generates a short narrative for an agent's findings, typically
// backed by an LLM behind the shared call throttle. A nil Narrator keeps
// the deterministic rationale text.
type Narrator func(ctx context.Context, prompt string) (string, error)

// Defaults returns the five standard agents in their canonical order:
// value, growth momentum, macro regime, risk, sentiment.
func Defaults(logger arbor.ILogger, narrate Narrator) []interfaces.Agent {
	return []interfaces.Agent{
		NewValueAgent(logger, narrate),
		NewGrowthAgent(logger, narrate),
		NewMacroAgent(logger, narrate),
		NewRiskAgent(logger, narrate),
		NewSentimentAgent(logger, narrate),
	}
}

// narrated swaps the deterministic rationale for an LLM-written one when a
// narrator is configured. Narration failure is logged and never surfaces.
func narrated(ctx context.Context, narrate Narrator, logger arbor.ILogger, agent, fallback, prompt string) string {
	if narrate == nil {
		return fallback
	}
	text, err := narrate(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		if logger != nil {
			logger.Debug().
				Err(err).
				Str("agent", agent).
				Msg("Narrative generation unavailable, keeping deterministic rationale")
		}
		return fallback
	}
	return strings.TrimSpace(text)
}
