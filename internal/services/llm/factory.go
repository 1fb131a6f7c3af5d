// Package llm provides the Claude and Gemini text-generation providers
// and the shared outbound-call throttle.
package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
)

// Providers holds the configured LLM providers and the shared throttle.
// Claude and Gemini are independent: either may be nil when its API key
// is not configured, and callers fall back accordingly.
type Providers struct {
	Claude   interfaces.LLMProvider
	Gemini   interfaces.LLMProvider
	Throttle *Throttle
}

// NewProviders wires up both providers from configuration. A provider
// whose key cannot be resolved is left nil and logged; only the complete
// absence of both providers is an error.
func NewProviders(ctx context.Context, config *common.Config, logger arbor.ILogger) (*Providers, error) {
	p := &Providers{
		Throttle: NewThrottle(&config.LLM, logger),
	}

	claude, err := NewClaudeProvider(&config.Claude, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Claude provider unavailable")
	} else {
		p.Claude = claude
	}

	gemini, err := NewGeminiProvider(ctx, &config.Gemini, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Gemini provider unavailable")
	} else {
		p.Gemini = gemini
	}

	if p.Claude == nil && p.Gemini == nil {
		return nil, fmt.Errorf("no LLM provider configured: set an Anthropic or Gemini API key")
	}

	return p, nil
}

// Default returns the provider named by config, falling back to whichever
// one is available.
func (p *Providers) Default(provider common.LLMProvider) interfaces.LLMProvider {
	switch provider {
	case common.LLMProviderGemini:
		if p.Gemini != nil {
			return p.Gemini
		}
		return p.Claude
	default:
		if p.Claude != nil {
			return p.Claude
		}
		return p.Gemini
	}
}

// Generate runs one text request against provider behind the shared
// throttle.
func (p *Providers) Generate(ctx context.Context, provider interfaces.LLMProvider, req *interfaces.TextRequest) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("LLM provider not configured")
	}
	return p.Throttle.Call(ctx, func(ctx context.Context) (string, error) {
		return provider.GenerateText(ctx, req)
	})
}
