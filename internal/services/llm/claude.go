package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
)

// ClaudeProvider generates text via the Anthropic Claude API.
type ClaudeProvider struct {
	client  anthropic.Client
	config  *common.ClaudeConfig
	timeout time.Duration
	logger  arbor.ILogger
}

// NewClaudeProvider creates a Claude provider. The API key is resolved
// from the environment first, then the config fallback.
func NewClaudeProvider(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeProvider, error) {
	apiKey, err := common.ResolveAPIKey("anthropic_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
	}

	return &ClaudeProvider{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		config:  config,
		timeout: common.ParseDurationOr(config.Timeout, 2*time.Minute),
		logger:  logger,
	}, nil
}

// ProviderName implements interfaces.LLMProvider.
func (p *ClaudeProvider) ProviderName() string {
	return "claude"
}

// GenerateText implements interfaces.LLMProvider. It performs a single
// API call; pacing and retries are the caller's (throttle's) concern.
func (p *ClaudeProvider) GenerateText(ctx context.Context, req *interfaces.TextRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = p.config.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	p.logger.Debug().
		Str("model", p.config.Model).
		Int("max_tokens", maxTokens).
		Msg("Claude API request")

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}
