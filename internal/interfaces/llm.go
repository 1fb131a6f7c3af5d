package interfaces

import "context"

// TextRequest is a provider-agnostic text generation request.
type TextRequest struct {
	// System is the system instruction. Optional.
	System string
	// Prompt is the user message.
	Prompt string
	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int
	// Temperature controls sampling. Zero uses the provider default.
	Temperature float32
}

// LLMProvider generates text from a prompt. Implementations perform a
// single call; retry and pacing are the rate-limited caller's concern.
type LLMProvider interface {
	// ProviderName returns the short provider identifier ("claude", "gemini").
	ProviderName() string

	// GenerateText returns the model's text response.
	GenerateText(ctx context.Context, req *TextRequest) (string, error)
}
