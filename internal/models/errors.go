package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis pipeline.
var (
	// ErrDataUnavailable indicates a single data source returned nothing
	// usable. Agents degrade to neutral scoring instead of failing.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrTotalDataFailure indicates no usable fundamental data could be
	// fetched at all. The per-ticker run returns an error-carrying result
	// with zeroed scores rather than raising.
	ErrTotalDataFailure = errors.New("no market data available from any source")
)

// AgentFailureError wraps an agent panic or error. The runner catches it
// and substitutes a neutral result.
type AgentFailureError struct {
	Agent string
	Err   error
}

func (e *AgentFailureError) Error() string {
	return fmt.Sprintf("agent %s failed: %v", e.Agent, e.Err)
}

func (e *AgentFailureError) Unwrap() error {
	return e.Err
}

// RateLimitExceededError is returned after throttle retries are exhausted.
type RateLimitExceededError struct {
	Attempts int
	Err      error
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RateLimitExceededError) Unwrap() error {
	return e.Err
}

// IsRateLimitExceeded reports whether err is a RateLimitExceededError.
func IsRateLimitExceeded(err error) bool {
	var rle *RateLimitExceededError
	return errors.As(err, &rle)
}

// SelectionParseError indicates an LLM response could not be parsed into
// the expected structure. Callers degrade to fallbacks, never abort.
type SelectionParseError struct {
	Stage string
	Raw   string
	Err   error
}

func (e *SelectionParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Stage, e.Err)
}

func (e *SelectionParseError) Unwrap() error {
	return e.Err
}
