package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/models"
)

// CallFunc is one outbound LLM or API call.
type CallFunc func(ctx context.Context) (string, error)

// Throttle is a single-slot rate limiter shared by every outbound LLM call
// site. It enforces a minimum delay between calls and retries throttled
// calls with linearly increasing backoff. It is deliberately not a token
// bucket: concurrent callers sharing one Throttle serialize on the
// min-delay, which keeps the call pattern conservative.
type Throttle struct {
	mu       sync.Mutex
	lastCall time.Time

	minDelay    time.Duration
	baseBackoff time.Duration
	maxRetries  int
	logger      arbor.ILogger
}

// NewThrottle creates a Throttle from the LLM configuration.
func NewThrottle(config *common.LLMConfig, logger arbor.ILogger) *Throttle {
	return &Throttle{
		minDelay:    common.ParseDurationOr(config.MinCallDelay, 500*time.Millisecond),
		baseBackoff: common.ParseDurationOr(config.BaseBackoff, 10*time.Second),
		maxRetries:  maxRetriesOrDefault(config.MaxRetries),
		logger:      logger,
	}
}

func maxRetriesOrDefault(n int) int {
	if n <= 0 {
		return 3
	}
	return n
}

// Call executes fn behind the throttle. A throttling error is retried up
// to maxRetries times with backoff attempt*baseBackoff (10s, 20s, 30s by
// default); any other error propagates immediately. The last-call clock
// advances only on success, so a failed attempt does not push the delay
// window forward.
func (t *Throttle) Call(ctx context.Context, fn CallFunc) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		t.mu.Lock()
		wait := t.minDelay - time.Since(t.lastCall)
		t.mu.Unlock()

		if wait > 0 {
			t.logger.Debug().
				Dur("wait", wait).
				Msg("Throttle: pacing before next call")
			if err := sleepContext(ctx, wait); err != nil {
				return "", err
			}
		}

		result, err := fn(ctx)
		if err == nil {
			t.mu.Lock()
			t.lastCall = time.Now()
			t.mu.Unlock()
			return result, nil
		}

		if !IsRateLimitError(err) {
			return "", err
		}

		lastErr = err
		if attempt < t.maxRetries {
			backoff := time.Duration(attempt) * t.baseBackoff
			t.logger.Warn().
				Int("attempt", attempt).
				Int("max_retries", t.maxRetries).
				Dur("backoff", backoff).
				Err(err).
				Msg("Throttle: rate limit hit, backing off")
			if err := sleepContext(ctx, backoff); err != nil {
				return "", err
			}
		}
	}

	t.logger.Error().
		Int("attempts", t.maxRetries).
		Err(lastErr).
		Msg("Throttle: rate limit exceeded after all retries")

	return "", &models.RateLimitExceededError{Attempts: t.maxRetries, Err: lastErr}
}

// sleepContext sleeps for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// IsRateLimitError reports whether err carries a provider throttling
// signal. Matches 429 status codes, RESOURCE_EXHAUSTED, and quota text.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "quota")
}
