package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/models"
)

func newTestThrottle(minDelay, baseBackoff string, maxRetries int) *Throttle {
	return NewThrottle(&common.LLMConfig{
		MinCallDelay: minDelay,
		BaseBackoff:  baseBackoff,
		MaxRetries:   maxRetries,
	}, arbor.NewLogger())
}

func TestThrottle_MinDelaySpacing(t *testing.T) {
	throttle := newTestThrottle("50ms", "1ms", 3)

	var callTimes []time.Time
	fn := func(ctx context.Context) (string, error) {
		callTimes = append(callTimes, time.Now())
		return "ok", nil
	}

	for i := 0; i < 3; i++ {
		_, err := throttle.Call(context.Background(), fn)
		require.NoError(t, err)
	}

	require.Len(t, callTimes, 3)
	for i := 1; i < len(callTimes); i++ {
		gap := callTimes[i].Sub(callTimes[i-1])
		assert.GreaterOrEqual(t, gap, 45*time.Millisecond,
			"calls %d and %d closer than min delay", i-1, i)
	}
}

func TestThrottle_RateLimitRetriesThenSucceeds(t *testing.T) {
	throttle := newTestThrottle("1ms", "1ms", 3)

	calls := 0
	result, err := throttle.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("HTTP 429: too many requests")
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, calls)
}

func TestThrottle_RateLimitExhaustsRetries(t *testing.T) {
	throttle := newTestThrottle("1ms", "1ms", 3)

	calls := 0
	_, err := throttle.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("RESOURCE_EXHAUSTED: quota exceeded")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, models.IsRateLimitExceeded(err))

	var rle *models.RateLimitExceededError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 3, rle.Attempts)
}

func TestThrottle_OtherErrorsPropagateImmediately(t *testing.T) {
	throttle := newTestThrottle("1ms", "1ms", 3)

	boom := errors.New("connection refused")
	calls := 0
	_, err := throttle.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "non-throttling errors must not be retried")
}

func TestThrottle_LastCallAdvancesOnlyOnSuccess(t *testing.T) {
	throttle := newTestThrottle("10h", "1ms", 2)

	// A failing run must not push the delay window forward: with a 10h
	// min delay, a recorded lastCall would stall the next call.
	_, err := throttle.Call(context.Background(), func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = throttle.Call(context.Background(), func(ctx context.Context) (string, error) {
			return "ok", nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("throttle stalled: lastCall was updated by a failed attempt")
	}
}

func TestThrottle_ContextCancelledDuringBackoff(t *testing.T) {
	throttle := newTestThrottle("1ms", "10s", 3)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := throttle.Call(ctx, func(ctx context.Context) (string, error) {
		return "", errors.New("429")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 429", errors.New("Error 429: Too Many Requests"), true},
		{"rate limit text", errors.New("openai rate limit reached"), true},
		{"rate_limit code", errors.New("rate_limit_error"), true},
		{"resource exhausted", errors.New("code = RESOURCE_EXHAUSTED"), true},
		{"quota", errors.New("quota exceeded for model"), true},
		{"unrelated", errors.New("invalid request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}
