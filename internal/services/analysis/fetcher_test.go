package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/models"
)

type fakeProvider struct {
	fundamentalsFn func(ticker string) (models.Fundamentals, error)
	historyFn      func(ticker, start, end string) ([]models.PriceBar, error)
}

func (p *fakeProvider) GetFundamentals(ctx context.Context, ticker string) (models.Fundamentals, error) {
	if p.fundamentalsFn == nil {
		return models.Fundamentals{}, models.ErrDataUnavailable
	}
	return p.fundamentalsFn(ticker)
}

func (p *fakeProvider) GetPriceHistory(ctx context.Context, ticker, start, end string) ([]models.PriceBar, error) {
	if p.historyFn == nil {
		return nil, models.ErrDataUnavailable
	}
	return p.historyFn(ticker, start, end)
}

func liveFundamentals(ticker string) (models.Fundamentals, error) {
	return models.Fundamentals{
		Ticker:     ticker,
		Name:       "Apple Inc.",
		Sector:     "Technology",
		Price:      180,
		MarketCap:  2.8e12,
		Beta:       1.2,
		Week52High: 200,
		Week52Low:  140,
		Source:     "eodhd",
	}, nil
}

func liveBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.PriceBar{Date: date.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return bars
}

func TestFetcher_AllSourcesSucceed(t *testing.T) {
	provider := &fakeProvider{
		fundamentalsFn: liveFundamentals,
		historyFn: func(ticker, start, end string) ([]models.PriceBar, error) {
			return liveBars(10), nil
		},
	}
	fetcher := NewFetcher(provider, 3, common.GetLogger())

	bundle := fetcher.Fetch(context.Background(), "AAPL", "2025-01-01", "2025-06-30")

	require.NotNil(t, bundle)
	assert.Equal(t, "AAPL", bundle.Ticker)
	assert.True(t, bundle.HasFundamentals())
	assert.Len(t, bundle.PriceHistory, 10)
	assert.NotEmpty(t, bundle.BenchmarkHistory)
	assert.False(t, bundle.FetchedAt.IsZero())
}

func TestFetcher_ComprehensiveSourceSynthesizes(t *testing.T) {
	provider := &fakeProvider{
		fundamentalsFn: func(ticker string) (models.Fundamentals, error) {
			f, _ := liveFundamentals(ticker)
			f.Source = "comprehensive"
			return f, nil
		},
		historyFn: func(ticker, start, end string) ([]models.PriceBar, error) {
			return liveBars(10), nil
		},
	}
	fetcher := NewFetcher(provider, 3, common.GetLogger())

	bundle := fetcher.Fetch(context.Background(), "AAPL", "2025-01-01", "2025-06-30")

	// Live history is discarded in favor of the derived series.
	require.Len(t, bundle.PriceHistory, 252)
	last := bundle.PriceHistory[len(bundle.PriceHistory)-1]
	assert.InDelta(t, 180, last.Close, 1e-9)
}

func TestFetcher_HistoryFailureFallsBackToSynthetic(t *testing.T) {
	provider := &fakeProvider{
		fundamentalsFn: liveFundamentals,
		historyFn: func(ticker, start, end string) ([]models.PriceBar, error) {
			return nil, models.ErrDataUnavailable
		},
	}
	fetcher := NewFetcher(provider, 3, common.GetLogger())

	bundle := fetcher.Fetch(context.Background(), "AAPL", "2025-01-01", "2025-06-30")

	assert.True(t, bundle.HasFundamentals())
	assert.Len(t, bundle.PriceHistory, 252)
}

func TestFetcher_FundamentalsFailure(t *testing.T) {
	provider := &fakeProvider{
		historyFn: func(ticker, start, end string) ([]models.PriceBar, error) {
			return liveBars(5), nil
		},
	}
	fetcher := NewFetcher(provider, 3, common.GetLogger())

	bundle := fetcher.Fetch(context.Background(), "AAPL", "2025-01-01", "2025-06-30")

	// No fundamentals means no synthesis; the live series stands alone.
	assert.False(t, bundle.HasFundamentals())
	assert.Len(t, bundle.PriceHistory, 5)
	assert.NotEmpty(t, bundle.BenchmarkHistory)
}

func TestFetcher_TotalFailureStillReturnsBundle(t *testing.T) {
	fetcher := NewFetcher(&fakeProvider{}, 3, common.GetLogger())

	bundle := fetcher.Fetch(context.Background(), "AAPL", "2025-01-01", "2025-06-30")

	require.NotNil(t, bundle)
	assert.False(t, bundle.HasFundamentals())
	assert.Empty(t, bundle.PriceHistory)
	assert.NotEmpty(t, bundle.BenchmarkHistory)
}

func TestFetcher_InvalidDatesUseDefaultWindow(t *testing.T) {
	provider := &fakeProvider{fundamentalsFn: liveFundamentals}
	fetcher := NewFetcher(provider, 3, common.GetLogger())

	bundle := fetcher.Fetch(context.Background(), "AAPL", "not-a-date", "also-bad")

	// Falls back to a one-year window ending today.
	assert.Greater(t, len(bundle.BenchmarkHistory), 300)
}
