package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vantage/internal/models"
)

func TestSyntheticPriceHistory(t *testing.T) {
	f := models.Fundamentals{
		Ticker:     "AAPL",
		Price:      180.0,
		Week52High: 200.0,
		Week52Low:  150.0,
		Source:     "comprehensive",
	}
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	bars := SyntheticPriceHistory(f, asOf)
	require.Len(t, bars, syntheticDays)

	// Last close is pinned to the current price.
	last := bars[len(bars)-1]
	assert.Equal(t, 180.0, last.Close)
	assert.Equal(t, asOf, last.Date)
	assert.InDelta(t, 180.0*1.01, last.High, 1e-9)
	assert.InDelta(t, 180.0*0.99, last.Low, 1e-9)

	for i, b := range bars {
		assert.Positivef(t, b.Close, "bar %d close", i)
		assert.GreaterOrEqual(t, b.High, b.Close)
		assert.LessOrEqual(t, b.Low, b.Close)
		assert.GreaterOrEqual(t, b.Volume, int64(1_000_000))
		assert.Less(t, b.Volume, int64(5_000_000))
		if i > 0 {
			assert.Equal(t, bars[i-1].Date.AddDate(0, 0, 1), b.Date)
		}
	}

	// First return is zero; later returns derive from consecutive closes.
	assert.Equal(t, 0.0, bars[0].Return)
	assert.InDelta(t, bars[1].Close/bars[0].Close-1, bars[1].Return, 1e-12)
}

func TestSyntheticPriceHistory_Deterministic(t *testing.T) {
	f := models.Fundamentals{Ticker: "MSFT", Price: 400, Week52High: 450, Week52Low: 310}
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	a := SyntheticPriceHistory(f, asOf)
	b := SyntheticPriceHistory(f, asOf)
	assert.Equal(t, a, b)
}

func TestSyntheticPriceHistory_MissingRange(t *testing.T) {
	// Absent 52-week bounds fall back to a band around the price.
	f := models.Fundamentals{Ticker: "XYZ", Price: 50}
	bars := SyntheticPriceHistory(f, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))

	require.Len(t, bars, syntheticDays)
	assert.Equal(t, 50.0, bars[len(bars)-1].Close)
}

func TestSyntheticBenchmark(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	bars := SyntheticBenchmark(start, end, 0)
	require.NotEmpty(t, bars)

	assert.Equal(t, start, bars[0].Date)
	assert.Equal(t, end, bars[len(bars)-1].Date)
	assert.Equal(t, DefaultBenchmarkStart, bars[0].Close)

	for _, b := range bars {
		assert.Positive(t, b.Close)
		assert.GreaterOrEqual(t, b.Volume, int64(3_000_000_000))
		assert.Less(t, b.Volume, int64(5_000_000_000))
	}

	again := SyntheticBenchmark(start, end, 0)
	assert.Equal(t, bars, again)
}

func TestSyntheticBenchmark_EmptyRange(t *testing.T) {
	start := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	assert.Nil(t, SyntheticBenchmark(start, end, 4000))
}

func TestPopulateReturns_ZeroPrevClose(t *testing.T) {
	bars := []models.PriceBar{
		{Close: 0},
		{Close: 10},
	}
	PopulateReturns(bars)
	assert.Equal(t, 0.0, bars[1].Return)
}
