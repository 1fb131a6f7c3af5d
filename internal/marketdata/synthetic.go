package marketdata

import (
	"math/rand"
	"time"

	"github.com/ternarybob/vantage/internal/models"
)

// Synthetic series parameters. The fixed seed keeps every generated
// series deterministic so repeated analyses of the same inputs agree.
const (
	syntheticSeed  = 42
	syntheticDays  = 252
	priceNoisePct  = 0.02
	benchmarkDrift = 0.0005
	benchmarkVol   = 0.01

	// DefaultBenchmarkStart is the starting index level for the synthetic
	// benchmark series (roughly S&P 500 territory).
	DefaultBenchmarkStart = 4000.0
)

// SyntheticPriceHistory builds a deterministic one-year daily series from
// the fundamentals' 52-week range: noise around a linear interpolation
// from the 52-week low to the 52-week high, with the last close pinned to
// the current price. It exists so downstream agents always receive a
// usable series when the live history call is skipped or fails.
func SyntheticPriceHistory(f models.Fundamentals, asOf time.Time) []models.PriceBar {
	price := f.Price
	if price <= 0 {
		price = 100
	}
	high := f.Week52High
	if high <= 0 {
		high = price * 1.2
	}
	low := f.Week52Low
	if low <= 0 {
		low = price * 0.8
	}

	rng := rand.New(rand.NewSource(syntheticSeed))

	bars := make([]models.PriceBar, syntheticDays)
	step := (high - low) / float64(syntheticDays-1)
	for i := 0; i < syntheticDays; i++ {
		close := low + step*float64(i) + rng.NormFloat64()*price*priceNoisePct
		if close <= 0 {
			close = low
		}
		bars[i] = models.PriceBar{
			Date:   asOf.AddDate(0, 0, i-syntheticDays+1),
			Open:   close,
			High:   close * 1.01,
			Low:    close * 0.99,
			Close:  close,
			Volume: 1_000_000 + rng.Int63n(4_000_000),
		}
	}

	// Pin the final close to the current price.
	last := &bars[syntheticDays-1]
	last.Close = price
	last.Open = price
	last.High = price * 1.01
	last.Low = price * 0.99

	PopulateReturns(bars)
	return bars
}

// SyntheticBenchmark builds a deterministic benchmark index series over
// [start, end]: a seeded random walk with small positive daily drift.
// It lets the risk agent compute a beta-like correlation without a live
// benchmark query.
func SyntheticBenchmark(start, end time.Time, startLevel float64) []models.PriceBar {
	if startLevel <= 0 {
		startLevel = DefaultBenchmarkStart
	}
	if end.Before(start) {
		return nil
	}

	rng := rand.New(rand.NewSource(syntheticSeed))

	days := int(end.Sub(start).Hours()/24) + 1
	bars := make([]models.PriceBar, 0, days)
	level := startLevel
	for d := 0; d < days; d++ {
		if d > 0 {
			level *= 1 + benchmarkDrift + rng.NormFloat64()*benchmarkVol
		}
		bars = append(bars, models.PriceBar{
			Date:   start.AddDate(0, 0, d),
			Open:   level,
			High:   level * 1.005,
			Low:    level * 0.995,
			Close:  level,
			Volume: 3_000_000_000 + rng.Int63n(2_000_000_000),
		})
	}

	PopulateReturns(bars)
	return bars
}
