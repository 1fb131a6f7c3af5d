// Package analysis runs the per-ticker orchestration pipeline: parallel
// data gathering, sequential agent scoring, score blending, eligibility
// screening, and portfolio construction.
package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/marketdata"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/workers"
)

// sourceComprehensive marks fundamentals snapshots whose provider already
// derived the 52-week range, so the price series is synthesized locally
// instead of fetched live.
const sourceComprehensive = "comprehensive"

// Fetcher gathers the data bundle for one ticker using a bounded worker
// pool. Fetch never returns an error; each failed task leaves its bundle
// field at the empty default and the agents degrade accordingly.
type Fetcher struct {
	provider    interfaces.MarketDataProvider
	poolWorkers int
	logger      arbor.ILogger
}

// NewFetcher creates a fetcher. workers values below 1 fall back to 3.
func NewFetcher(provider interfaces.MarketDataProvider, poolWorkers int, logger arbor.ILogger) *Fetcher {
	if poolWorkers < 1 {
		poolWorkers = 3
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Fetcher{
		provider:    provider,
		poolWorkers: poolWorkers,
		logger:      logger,
	}
}

// Fetch gathers fundamentals, price history, and the benchmark series in
// parallel. Dates are "2006-01-02". Partial failures are logged and leave
// the corresponding field empty; the bundle itself is never nil.
func (f *Fetcher) Fetch(ctx context.Context, ticker, startDate, endDate string) *models.DataBundle {
	bundle := &models.DataBundle{
		Ticker:    ticker,
		FetchedAt: time.Now(),
	}

	start, errStart := time.Parse("2006-01-02", startDate)
	end, errEnd := time.Parse("2006-01-02", endDate)
	if errStart != nil || errEnd != nil {
		end = time.Now()
		start = end.AddDate(-1, 0, 0)
	}

	var mu sync.Mutex
	var liveHistory []models.PriceBar

	pool := workers.NewPool(f.poolWorkers, f.logger)
	pool.Start()

	_ = pool.Submit(func(ctx context.Context) error {
		fundamentals, err := f.provider.GetFundamentals(ctx, ticker)
		if err != nil {
			f.logger.Warn().Err(err).Str("ticker", ticker).Msg("Fundamentals fetch failed")
			return err
		}
		mu.Lock()
		bundle.Fundamentals = fundamentals
		mu.Unlock()
		return nil
	})

	_ = pool.Submit(func(ctx context.Context) error {
		bars, err := f.provider.GetPriceHistory(ctx, ticker, startDate, endDate)
		if err != nil {
			f.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price history fetch failed")
			return err
		}
		mu.Lock()
		liveHistory = bars
		mu.Unlock()
		return nil
	})

	_ = pool.Submit(func(ctx context.Context) error {
		bars := marketdata.SyntheticBenchmark(start, end, marketdata.DefaultBenchmarkStart)
		mu.Lock()
		bundle.BenchmarkHistory = bars
		mu.Unlock()
		return nil
	})

	pool.Wait()
	pool.Shutdown()

	// Comprehensive snapshots carry their own derived range; synthesize the
	// series from it. The same synthesis covers a failed live fetch as long
	// as fundamentals arrived.
	switch {
	case bundle.Fundamentals.Source == sourceComprehensive:
		bundle.PriceHistory = marketdata.SyntheticPriceHistory(bundle.Fundamentals, end)
	case len(liveHistory) == 0 && bundle.HasFundamentals():
		f.logger.Debug().Str("ticker", ticker).Msg("Live price history unavailable, synthesizing from fundamentals")
		bundle.PriceHistory = marketdata.SyntheticPriceHistory(bundle.Fundamentals, end)
	default:
		bundle.PriceHistory = liveHistory
	}

	f.logger.Debug().
		Str("ticker", ticker).
		Int("price_bars", len(bundle.PriceHistory)).
		Int("benchmark_bars", len(bundle.BenchmarkHistory)).
		Bool("has_fundamentals", bundle.HasFundamentals()).
		Msg("Data bundle assembled")

	return bundle
}
