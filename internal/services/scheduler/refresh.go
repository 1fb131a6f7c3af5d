// Package scheduler runs the cron-driven watchlist refresh: previously
// analyzed tickers are periodically re-analyzed so the archive stays
// current without manual runs.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// defaultSchedule runs the refresh daily before market open.
const defaultSchedule = "0 6 * * *"

// StockAnalyzer runs one per-ticker analysis. Satisfied by the analysis
// orchestrator.
type StockAnalyzer interface {
	AnalyzeStock(ctx context.Context, req *models.AnalysisRequest) *models.StockAnalysis
}

// Refresher re-analyzes the archived ticker watchlist on a cron schedule.
// Overlapping ticks are skipped, not queued.
type Refresher struct {
	analyzer StockAnalyzer
	archive  interfaces.ArchiveStorage
	config   common.RefreshConfig
	cron     *cron.Cron
	logger   arbor.ILogger

	mu        sync.Mutex
	isRunning bool
	started   bool
}

// NewRefresher creates a watchlist refresher.
func NewRefresher(analyzer StockAnalyzer, archive interfaces.ArchiveStorage, cfg *common.Config, logger arbor.ILogger) *Refresher {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Refresher{
		analyzer: analyzer,
		archive:  archive,
		config:   cfg.Refresh,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the cron entry and begins scheduling. Disabled
// configuration makes Start a no-op.
func (r *Refresher) Start() error {
	if !r.config.Enabled {
		r.logger.Info().Msg("Watchlist refresh disabled")
		return nil
	}
	if r.started {
		return fmt.Errorf("refresher already running")
	}

	schedule := r.config.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}

	if _, err := r.cron.AddFunc(schedule, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.logger.Error().Err(err).Msg("Watchlist refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to add refresh cron job: %w", err)
	}

	r.cron.Start()
	r.started = true

	r.logger.Info().
		Str("schedule", schedule).
		Int("max_tickers", r.maxTickers()).
		Msg("Watchlist refresh scheduled")
	return nil
}

// Stop halts scheduling and waits for an in-flight refresh to finish.
func (r *Refresher) Stop() {
	if !r.started {
		return
	}
	<-r.cron.Stop().Done()
	r.started = false
	r.logger.Info().Msg("Watchlist refresh stopped")
}

// RunOnce refreshes the watchlist immediately. A refresh already in
// progress makes this a logged no-op.
func (r *Refresher) RunOnce(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		r.logger.Warn().Msg("Previous refresh still running, skipping tick")
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.isRunning = false
		r.mu.Unlock()
	}()

	tickers, err := r.archive.DistinctTickers(ctx, r.maxTickers())
	if err != nil {
		return fmt.Errorf("failed to list watchlist tickers: %w", err)
	}
	if len(tickers) == 0 {
		r.logger.Info().Msg("Watchlist empty, nothing to refresh")
		return nil
	}

	r.logger.Info().Strs("tickers", tickers).Msg("Refreshing watchlist")

	var failed int
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		analysis := r.analyzer.AnalyzeStock(ctx, &models.AnalysisRequest{Ticker: ticker})
		if analysis.Failed() {
			failed++
			r.logger.Warn().
				Str("ticker", ticker).
				Str("error", analysis.Err).
				Msg("Watchlist refresh analysis failed")
		}
	}

	r.logger.Info().
		Int("refreshed", len(tickers)-failed).
		Int("failed", failed).
		Msg("Watchlist refresh complete")
	return nil
}

func (r *Refresher) maxTickers() int {
	if r.config.MaxTickers > 0 {
		return r.config.MaxTickers
	}
	return 10
}
