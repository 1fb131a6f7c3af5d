package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/models"
)

type recordingAnalyzer struct {
	mu      sync.Mutex
	tickers []string
	block   chan struct{} // when set, Analyze blocks until closed
	failAll bool
}

func (a *recordingAnalyzer) AnalyzeStock(ctx context.Context, req *models.AnalysisRequest) *models.StockAnalysis {
	if a.block != nil {
		<-a.block
	}
	a.mu.Lock()
	a.tickers = append(a.tickers, req.Ticker)
	a.mu.Unlock()

	analysis := &models.StockAnalysis{Ticker: req.Ticker}
	if a.failAll {
		analysis.Err = models.ErrTotalDataFailure.Error()
	}
	return analysis
}

func (a *recordingAnalyzer) analyzed() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.tickers...)
}

type fakeWatchlist struct {
	tickers []string
	limit   int
}

func (w *fakeWatchlist) SaveAnalysis(ctx context.Context, a *models.StockAnalysis) error { return nil }
func (w *fakeWatchlist) GetAnalysis(ctx context.Context, id string) (*models.StockAnalysis, error) {
	return nil, nil
}
func (w *fakeWatchlist) ListAnalyses(ctx context.Context, limit int) ([]*models.StockAnalysis, error) {
	return nil, nil
}
func (w *fakeWatchlist) ListByTicker(ctx context.Context, ticker string, limit int) ([]*models.StockAnalysis, error) {
	return nil, nil
}
func (w *fakeWatchlist) DeleteAnalysis(ctx context.Context, id string) error { return nil }

func (w *fakeWatchlist) DistinctTickers(ctx context.Context, limit int) ([]string, error) {
	w.limit = limit
	if len(w.tickers) > limit {
		return w.tickers[:limit], nil
	}
	return w.tickers, nil
}

func newTestRefresher(analyzer StockAnalyzer, watchlist *fakeWatchlist, mutate func(*common.RefreshConfig)) *Refresher {
	cfg := common.NewDefaultConfig()
	cfg.Refresh.Enabled = true
	if mutate != nil {
		mutate(&cfg.Refresh)
	}
	return NewRefresher(analyzer, watchlist, cfg, common.GetLogger())
}

func TestRefresher_RunOnce(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	watchlist := &fakeWatchlist{tickers: []string{"AAPL", "MSFT", "GOOGL"}}
	r := newTestRefresher(analyzer, watchlist, nil)

	err := r.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, analyzer.analyzed())
}

func TestRefresher_RunOnce_CapsWatchlist(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	watchlist := &fakeWatchlist{tickers: []string{"A", "B", "C", "D"}}
	r := newTestRefresher(analyzer, watchlist, func(c *common.RefreshConfig) {
		c.MaxTickers = 2
	})

	require.NoError(t, r.RunOnce(context.Background()))

	assert.Equal(t, 2, watchlist.limit)
	assert.Len(t, analyzer.analyzed(), 2)
}

func TestRefresher_RunOnce_EmptyWatchlist(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	r := newTestRefresher(analyzer, &fakeWatchlist{}, nil)

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Empty(t, analyzer.analyzed())
}

func TestRefresher_RunOnce_FailuresAreNotFatal(t *testing.T) {
	analyzer := &recordingAnalyzer{failAll: true}
	watchlist := &fakeWatchlist{tickers: []string{"AAPL", "MSFT"}}
	r := newTestRefresher(analyzer, watchlist, nil)

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Len(t, analyzer.analyzed(), 2)
}

func TestRefresher_OverlappingRunSkipped(t *testing.T) {
	block := make(chan struct{})
	analyzer := &recordingAnalyzer{block: block}
	watchlist := &fakeWatchlist{tickers: []string{"AAPL"}}
	r := newTestRefresher(analyzer, watchlist, nil)

	done := make(chan error, 1)
	go func() { done <- r.RunOnce(context.Background()) }()

	// Wait for the first run to take the slot, then the second is a no-op.
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.isRunning
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Empty(t, analyzer.analyzed())

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"AAPL"}, analyzer.analyzed())
}

func TestRefresher_StartDisabledIsNoop(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	r := newTestRefresher(analyzer, &fakeWatchlist{}, func(c *common.RefreshConfig) {
		c.Enabled = false
	})

	require.NoError(t, r.Start())
	assert.False(t, r.started)
	r.Stop()
}

func TestRefresher_StartAndStop(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	r := newTestRefresher(analyzer, &fakeWatchlist{}, nil)

	require.NoError(t, r.Start())
	assert.True(t, r.started)
	assert.Error(t, r.Start())

	r.Stop()
	assert.False(t, r.started)
}

func TestRefresher_StartRejectsBadSchedule(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	r := newTestRefresher(analyzer, &fakeWatchlist{}, func(c *common.RefreshConfig) {
		c.Schedule = "not a schedule"
	})

	assert.Error(t, r.Start())
}
