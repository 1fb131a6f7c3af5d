package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
)

// ArchiveStorage persists completed stock analyses for later review and
// scheduled re-analysis.
type ArchiveStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewArchiveStorage(db *BadgerDB, logger arbor.ILogger) *ArchiveStorage {
	return &ArchiveStorage{db: db, logger: logger}
}

// SaveAnalysis archives a completed analysis.
func (s *ArchiveStorage) SaveAnalysis(ctx context.Context, analysis *models.StockAnalysis) error {
	if err := s.db.Store().Upsert(analysis.ID, analysis); err != nil {
		return fmt.Errorf("failed to archive analysis %s: %w", analysis.ID, err)
	}

	s.logger.Debug().
		Str("id", analysis.ID).
		Str("ticker", analysis.Ticker).
		Float64("final_score", analysis.FinalScore).
		Msg("Analysis archived")
	return nil
}

// GetAnalysis retrieves an archived analysis by ID.
func (s *ArchiveStorage) GetAnalysis(ctx context.Context, id string) (*models.StockAnalysis, error) {
	var analysis models.StockAnalysis
	if err := s.db.Store().Get(id, &analysis); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis %s: %w", id, err)
	}
	return &analysis, nil
}

// ListAnalyses returns archived analyses newest first, up to limit.
func (s *ArchiveStorage) ListAnalyses(ctx context.Context, limit int) ([]*models.StockAnalysis, error) {
	var analyses []*models.StockAnalysis
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&analyses, query); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

// ListByTicker returns archived analyses for one ticker, newest first.
func (s *ArchiveStorage) ListByTicker(ctx context.Context, ticker string, limit int) ([]*models.StockAnalysis, error) {
	var analyses []*models.StockAnalysis
	query := badgerhold.Where("Ticker").Eq(ticker).Index("Ticker").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&analyses, query); err != nil {
		return nil, fmt.Errorf("failed to list analyses for %s: %w", ticker, err)
	}
	return analyses, nil
}

// DistinctTickers returns the set of archived tickers, capped at limit.
// Tickers are ordered by their most recent analysis.
func (s *ArchiveStorage) DistinctTickers(ctx context.Context, limit int) ([]string, error) {
	analyses, err := s.ListAnalyses(ctx, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, a := range analyses {
		if seen[a.Ticker] {
			continue
		}
		seen[a.Ticker] = true
		tickers = append(tickers, a.Ticker)
		if limit > 0 && len(tickers) >= limit {
			break
		}
	}
	return tickers, nil
}

// DeleteAnalysis removes an archived analysis.
func (s *ArchiveStorage) DeleteAnalysis(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.StockAnalysis{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to delete analysis %s: %w", id, err)
	}
	return nil
}
