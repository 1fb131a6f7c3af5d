package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/vantage/internal/models"
)

// ErrNotFound is returned when a stored document does not exist.
var ErrNotFound = errors.New("not found")

// SessionStorage persists selection sessions.
type SessionStorage interface {
	// SaveSession stores the completed session and writes its JSON export.
	// Called exactly once per selection run, after consolidation.
	SaveSession(ctx context.Context, session *models.SelectionSession) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, sessionID string) (*models.SelectionSession, error)

	// ListSessions returns sessions newest first, up to limit.
	ListSessions(ctx context.Context, limit int) ([]*models.SelectionSession, error)

	// DeleteSession removes a session.
	DeleteSession(ctx context.Context, sessionID string) error
}

// ArchiveStorage persists completed analyses for later review.
type ArchiveStorage interface {
	// SaveAnalysis archives a completed analysis.
	SaveAnalysis(ctx context.Context, analysis *models.StockAnalysis) error

	// GetAnalysis retrieves an archived analysis by ID.
	GetAnalysis(ctx context.Context, id string) (*models.StockAnalysis, error)

	// ListAnalyses returns archived analyses newest first, up to limit.
	ListAnalyses(ctx context.Context, limit int) ([]*models.StockAnalysis, error)

	// ListByTicker returns archived analyses for one ticker, newest first.
	ListByTicker(ctx context.Context, ticker string, limit int) ([]*models.StockAnalysis, error)

	// DistinctTickers returns the set of archived tickers, capped at limit.
	DistinctTickers(ctx context.Context, limit int) ([]string, error)

	// DeleteAnalysis removes an archived analysis.
	DeleteAnalysis(ctx context.Context, id string) error
}
