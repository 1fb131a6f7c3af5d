package interfaces

import (
	"context"

	"github.com/ternarybob/vantage/internal/models"
)

// MarketDataProvider supplies fundamentals and price history for tickers.
// Dates are in "2006-01-02" format.
type MarketDataProvider interface {
	// GetFundamentals retrieves the fundamental snapshot for a ticker.
	GetFundamentals(ctx context.Context, ticker string) (models.Fundamentals, error)

	// GetPriceHistory retrieves daily bars between start and end inclusive,
	// oldest first, with the Return column populated.
	GetPriceHistory(ctx context.Context, ticker, start, end string) ([]models.PriceBar, error)
}
