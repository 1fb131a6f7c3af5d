package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/models"
)

// Provider maps client wire responses onto the analysis models,
// implementing interfaces.MarketDataProvider.
type Provider struct {
	client *Client
	logger arbor.ILogger
}

// NewProvider creates a Provider from configuration.
func NewProvider(config *common.MarketDataConfig, logger arbor.ILogger) (*Provider, error) {
	apiKey, err := common.ResolveAPIKey("market_data_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve market data API key: %w", err)
	}

	opts := []ClientOption{WithLogger(logger)}
	if config.BaseURL != "" {
		opts = append(opts, WithBaseURL(config.BaseURL))
	}
	if config.RateLimit > 0 {
		opts = append(opts, WithRateLimit(config.RateLimit))
	}
	if timeout := common.ParseDurationOr(config.RequestTimeout, 0); timeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	return &Provider{
		client: NewClient(apiKey, opts...),
		logger: logger,
	}, nil
}

// NewProviderWithClient wraps an existing client; used by tests.
func NewProviderWithClient(client *Client, logger arbor.ILogger) *Provider {
	return &Provider{client: client, logger: logger}
}

// GetFundamentals implements interfaces.MarketDataProvider.
func (p *Provider) GetFundamentals(ctx context.Context, ticker string) (models.Fundamentals, error) {
	parsed := common.ParseTicker(ticker)
	resp, err := p.client.GetFundamentals(ctx, parsed.EODHDSymbol())
	if err != nil {
		return models.Fundamentals{}, fmt.Errorf("fundamentals fetch for %s: %w", ticker, err)
	}

	f := models.Fundamentals{
		Ticker: parsed.Code,
		Source: "eodhd",
	}

	if g := resp.General; g != nil {
		f.Name = g.Name
		f.Sector = g.Sector
	}
	if h := resp.Highlights; h != nil {
		f.MarketCap = h.MarketCapitalization
		f.PERatio = h.PERatio
		f.EPS = h.EarningsShare
		f.DividendYield = h.DividendYield
		f.ProfitMargin = h.ProfitMargin
		f.RevenueGrowth = h.QuarterlyRevenueGrowth
		f.EarningsGrowth = h.QuarterlyEarningsGrowth
	}
	if t := resp.Technicals; t != nil {
		f.Beta = t.Beta
		f.Week52High = t.High52Week
		f.Week52Low = t.Low52Week
		f.DebtToEquity = t.DebtToEquity
	}
	if f.DividendYield == 0 && resp.SplitsDividends != nil {
		f.DividendYield = resp.SplitsDividends.ForwardAnnualDividendYield
	}

	// Derive the current price from EPS and P/E when the fundamentals
	// payload carries both; otherwise the latest close fills it in later.
	if f.EPS > 0 && f.PERatio > 0 {
		f.Price = f.EPS * f.PERatio
	}

	return f, nil
}

// GetPriceHistory implements interfaces.MarketDataProvider. Dates are
// "2006-01-02"; bars are returned oldest first with Return populated.
func (p *Provider) GetPriceHistory(ctx context.Context, ticker, start, end string) ([]models.PriceBar, error) {
	parsed := common.ParseTicker(ticker)

	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}

	resp, err := p.client.GetEOD(ctx, parsed.EODHDSymbol(), WithDateRange(from, to))
	if err != nil {
		return nil, fmt.Errorf("price history fetch for %s: %w", ticker, err)
	}

	bars := make([]models.PriceBar, 0, len(resp))
	for _, row := range resp {
		bars = append(bars, models.PriceBar{
			Date:   row.Date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	PopulateReturns(bars)

	return bars, nil
}

// PopulateReturns fills the day-over-day Return column in place. The
// first bar's return is zero.
func PopulateReturns(bars []models.PriceBar) {
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close > 0 {
			bars[i].Return = bars[i].Close/bars[i-1].Close - 1
		}
	}
}
