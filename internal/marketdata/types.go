// Package marketdata provides the EODHD-compatible market data client and
// the deterministic synthetic series used when live data is unavailable.
package marketdata

import (
	"fmt"
	"time"
)

// EODData represents a single day's end-of-day price data on the wire.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// FundamentalsResponse is the subset of the fundamentals payload the
// analysis pipeline consumes.
type FundamentalsResponse struct {
	General         *GeneralInfo     `json:"General"`
	Highlights      *Highlights      `json:"Highlights"`
	Valuation       *Valuation       `json:"Valuation"`
	Technicals      *Technicals      `json:"Technicals"`
	SplitsDividends *SplitsDividends `json:"SplitsDividends"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code     string `json:"Code"`
	Name     string `json:"Name"`
	Exchange string `json:"Exchange"`
	Sector   string `json:"Sector"`
	Industry string `json:"Industry"`
}

// Highlights contains key fundamental metrics.
type Highlights struct {
	MarketCapitalization    float64 `json:"MarketCapitalization"`
	PERatio                 float64 `json:"PERatio"`
	EarningsShare           float64 `json:"EarningsShare"`
	DividendYield           float64 `json:"DividendYield"`
	ProfitMargin            float64 `json:"ProfitMargin"`
	QuarterlyRevenueGrowth  float64 `json:"QuarterlyRevenueGrowthYOY"`
	QuarterlyEarningsGrowth float64 `json:"QuarterlyEarningsGrowthYOY"`
}

// Valuation contains valuation ratios.
type Valuation struct {
	TrailingPE    float64 `json:"TrailingPE"`
	ForwardPE     float64 `json:"ForwardPE"`
	PriceSalesTTM float64 `json:"PriceSalesTTM"`
	PriceBookMRQ  float64 `json:"PriceBookMRQ"`
}

// Technicals contains technical indicators.
type Technicals struct {
	Beta         float64 `json:"Beta"`
	High52Week   float64 `json:"52WeekHigh"`
	Low52Week    float64 `json:"52WeekLow"`
	Day50MA      float64 `json:"50DayMA"`
	Day200MA     float64 `json:"200DayMA"`
	DebtToEquity float64 `json:"DebtToEquity"`
}

// SplitsDividends contains dividend policy data.
type SplitsDividends struct {
	ForwardAnnualDividendYield float64 `json:"ForwardAnnualDividendYield"`
	PayoutRatio                float64 `json:"PayoutRatio"`
}

// QueryOption represents an optional parameter for API queries.
type QueryOption func(*queryParams)

// queryParams holds optional query parameters.
type queryParams struct {
	From   time.Time
	To     time.Time
	Period string // d, w, m
	Order  string // a (asc), d (desc)
}

// WithDateRange sets the date range for the query.
func WithDateRange(from, to time.Time) QueryOption {
	return func(p *queryParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the period (d=daily, w=weekly, m=monthly).
func WithPeriod(period string) QueryOption {
	return func(p *queryParams) {
		p.Period = period
	}
}

// APIError represents an error from the market data API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("market data rate limit exceeded, retry after %v", e.RetryAfter)
}
