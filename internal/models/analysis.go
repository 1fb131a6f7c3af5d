package models

import (
	"math"
	"time"
)

// Agent names used as map keys throughout the analysis pipeline.
// These match the blend weight keys and the progress phase names.
const (
	AgentValue     = "value"
	AgentGrowth    = "growth_momentum"
	AgentMacro     = "macro_regime"
	AgentRisk      = "risk"
	AgentSentiment = "sentiment"
)

// AgentNames returns the canonical agent execution order.
func AgentNames() []string {
	return []string{AgentValue, AgentGrowth, AgentMacro, AgentRisk, AgentSentiment}
}

// AnalysisRequest is the immutable input to one per-ticker orchestration run.
type AnalysisRequest struct {
	Ticker string `json:"ticker" validate:"required,uppercase"`
	// AsOfDate is the analysis date in "2006-01-02" format. Empty means today.
	AsOfDate string `json:"as_of_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	// ExistingPortfolio lists tickers already held, used as context for rationales.
	ExistingPortfolio []string `json:"existing_portfolio,omitempty"`
	// WeightOverrides replaces the default blend weights for matching agents.
	WeightOverrides map[string]float64 `json:"weight_overrides,omitempty"`
}

// PriceBar represents one day of OHLCV data with a derived daily return.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	// Return is the day-over-day close change fraction. Zero for the first bar.
	Return float64 `json:"return"`
}

// Fundamentals holds the per-ticker fundamental snapshot used by the agents.
type Fundamentals struct {
	Ticker         string  `json:"ticker"`
	Name           string  `json:"name"`
	Sector         string  `json:"sector"`
	Price          float64 `json:"price"`
	EPS            float64 `json:"eps"`
	PERatio        float64 `json:"pe_ratio"`
	MarketCap      float64 `json:"market_cap"`
	Beta           float64 `json:"beta"`
	DividendYield  float64 `json:"dividend_yield"`
	Week52High     float64 `json:"week_52_high"`
	Week52Low      float64 `json:"week_52_low"`
	RevenueGrowth  float64 `json:"revenue_growth"`
	EarningsGrowth float64 `json:"earnings_growth"`
	ProfitMargin   float64 `json:"profit_margin"`
	DebtToEquity   float64 `json:"debt_to_equity"`
	// Source identifies where the snapshot came from ("eodhd", "comprehensive", "synthetic").
	Source string `json:"source,omitempty"`
}

// IsZero reports whether the snapshot carries no usable data.
func (f Fundamentals) IsZero() bool {
	return f.Ticker == "" && f.Price == 0 && f.MarketCap == 0
}

// DataBundle is the read-only result of the parallel fetch for one ticker.
// Any field may be empty after a partial failure; the bundle itself is never nil.
type DataBundle struct {
	Ticker           string       `json:"ticker"`
	Fundamentals     Fundamentals `json:"fundamentals"`
	PriceHistory     []PriceBar   `json:"price_history"`
	BenchmarkHistory []PriceBar   `json:"benchmark_history"`
	FetchedAt        time.Time    `json:"fetched_at"`
}

// HasFundamentals reports whether usable fundamental data was fetched.
func (b *DataBundle) HasFundamentals() bool {
	return !b.Fundamentals.IsZero()
}

// AgentResult is the normalized output of one scoring agent.
type AgentResult struct {
	AgentName string `json:"agent_name"`
	// Score is in [0,100]. Missing scores are coalesced to exactly 50.
	Score float64 `json:"score"`
	// ScoreMissing marks results whose score was substituted with the neutral default.
	ScoreMissing bool           `json:"score_missing,omitempty"`
	Rationale    string         `json:"rationale"`
	Details      map[string]any `json:"details,omitempty"`
}

// CoalesceScore replaces a missing or non-finite score with the neutral 50.
func (r *AgentResult) CoalesceScore() {
	if r.ScoreMissing || math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
		r.Score = 50
		r.ScoreMissing = true
	}
}

// StockAnalysis is the top-level per-ticker result.
type StockAnalysis struct {
	ID           string    `json:"id" badgerhold:"key"`
	Ticker       string    `json:"ticker" badgerhold:"index"`
	AnalysisDate string    `json:"analysis_date"`
	CreatedAt    time.Time `json:"created_at"`

	AgentResults    []AgentResult      `json:"agent_results,omitempty"`
	AgentScores     map[string]float64 `json:"agent_scores"`
	AgentRationales map[string]string  `json:"agent_rationales,omitempty"`

	BlendedScore     float64  `json:"blended_score"`
	UpsideMultiplier float64  `json:"upside_multiplier"`
	UpsideFactors    []string `json:"upside_factors,omitempty"`
	FinalScore       float64  `json:"final_score"`
	Recommendation   string   `json:"recommendation"`
	Rationale        string   `json:"rationale,omitempty"`

	Fundamentals Fundamentals `json:"fundamentals"`
	PriceHistory []PriceBar   `json:"price_history,omitempty"`

	Eligible        bool     `json:"eligible"`
	EligibilityNote []string `json:"eligibility_note,omitempty"`

	// Err is set only on total data failure. Scores are zeroed and the
	// analysis is returned, never raised, so batch runs continue.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the analysis aborted on total data failure.
func (a *StockAnalysis) Failed() bool {
	return a.Err != ""
}
