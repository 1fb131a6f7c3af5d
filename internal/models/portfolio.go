package models

import "time"

// PortfolioRequest is the input to a portfolio recommendation run.
type PortfolioRequest struct {
	// ChallengeText describes the investment objectives. Empty uses the
	// configured default challenge context.
	ChallengeText string `json:"challenge_text,omitempty"`
	// ManualTickers bypasses AI selection entirely when non-empty.
	ManualTickers []string `json:"manual_tickers,omitempty"`
	// NumPositions is the number of positions in the final portfolio.
	NumPositions int `json:"num_positions" validate:"omitempty,min=1,max=20"`
	// UniverseSize describes how many candidates each selector should propose.
	UniverseSize int    `json:"universe_size,omitempty"`
	AsOfDate     string `json:"as_of_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// PortfolioPosition is one recommended holding.
type PortfolioPosition struct {
	Ticker          string  `json:"ticker"`
	Name            string  `json:"name,omitempty"`
	Sector          string  `json:"sector,omitempty"`
	FinalScore      float64 `json:"final_score"`
	BlendedScore    float64 `json:"blended_score"`
	TargetWeightPct float64 `json:"target_weight_pct"`
	Recommendation  string  `json:"recommendation"`
	Rationale       string  `json:"rationale,omitempty"`
}

// PortfolioSummary aggregates portfolio-level statistics.
type PortfolioSummary struct {
	NumPositions     int                `json:"num_positions"`
	TotalWeightPct   float64            `json:"total_weight_pct"`
	AvgScore         float64            `json:"avg_score"`
	SectorExposure   map[string]float64 `json:"sector_exposure"`
	ChallengeContext string             `json:"challenge_context,omitempty"`
	// SelectionMethod is "ai" when the candidate selector ran, "manual" otherwise.
	SelectionMethod string `json:"selection_method"`
}

// Portfolio is the result of one recommendation run.
type Portfolio struct {
	RunID     string              `json:"run_id" badgerhold:"key"`
	SessionID string              `json:"session_id,omitempty"`
	Positions []PortfolioPosition `json:"positions"`
	Summary   PortfolioSummary    `json:"summary"`
	// Analyses carries every completed analysis, including those that did
	// not make the final cut, for archival and review.
	Analyses      []*StockAnalysis `json:"analyses,omitempty"`
	FailedTickers []string         `json:"failed_tickers,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
