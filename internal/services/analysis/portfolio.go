package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/selection"
)

// Selection method labels recorded on the portfolio summary.
const (
	SelectionMethodAI     = "ai"
	SelectionMethodManual = "manual"
)

// ErrSelectorUnavailable is returned when an AI-selected portfolio is
// requested but no selector was wired.
var ErrSelectorUnavailable = errors.New("candidate selector not available")

// manualRationale annotates positions taken from a user-supplied list.
const manualRationale = "Manually selected ticker"

// CandidateSelector picks portfolio candidates for an investment challenge.
type CandidateSelector interface {
	// SelectTickers runs the full selection protocol for the challenge.
	SelectTickers(ctx context.Context, challenge string) (*selection.Result, error)

	// SelectTickersWithCount overrides the initial per-selector candidate
	// count for one run. A count below 1 keeps the configured default.
	SelectTickersWithCount(ctx context.Context, challenge string, initialCount int) (*selection.Result, error)
}

// RecommendPortfolio builds a complete portfolio recommendation: candidate
// selection (AI or manual), sequential per-ticker analysis with the growing
// portfolio as context, scoring-ranked position construction with equal
// weights, and portfolio-level summary statistics. Failed analyses are
// skipped, not fatal.
func (o *Orchestrator) RecommendPortfolio(ctx context.Context, req *models.PortfolioRequest) (*models.Portfolio, error) {
	return o.RecommendPortfolioWithProgress(ctx, req, nil)
}

// RecommendPortfolioWithProgress is RecommendPortfolio with a per-ticker
// progress sink factory; sink may be nil.
func (o *Orchestrator) RecommendPortfolioWithProgress(ctx context.Context, req *models.PortfolioRequest, sink func(ticker string) interfaces.ProgressSink) (*models.Portfolio, error) {
	if err := o.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid portfolio request: %w", err)
	}

	numPositions := req.NumPositions
	if numPositions <= 0 {
		numPositions = 5
	}

	o.logger.Info().
		Int("num_positions", numPositions).
		Bool("manual", len(req.ManualTickers) > 0).
		Msg("Starting portfolio recommendation")

	var (
		tickers    []string
		rationales map[string]string
		sessionID  string
		challenge  = req.ChallengeText
		method     = SelectionMethodAI
	)

	if len(req.ManualTickers) > 0 {
		tickers = firstTickers(req.ManualTickers, numPositions)
		rationales = make(map[string]string, len(tickers))
		for _, t := range tickers {
			rationales[t] = manualRationale
		}
		method = SelectionMethodManual
		o.logger.Info().Strs("tickers", tickers).Msg("Using manual ticker list")
	} else {
		if o.selector == nil {
			return nil, ErrSelectorUnavailable
		}
		result, err := o.selector.SelectTickersWithCount(ctx, req.ChallengeText, req.UniverseSize)
		if err != nil {
			return nil, fmt.Errorf("candidate selection failed: %w", err)
		}
		tickers = result.Tickers
		rationales = result.Rationales
		sessionID = result.Session.SessionID
		challenge = result.Session.ChallengeText
		o.logger.Info().Strs("tickers", tickers).Msg("AI selection complete")
	}

	portfolio := &models.Portfolio{
		RunID:     common.NewRunID(),
		SessionID: sessionID,
		CreatedAt: o.now(),
	}

	// Analyze sequentially; earlier analyses become context for later ones.
	var held []string
	for i, ticker := range tickers {
		o.logger.Info().
			Str("ticker", ticker).
			Int("position", i+1).
			Int("total", len(tickers)).
			Msg("Analyzing candidate")

		analysisReq := &models.AnalysisRequest{
			Ticker:            ticker,
			AsOfDate:          req.AsOfDate,
			ExistingPortfolio: append([]string(nil), held...),
		}

		var analysis *models.StockAnalysis
		if sink != nil {
			analysis = o.AnalyzeStockWithProgress(ctx, analysisReq, sink(ticker))
		} else {
			analysis = o.AnalyzeStock(ctx, analysisReq)
		}

		if analysis.Failed() {
			o.logger.Warn().
				Str("ticker", ticker).
				Str("error", analysis.Err).
				Msg("Candidate analysis failed, skipping")
			portfolio.FailedTickers = append(portfolio.FailedTickers, ticker)
			continue
		}

		portfolio.Analyses = append(portfolio.Analyses, analysis)
		held = append(held, ticker)
	}

	if len(portfolio.Analyses) == 0 {
		return nil, fmt.Errorf("no candidates could be analyzed (%d attempted)", len(tickers))
	}

	// Rank by final score and take the top positions, equal weighted.
	ranked := append([]*models.StockAnalysis(nil), portfolio.Analyses...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	if len(ranked) > numPositions {
		ranked = ranked[:numPositions]
	}

	weight := 100.0 / float64(len(ranked))
	sectorExposure := make(map[string]float64)
	var scoreSum float64

	for _, analysis := range ranked {
		rationale := rationales[analysis.Ticker]
		if rationale == "" {
			rationale = "See comprehensive analysis"
		}
		portfolio.Positions = append(portfolio.Positions, models.PortfolioPosition{
			Ticker:          analysis.Ticker,
			Name:            analysis.Fundamentals.Name,
			Sector:          analysis.Fundamentals.Sector,
			FinalScore:      analysis.FinalScore,
			BlendedScore:    analysis.BlendedScore,
			TargetWeightPct: weight,
			Recommendation:  analysis.Recommendation,
			Rationale:       rationale,
		})

		sector := analysis.Fundamentals.Sector
		if sector == "" {
			sector = "Unknown"
		}
		sectorExposure[sector] += weight
		scoreSum += analysis.FinalScore
	}

	portfolio.Summary = models.PortfolioSummary{
		NumPositions:     len(portfolio.Positions),
		TotalWeightPct:   weight * float64(len(portfolio.Positions)),
		AvgScore:         scoreSum / float64(len(portfolio.Positions)),
		SectorExposure:   sectorExposure,
		ChallengeContext: challenge,
		SelectionMethod:  method,
	}

	o.logger.Info().
		Str("run_id", portfolio.RunID).
		Int("positions", len(portfolio.Positions)).
		Float64("avg_score", portfolio.Summary.AvgScore).
		Strs("failed", portfolio.FailedTickers).
		Msg("Portfolio recommendation complete")

	return portfolio, nil
}

// firstTickers copies at most n tickers from list.
func firstTickers(list []string, n int) []string {
	if len(list) > n {
		list = list[:n]
	}
	return append([]string(nil), list...)
}
