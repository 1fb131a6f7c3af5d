package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/common"
	"github.com/ternarybob/vantage/internal/interfaces"
	"github.com/ternarybob/vantage/internal/models"
	"github.com/ternarybob/vantage/internal/services/agents"
	"github.com/ternarybob/vantage/internal/services/progress"
	"github.com/ternarybob/vantage/internal/services/scoring"
)

// Orchestrator coordinates a complete per-ticker analysis: data gathering,
// sequential agent scoring with phase progress, score blending, the
// comprehensive rationale report, the policy eligibility screen, and
// archival. Analyses never fail with an error; total data failure produces
// an error-carrying result so batch runs continue.
type Orchestrator struct {
	fetcher  *Fetcher
	runner   *agents.Runner
	agents   []interfaces.Agent
	selector CandidateSelector
	archive  interfaces.ArchiveStorage
	policy   *common.PolicyProfile
	config   common.AnalysisConfig
	history  *progress.History
	validate *validator.Validate
	logger   arbor.ILogger
	now      func() time.Time
}

// NewOrchestrator wires an orchestrator. selector may be nil when only
// manual portfolios are needed; archive may be nil to disable archival
// regardless of configuration.
func NewOrchestrator(fetcher *Fetcher, runner *agents.Runner, agentList []interfaces.Agent, selector CandidateSelector, archive interfaces.ArchiveStorage, policy *common.PolicyProfile, cfg *common.Config, logger arbor.ILogger) *Orchestrator {
	if policy == nil {
		policy = common.NewDefaultPolicyProfile()
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Orchestrator{
		fetcher:  fetcher,
		runner:   runner,
		agents:   agentList,
		selector: selector,
		archive:  archive,
		policy:   policy,
		config:   cfg.Analysis,
		history:  progress.NewHistory(),
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// AnalyzeStock runs the full pipeline for one ticker without progress
// reporting.
func (o *Orchestrator) AnalyzeStock(ctx context.Context, req *models.AnalysisRequest) *models.StockAnalysis {
	return o.AnalyzeStockWithProgress(ctx, req, interfaces.NopProgressSink)
}

// AnalyzeStockWithProgress runs the full pipeline for one ticker, emitting
// progress updates with smoothed time-remaining estimates to sink.
func (o *Orchestrator) AnalyzeStockWithProgress(ctx context.Context, req *models.AnalysisRequest, sink interfaces.ProgressSink) *models.StockAnalysis {
	if sink == nil {
		sink = interfaces.NopProgressSink
	}

	analysis := &models.StockAnalysis{
		ID:              common.NewAnalysisID(),
		Ticker:          req.Ticker,
		CreatedAt:       o.now(),
		AgentScores:     map[string]float64{},
		AgentRationales: map[string]string{},
	}

	if err := o.validate.Struct(req); err != nil {
		analysis.Err = fmt.Sprintf("invalid analysis request: %v", err)
		return analysis
	}

	startDate, endDate := o.dateWindow(req.AsOfDate)
	analysis.AnalysisDate = endDate

	o.logger.Info().
		Str("ticker", req.Ticker).
		Str("analysis_date", endDate).
		Msg("Starting comprehensive analysis")

	tracker := progress.NewTracker(o.history, progress.AnalysisPhases())
	emit := func(message string, percent int, phaseProgress float64) {
		eta, ok := tracker.EstimateRemaining(phaseProgress)
		if !ok {
			eta = -1
		}
		sink(message, percent, eta)
	}

	// 1. Gather all data in parallel.
	tracker.StartPhase(progress.PhaseDataGather)
	emit(fmt.Sprintf("Fetching fundamental data and price history for %s", req.Ticker), 10, 0)
	bundle := o.fetcher.Fetch(ctx, req.Ticker, startDate, endDate)

	if !bundle.HasFundamentals() {
		o.logger.Warn().Str("ticker", req.Ticker).Msg("No fundamental data from any source")
		emit(fmt.Sprintf("No fundamental data found for %s", req.Ticker), 10, 1)
		analysis.Err = models.ErrTotalDataFailure.Error()
		analysis.Eligible = false
		return analysis
	}

	analysis.Fundamentals = bundle.Fundamentals
	analysis.PriceHistory = bundle.PriceHistory

	// 2. Run all agents sequentially, 30-70%.
	emit(fmt.Sprintf("Launching %d analysis agents for %s", len(o.agents), req.Ticker), 30, 1)
	total := len(o.agents)
	if total > 0 {
		tracker.StartPhase("agent_" + o.agents[0].Name())
	}
	results := o.runner.RunEach(ctx, req.Ticker, bundle, o.agents, func(i int, agent interfaces.Agent, result models.AgentResult) {
		percent := 30 + int(float64(i+1)/float64(total)*40)
		emit(fmt.Sprintf("%s agent complete: scored %.0f/100", agent.Name(), result.Score), percent, 1)
		if i+1 < total {
			tracker.StartPhase("agent_" + o.agents[i+1].Name())
		}
	})

	analysis.AgentResults = orderedResults(results)
	for name, result := range results {
		analysis.AgentScores[name] = result.Score
		analysis.AgentRationales[name] = result.Rationale
	}

	// 3. Blend scores.
	tracker.StartPhase(progress.PhaseFinalize)
	emit("Blending agent scores with configured weights", 80, 0)
	outcome := scoring.Blend(results, o.blendWeights(req.WeightOverrides))
	analysis.BlendedScore = outcome.BaseScore
	analysis.UpsideMultiplier = outcome.Multiplier
	analysis.UpsideFactors = outcome.Factors
	analysis.FinalScore = outcome.FinalScore
	analysis.Recommendation = outcome.Recommendation

	// 4. Finalize: report, eligibility screen, archive.
	analysis.Rationale = buildComprehensiveRationale(req.Ticker, results, analysis.FinalScore, bundle.Fundamentals)
	analysis.Eligible, analysis.EligibilityNote = o.screenEligibility(bundle.Fundamentals)

	emit(fmt.Sprintf("Analysis complete: %.1f/100 - %s", analysis.FinalScore, analysis.Recommendation), 90, 0.8)

	if o.config.ArchiveResults && o.archive != nil {
		if err := o.archive.SaveAnalysis(ctx, analysis); err != nil {
			o.logger.Warn().Err(err).Str("ticker", req.Ticker).Msg("Failed to archive analysis")
		}
	}

	tracker.Finish()
	emit(fmt.Sprintf("Analysis complete: %.1f/100", analysis.FinalScore), 100, 1)

	o.logger.Info().
		Str("ticker", req.Ticker).
		Float64("final_score", analysis.FinalScore).
		Str("recommendation", analysis.Recommendation).
		Bool("eligible", analysis.Eligible).
		Msg("Analysis complete")

	return analysis
}

// dateWindow computes the one-year lookback window ending at asOf, clamped
// so the window never extends into the future.
func (o *Orchestrator) dateWindow(asOf string) (string, string) {
	today := o.now()
	end := today
	if asOf != "" {
		if parsed, err := time.Parse("2006-01-02", asOf); err == nil && !parsed.After(today) {
			end = parsed
		}
	}
	start := end.AddDate(-1, 0, 0)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

// blendWeights merges per-request overrides over the configured and
// default blend weights.
func (o *Orchestrator) blendWeights(overrides map[string]float64) map[string]float64 {
	weights := scoring.DefaultWeights()
	for name, w := range o.config.Weights {
		weights[name] = w
	}
	for name, w := range overrides {
		weights[name] = w
	}
	return weights
}

// screenEligibility applies the policy profile's hard constraints: minimum
// price, minimum market cap, prohibited sectors, and beta range. Unset
// fundamentals fields skip their check, matching the selection screen.
func (o *Orchestrator) screenEligibility(f models.Fundamentals) (bool, []string) {
	var notes []string

	if f.Price > 0 && o.policy.Universe.MinPrice > 0 && f.Price < o.policy.Universe.MinPrice {
		notes = append(notes, fmt.Sprintf("price $%.2f below minimum $%.2f", f.Price, o.policy.Universe.MinPrice))
	}
	if f.MarketCap > 0 && o.policy.Universe.MinMarketCap > 0 && f.MarketCap < o.policy.Universe.MinMarketCap {
		notes = append(notes, fmt.Sprintf("market cap %s below minimum %s",
			humanizeMarketCap(f.MarketCap), humanizeMarketCap(o.policy.Universe.MinMarketCap)))
	}
	if f.Sector != "" && o.policy.ProhibitsSector(f.Sector) {
		notes = append(notes, fmt.Sprintf("sector %s is prohibited", f.Sector))
	}
	if f.Beta != 0 {
		if f.Beta < o.policy.BetaMin {
			notes = append(notes, fmt.Sprintf("beta %.2f below minimum %.2f", f.Beta, o.policy.BetaMin))
		}
		if o.policy.BetaMax > 0 && f.Beta > o.policy.BetaMax {
			notes = append(notes, fmt.Sprintf("beta %.2f above maximum %.2f", f.Beta, o.policy.BetaMax))
		}
	}

	return len(notes) == 0, notes
}

// orderedResults flattens the result map into the canonical agent order.
func orderedResults(results map[string]models.AgentResult) []models.AgentResult {
	ordered := make([]models.AgentResult, 0, len(results))
	for _, name := range models.AgentNames() {
		if result, ok := results[name]; ok {
			ordered = append(ordered, result)
		}
	}
	return ordered
}
