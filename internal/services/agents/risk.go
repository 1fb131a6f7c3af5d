package agents

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/models"
)

// RiskAgent scores downside characteristics: realized volatility, beta
// against the benchmark, and maximum drawdown. Higher scores mean lower
// risk.
type RiskAgent struct {
	logger  arbor.ILogger
	narrate Narrator
}

func NewRiskAgent(logger arbor.ILogger, narrate Narrator) *RiskAgent {
	return &RiskAgent{logger: logger, narrate: narrate}
}

func (a *RiskAgent) Name() string { return models.AgentRisk }

func (a *RiskAgent) Analyze(ctx context.Context, ticker string, bundle *models.DataBundle) (models.AgentResult, error) {
	vol, haveVol := annualizedVolatility(bundle.PriceHistory)
	drawdown, haveDD := maxDrawdown(bundle.PriceHistory)

	beta, haveBeta := betaAgainst(bundle.PriceHistory, bundle.BenchmarkHistory)
	if !haveBeta && bundle.Fundamentals.Beta > 0 {
		beta, haveBeta = bundle.Fundamentals.Beta, true
	}

	if !haveVol && !haveBeta && !haveDD {
		return models.AgentResult{
			AgentName:    a.Name(),
			Score:        50,
			ScoreMissing: true,
			Rationale:    fmt.Sprintf("%s: no price series or beta available for risk analysis", ticker),
		}, nil
	}

	var components, weights float64
	details := map[string]any{}

	if haveVol {
		vScore := scoreVolatility(vol)
		components += vScore * 0.4
		weights += 0.4
		details["annualized_volatility"] = vol
		details["volatility_score"] = vScore
	}
	if haveBeta {
		bScore := scoreBeta(beta)
		components += bScore * 0.35
		weights += 0.35
		details["beta"] = beta
		details["beta_score"] = bScore
	}
	if haveDD {
		dScore := scoreDrawdown(drawdown)
		components += dScore * 0.25
		weights += 0.25
		details["max_drawdown"] = drawdown
		details["drawdown_score"] = dScore
	}

	score := clampScore(components / weights)

	rationale := fmt.Sprintf(
		"%s carries %.0f%% annualized volatility, beta %.2f, and a %.0f%% maximum drawdown.",
		ticker, vol*100, beta, drawdown*100)

	prompt := fmt.Sprintf(
		"Write one sentence on the risk profile of %s given %.0f%% annualized volatility, "+
			"beta %.2f, and a %.0f%% maximum drawdown.",
		ticker, vol*100, beta, drawdown*100)

	return models.AgentResult{
		AgentName: a.Name(),
		Score:     score,
		Rationale: narrated(ctx, a.narrate, a.logger, a.Name(), rationale, prompt),
		Details:   details,
	}, nil
}

func scoreVolatility(vol float64) float64 {
	switch {
	case vol < 0.15:
		return 85
	case vol < 0.25:
		return 70
	case vol < 0.35:
		return 55
	case vol < 0.50:
		return 40
	default:
		return 25
	}
}

func scoreBeta(beta float64) float64 {
	switch {
	case beta < 0:
		return 55
	case beta < 0.8:
		return 80
	case beta <= 1.2:
		return 65
	case beta <= 1.5:
		return 50
	default:
		return 35
	}
}

func scoreDrawdown(dd float64) float64 {
	switch {
	case dd < 0.10:
		return 85
	case dd < 0.20:
		return 70
	case dd < 0.30:
		return 55
	case dd < 0.40:
		return 40
	default:
		return 25
	}
}
