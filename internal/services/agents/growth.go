package agents

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/models"
)

// GrowthAgent scores growth and momentum: revenue and earnings growth
// from fundamentals, plus price momentum over the fetched series.
type GrowthAgent struct {
	logger  arbor.ILogger
	narrate Narrator
}

func NewGrowthAgent(logger arbor.ILogger, narrate Narrator) *GrowthAgent {
	return &GrowthAgent{logger: logger, narrate: narrate}
}

func (a *GrowthAgent) Name() string { return models.AgentGrowth }

func (a *GrowthAgent) Analyze(ctx context.Context, ticker string, bundle *models.DataBundle) (models.AgentResult, error) {
	f := bundle.Fundamentals

	var components, weights float64
	details := map[string]any{}

	if !f.IsZero() {
		growth := (f.RevenueGrowth + f.EarningsGrowth) / 2
		gScore := scoreGrowthRate(growth)
		components += gScore * 0.6
		weights += 0.6
		details["revenue_growth"] = f.RevenueGrowth
		details["earnings_growth"] = f.EarningsGrowth
		details["growth_score"] = gScore
	}

	momentum, haveMomentum := totalReturn(bundle.PriceHistory)
	recent, haveRecent := windowReturn(bundle.PriceHistory, 63)
	if haveMomentum {
		mScore := scoreMomentum(momentum, recent, haveRecent)
		components += mScore * 0.4
		weights += 0.4
		details["period_return"] = momentum
		if haveRecent {
			details["quarter_return"] = recent
		}
		details["momentum_score"] = mScore
	}

	if weights == 0 {
		return models.AgentResult{
			AgentName:    a.Name(),
			Score:        50,
			ScoreMissing: true,
			Rationale:    fmt.Sprintf("%s: no growth or momentum data available", ticker),
		}, nil
	}

	score := clampScore(components / weights)

	rationale := fmt.Sprintf(
		"%s shows %.1f%% revenue growth and %.1f%% earnings growth with a %.1f%% period return.",
		ticker, f.RevenueGrowth*100, f.EarningsGrowth*100, momentum*100)

	prompt := fmt.Sprintf(
		"Write one sentence assessing the growth outlook for %s given revenue growth %.1f%%, "+
			"earnings growth %.1f%%, and a %.1f%% price return over the past year.",
		ticker, f.RevenueGrowth*100, f.EarningsGrowth*100, momentum*100)

	return models.AgentResult{
		AgentName: a.Name(),
		Score:     score,
		Rationale: narrated(ctx, a.narrate, a.logger, a.Name(), rationale, prompt),
		Details:   details,
	}, nil
}

func scoreGrowthRate(g float64) float64 {
	switch {
	case g >= 0.25:
		return 90
	case g >= 0.15:
		return 80
	case g >= 0.08:
		return 70
	case g >= 0.03:
		return 60
	case g >= 0:
		return 50
	default:
		return 35
	}
}

// scoreMomentum scores the period return, nudged by the trailing quarter
// when available so recent acceleration or fade shows through.
func scoreMomentum(period, quarter float64, haveQuarter bool) float64 {
	var base float64
	switch {
	case period >= 0.40:
		base = 90
	case period >= 0.20:
		base = 80
	case period >= 0.10:
		base = 70
	case period >= 0:
		base = 55
	case period >= -0.10:
		base = 45
	default:
		base = 30
	}

	if haveQuarter {
		switch {
		case quarter >= 0.10:
			base += 5
		case quarter <= -0.10:
			base -= 5
		}
	}
	return clampScore(base)
}
