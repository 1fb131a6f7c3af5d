package agents

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/models"
)

// ValueAgent scores valuation: P/E ratio, dividend yield, and how far the
// price sits below its 52-week high.
type ValueAgent struct {
	logger  arbor.ILogger
	narrate Narrator
}

func NewValueAgent(logger arbor.ILogger, narrate Narrator) *ValueAgent {
	return &ValueAgent{logger: logger, narrate: narrate}
}

func (a *ValueAgent) Name() string { return models.AgentValue }

func (a *ValueAgent) Analyze(ctx context.Context, ticker string, bundle *models.DataBundle) (models.AgentResult, error) {
	f := bundle.Fundamentals
	if f.IsZero() {
		return models.AgentResult{
			AgentName:    a.Name(),
			Score:        50,
			ScoreMissing: true,
			Rationale:    fmt.Sprintf("%s: no fundamental data available for valuation", ticker),
		}, nil
	}

	peScore := scorePE(f.PERatio)
	discountScore, discount := scoreDiscount(f.Price, f.Week52High)
	yieldScore := scoreYield(f.DividendYield)

	score := clampScore(peScore*0.5 + discountScore*0.3 + yieldScore*0.2)

	rationale := fmt.Sprintf(
		"%s trades at a P/E of %.1f, %.0f%% below its 52-week high, with a %.2f%% dividend yield.",
		ticker, f.PERatio, discount*100, f.DividendYield*100)

	prompt := fmt.Sprintf(
		"Write one sentence assessing the valuation of %s given P/E %.1f, "+
			"price %.0f%% below its 52-week high, dividend yield %.2f%%.",
		ticker, f.PERatio, discount*100, f.DividendYield*100)

	return models.AgentResult{
		AgentName: a.Name(),
		Score:     score,
		Rationale: narrated(ctx, a.narrate, a.logger, a.Name(), rationale, prompt),
		Details: map[string]any{
			"pe_ratio":         f.PERatio,
			"dividend_yield":   f.DividendYield,
			"discount_to_high": discount,
			"pe_score":         peScore,
			"discount_score":   discountScore,
			"yield_score":      yieldScore,
		},
	}, nil
}

// scorePE rewards low positive earnings multiples. Non-positive P/E
// (negative earnings or unknown) scores below neutral.
func scorePE(pe float64) float64 {
	switch {
	case pe <= 0:
		return 40
	case pe < 10:
		return 90
	case pe < 15:
		return 80
	case pe < 20:
		return 70
	case pe < 25:
		return 60
	case pe < 35:
		return 45
	default:
		return 30
	}
}

// scoreDiscount rewards entry points well below the 52-week high.
func scoreDiscount(price, high52 float64) (float64, float64) {
	if price <= 0 || high52 <= 0 || price > high52 {
		return 50, 0
	}
	discount := 1 - price/high52
	switch {
	case discount >= 0.30:
		return 85, discount
	case discount >= 0.15:
		return 70, discount
	case discount >= 0.05:
		return 55, discount
	default:
		return 40, discount
	}
}

func scoreYield(yield float64) float64 {
	switch {
	case yield >= 0.04:
		return 85
	case yield >= 0.02:
		return 70
	case yield > 0:
		return 60
	default:
		return 50
	}
}
