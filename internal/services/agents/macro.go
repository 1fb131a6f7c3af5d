package agents

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/models"
)

// MacroAgent scores how well the stock's sector fits the prevailing
// market regime, read from the benchmark series drift.
type MacroAgent struct {
	logger  arbor.ILogger
	narrate Narrator
}

func NewMacroAgent(logger arbor.ILogger, narrate Narrator) *MacroAgent {
	return &MacroAgent{logger: logger, narrate: narrate}
}

func (a *MacroAgent) Name() string { return models.AgentMacro }

// Market regimes derived from benchmark drift.
const (
	regimeBullish = "bullish"
	regimeNeutral = "neutral"
	regimeBearish = "bearish"
)

// cyclicalSectors benefit from risk-on regimes; defensives hold up in
// risk-off ones.
var cyclicalSectors = map[string]bool{
	"Technology":             true,
	"Consumer Cyclical":      true,
	"Consumer Discretionary": true,
	"Industrials":            true,
	"Financial Services":     true,
	"Financials":             true,
	"Basic Materials":        true,
	"Energy":                 true,
	"Real Estate":            true,
}

var defensiveSectors = map[string]bool{
	"Healthcare":             true,
	"Consumer Defensive":     true,
	"Consumer Staples":       true,
	"Utilities":              true,
	"Communication Services": true,
}

func (a *MacroAgent) Analyze(ctx context.Context, ticker string, bundle *models.DataBundle) (models.AgentResult, error) {
	benchReturn, haveBench := totalReturn(bundle.BenchmarkHistory)
	sector := bundle.Fundamentals.Sector

	if !haveBench && sector == "" {
		return models.AgentResult{
			AgentName:    a.Name(),
			Score:        50,
			ScoreMissing: true,
			Rationale:    fmt.Sprintf("%s: no benchmark or sector data for regime analysis", ticker),
		}, nil
	}

	regime := regimeNeutral
	switch {
	case haveBench && benchReturn >= 0.05:
		regime = regimeBullish
	case haveBench && benchReturn <= -0.05:
		regime = regimeBearish
	}

	score := scoreRegimeFit(regime, sector)

	rationale := fmt.Sprintf(
		"%s operates in %s within a %s market regime (benchmark %+.1f%% over the period).",
		ticker, sectorOrUnknown(sector), regime, benchReturn*100)

	prompt := fmt.Sprintf(
		"Write one sentence on how the %s sector positions %s in a %s market regime.",
		sectorOrUnknown(sector), ticker, regime)

	return models.AgentResult{
		AgentName: a.Name(),
		Score:     score,
		Rationale: narrated(ctx, a.narrate, a.logger, a.Name(), rationale, prompt),
		Details: map[string]any{
			"regime":           regime,
			"benchmark_return": benchReturn,
			"sector":           sector,
		},
	}, nil
}

func scoreRegimeFit(regime, sector string) float64 {
	cyclical := cyclicalSectors[sector]
	defensive := defensiveSectors[sector]

	switch regime {
	case regimeBullish:
		switch {
		case cyclical:
			return 75
		case defensive:
			return 55
		default:
			return 62
		}
	case regimeBearish:
		switch {
		case defensive:
			return 68
		case cyclical:
			return 38
		default:
			return 48
		}
	default:
		if cyclical || defensive {
			return 58
		}
		return 50
	}
}

func sectorOrUnknown(sector string) string {
	if sector == "" {
		return "an unclassified sector"
	}
	return sector
}
