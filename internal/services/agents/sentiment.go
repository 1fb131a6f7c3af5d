package agents

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vantage/internal/models"
)

// SentimentAgent scores market sentiment from price action: recent
// momentum and the share of up days. It is the one agent that may report
// a missing score when the bundle gives it nothing to read.
type SentimentAgent struct {
	logger  arbor.ILogger
	narrate Narrator
}

func NewSentimentAgent(logger arbor.ILogger, narrate Narrator) *SentimentAgent {
	return &SentimentAgent{logger: logger, narrate: narrate}
}

func (a *SentimentAgent) Name() string { return models.AgentSentiment }

func (a *SentimentAgent) Analyze(ctx context.Context, ticker string, bundle *models.DataBundle) (models.AgentResult, error) {
	recent, haveRecent := windowReturn(bundle.PriceHistory, 21)
	upShare, haveUp := upDayShare(bundle.PriceHistory, 21)

	if !haveRecent && !haveUp {
		return models.AgentResult{
			AgentName:    a.Name(),
			Score:        50,
			ScoreMissing: true,
			Rationale:    fmt.Sprintf("%s: no recent price action to read sentiment from", ticker),
		}, nil
	}

	score := 50.0
	if haveRecent {
		switch {
		case recent >= 0.10:
			score += 25
		case recent >= 0.05:
			score += 15
		case recent >= 0:
			score += 5
		case recent >= -0.05:
			score -= 10
		default:
			score -= 20
		}
	}
	if haveUp {
		score += (upShare - 0.5) * 40
	}
	score = clampScore(score)

	rationale := fmt.Sprintf(
		"%s returned %+.1f%% over the last month with %.0f%% up days, indicating %s sentiment.",
		ticker, recent*100, upShare*100, sentimentLabel(score))

	prompt := fmt.Sprintf(
		"Write one sentence on market sentiment toward %s given a %+.1f%% one-month return "+
			"and %.0f%% positive trading days.",
		ticker, recent*100, upShare*100)

	return models.AgentResult{
		AgentName: a.Name(),
		Score:     score,
		Rationale: narrated(ctx, a.narrate, a.logger, a.Name(), rationale, prompt),
		Details: map[string]any{
			"month_return": recent,
			"up_day_share": upShare,
		},
	}, nil
}

func sentimentLabel(score float64) string {
	switch {
	case score >= 70:
		return "strongly positive"
	case score >= 55:
		return "positive"
	case score >= 45:
		return "neutral"
	case score >= 30:
		return "negative"
	default:
		return "strongly negative"
	}
}
