// Package scoring blends per-agent scores into a single weighted score
// with a bounded upside multiplier and a recommendation label.
package scoring

import (
	"fmt"

	"github.com/ternarybob/vantage/internal/models"
)

// Default blend weights by agent name. Growth momentum dominates, the
// remaining agents share the rest.
const (
	WeightValue     = 0.20
	WeightGrowth    = 0.40
	WeightMacro     = 0.10
	WeightRisk      = 0.15
	WeightSentiment = 0.15
)

// Multiplier bounds. The upside multiplier never leaves this band no
// matter how many adjustments fire.
const (
	MultiplierFloor = 0.85
	MultiplierCeil  = 1.35
)

// NeutralScore substitutes for a missing blend input.
const NeutralScore = 50.0

// Recommendation thresholds on the final score.
const (
	ThresholdStrongBuy = 80.0
	ThresholdBuy       = 70.0
	ThresholdHold      = 60.0
	ThresholdWeakHold  = 40.0
)

// Recommendation labels.
const (
	RecStrongBuy = "STRONG BUY"
	RecBuy       = "BUY"
	RecHold      = "HOLD"
	RecWeakHold  = "WEAK HOLD"
	RecSell      = "SELL"
)

// Outcome is the result of blending one ticker's agent scores.
type Outcome struct {
	BaseScore      float64
	Multiplier     float64
	Factors        []string
	FinalScore     float64
	Recommendation string
}

// DefaultWeights returns the standard blend weights keyed by agent name.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		models.AgentValue:     WeightValue,
		models.AgentGrowth:    WeightGrowth,
		models.AgentMacro:     WeightMacro,
		models.AgentRisk:      WeightRisk,
		models.AgentSentiment: WeightSentiment,
	}
}

// Blend computes the weighted base score over the agents present in both
// results and weights, applies the upside multiplier adjustments, and
// labels the outcome.
//
// Base score:
// - weighted mean of scores whose agent has a positive weight
// - 50 (neutral) when no agent overlaps the weight table
//
// Multiplier adjustments (additive, then clamped to [0.85, 1.35]):
// - growth >= 80: +0.15, >= 70: +0.10, >= 60: +0.05, < 40: -0.05
// - sentiment >= 75: +0.08, >= 65: +0.05
// - value >= 75: +0.05
// - risk < 30: -0.10
//
// The final score is base * multiplier clamped back to [0, 100].
func Blend(results map[string]models.AgentResult, weights map[string]float64) Outcome {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}

	scores := make(map[string]float64, len(results))
	for name, r := range results {
		r.CoalesceScore()
		scores[name] = r.Score
	}

	var weightedSum, weightTotal float64
	for name, w := range weights {
		if w <= 0 {
			continue
		}
		score, ok := scores[name]
		if !ok {
			continue
		}
		weightedSum += score * w
		weightTotal += w
	}

	base := NeutralScore
	if weightTotal > 0 {
		base = weightedSum / weightTotal
	}

	multiplier, factors := upsideMultiplier(scores)

	final := clamp(base*multiplier, 0, 100)

	return Outcome{
		BaseScore:      base,
		Multiplier:     multiplier,
		Factors:        factors,
		FinalScore:     final,
		Recommendation: Recommendation(final),
	}
}

// upsideMultiplier derives the bounded multiplier from individual agent
// scores, recording a human-readable factor for each adjustment applied.
func upsideMultiplier(scores map[string]float64) (float64, []string) {
	multiplier := 1.0
	var factors []string

	apply := func(delta float64, reason string) {
		multiplier += delta
		factors = append(factors, fmt.Sprintf("%s (%+.2f)", reason, delta))
	}

	if growth, ok := scores[models.AgentGrowth]; ok {
		switch {
		case growth >= 80:
			apply(0.15, "exceptional growth momentum")
		case growth >= 70:
			apply(0.10, "strong growth momentum")
		case growth >= 60:
			apply(0.05, "solid growth momentum")
		case growth < 40:
			apply(-0.05, "weak growth momentum")
		}
	}

	if sentiment, ok := scores[models.AgentSentiment]; ok {
		switch {
		case sentiment >= 75:
			apply(0.08, "very positive sentiment")
		case sentiment >= 65:
			apply(0.05, "positive sentiment")
		}
	}

	if value, ok := scores[models.AgentValue]; ok && value >= 75 {
		apply(0.05, "attractive valuation")
	}

	if risk, ok := scores[models.AgentRisk]; ok && risk < 30 {
		apply(-0.10, "elevated risk profile")
	}

	return clamp(multiplier, MultiplierFloor, MultiplierCeil), factors
}

// Recommendation maps a final score onto its label.
func Recommendation(finalScore float64) string {
	switch {
	case finalScore >= ThresholdStrongBuy:
		return RecStrongBuy
	case finalScore >= ThresholdBuy:
		return RecBuy
	case finalScore >= ThresholdHold:
		return RecHold
	case finalScore >= ThresholdWeakHold:
		return RecWeakHold
	default:
		return RecSell
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
