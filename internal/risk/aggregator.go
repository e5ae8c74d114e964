// Package risk combines detected patterns into a merchant risk assessment.
package risk

import (
	"math"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Per-type contribution weights. They sum to 1.0 so a full-confidence sweep of
// every detector maps onto the whole score range before scaling.
var patternWeights = map[domain.PatternType]float64{
	domain.PatternLateNight:             0.20,
	domain.PatternVelocitySpike:         0.30,
	domain.PatternSplitTransactions:     0.25,
	domain.PatternRoundAmount:           0.15,
	domain.PatternCustomerConcentration: 0.10,
}

const (
	// scalingIntensity controls how far non-linear scaling amplifies base
	// scores: a cluster of medium-confidence patterns reads as more severe
	// than their plain weighted sum.
	scalingIntensity = 0.5

	// correlationStep is the per-distinct-type increment of the correlation
	// penalty that discounts overlapping signals.
	correlationStep = 0.25

	defaultPatternWeight = 0.1
)

func patternWeight(pt domain.PatternType) float64 {
	if w, ok := patternWeights[pt]; ok {
		return w
	}
	return defaultPatternWeight
}

// scaleRisk applies the non-linear amplification, capped at 1.0.
func scaleRisk(base float64) float64 {
	return math.Min(1.0, base*(1+math.Log(1+scalingIntensity)))
}

// correlationPenalty discounts the aggregate when several pattern types flag
// what may be the same underlying behavior. Zero or one detected pattern has
// no pair to correlate, so the penalty is zero by definition.
func correlationPenalty(patterns []domain.DetectedPattern) float64 {
	types := make(map[domain.PatternType]struct{}, len(patterns))
	for _, p := range patterns {
		types[p.Type] = struct{}{}
	}
	if len(types) <= 1 {
		return 0
	}
	return math.Min(1.0, float64(len(types))*correlationStep)
}

// AggregateScore combines the detected patterns into the overall 0-100 risk
// score: weighted base per pattern, non-linear scaling, correlation discount,
// optional external boost, then clamp and scale for presentation.
func AggregateScore(patterns []domain.DetectedPattern, externalFactor float64) float64 {
	if len(patterns) == 0 {
		return 0
	}

	var sum float64
	for _, p := range patterns {
		sum += scaleRisk(p.ConfidenceScore * patternWeight(p.Type))
	}

	score := sum * (1 - correlationPenalty(patterns)) * (1 + externalFactor)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score * 100
}
