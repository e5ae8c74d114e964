// Package pattern implements the behavioral risk detectors.
//
// Each detector is a pure function over an immutable transaction batch and a
// typed config: it returns a DetectedPattern when the pattern fires and nil
// otherwise. Detectors never observe each other's results, never mutate their
// input, and tolerate empty or single-element batches. Characteristics carry
// only JSON-native value types (float64, string, bool) so a pattern read back
// from a cache is field-equal to a freshly detected one.
package pattern

import (
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Detect runs the detector for the given pattern type. Dispatch is an
// exhaustive switch over the fixed enumeration so a new pattern type is a
// compile-time-checked addition. Confidence is clamped to [0, 1] here;
// detectors may compute raw ratios above 1.
func Detect(pt domain.PatternType, txns []*domain.Transaction, cfg Config) *domain.DetectedPattern {
	if len(txns) == 0 {
		return nil
	}

	var p *domain.DetectedPattern
	switch pt {
	case domain.PatternLateNight:
		p = detectLateNight(txns, cfg.LateNight)
	case domain.PatternVelocitySpike:
		p = detectVelocitySpike(txns, cfg.Velocity)
	case domain.PatternSplitTransactions:
		p = detectSplitTransactions(txns, cfg.Split)
	case domain.PatternRoundAmount:
		p = detectRoundAmount(txns, cfg.RoundAmount)
	case domain.PatternCustomerConcentration:
		p = detectCustomerConcentration(txns, cfg.Concentration)
	default:
		return nil
	}

	if p == nil {
		return nil
	}

	p.ConfidenceScore = clamp01(p.ConfidenceScore)
	p.DetectedAt = time.Now().UTC()
	return p
}

// DetectAll runs every detector in canonical order and returns the patterns
// that fired. Intended for callers that do not need caching or fan-out.
func DetectAll(txns []*domain.Transaction, cfg Config) []domain.DetectedPattern {
	var detected []domain.DetectedPattern
	for _, pt := range domain.AllPatternTypes() {
		if p := Detect(pt, txns, cfg); p != nil {
			detected = append(detected, *p)
		}
	}
	return detected
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
