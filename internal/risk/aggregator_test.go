package risk

import (
	"math"
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func pat(pt domain.PatternType, confidence float64) domain.DetectedPattern {
	return domain.DetectedPattern{Type: pt, ConfidenceScore: confidence}
}

func TestAggregateScore(t *testing.T) {
	t.Run("NoPatterns", func(t *testing.T) {
		if got := AggregateScore(nil, 0); got != 0 {
			t.Errorf("expected 0, got %.2f", got)
		}
		if got := AggregateScore([]domain.DetectedPattern{}, 0.5); got != 0 {
			t.Errorf("expected 0 regardless of external factor, got %.2f", got)
		}
	})

	t.Run("SinglePattern", func(t *testing.T) {
		patterns := []domain.DetectedPattern{pat(domain.PatternVelocitySpike, 0.5)}

		// 0.5 * 0.30 = 0.15, scaled by (1 + ln 1.5), no correlation penalty
		want := 0.15 * (1 + math.Log(1.5)) * 100
		got := AggregateScore(patterns, 0)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("expected %.4f, got %.4f", want, got)
		}
	})

	t.Run("SinglePatternNoCorrelationPenalty", func(t *testing.T) {
		one := AggregateScore([]domain.DetectedPattern{pat(domain.PatternLateNight, 1.0)}, 0)

		// Adding a second instance of the same type still has one distinct type
		two := AggregateScore([]domain.DetectedPattern{
			pat(domain.PatternLateNight, 1.0),
			pat(domain.PatternLateNight, 1.0),
		}, 0)

		if two <= one {
			t.Errorf("same-type duplicate should add, not discount: one=%.2f two=%.2f", one, two)
		}
	})

	t.Run("CorrelationPenaltyGrowsWithTypes", func(t *testing.T) {
		two := correlationPenalty([]domain.DetectedPattern{
			pat(domain.PatternLateNight, 1),
			pat(domain.PatternVelocitySpike, 1),
		})
		three := correlationPenalty([]domain.DetectedPattern{
			pat(domain.PatternLateNight, 1),
			pat(domain.PatternVelocitySpike, 1),
			pat(domain.PatternRoundAmount, 1),
		})

		if two != 0.5 {
			t.Errorf("expected penalty 0.5 for two types, got %.2f", two)
		}
		if three != 0.75 {
			t.Errorf("expected penalty 0.75 for three types, got %.2f", three)
		}
	})

	t.Run("PenaltyCappedAtOne", func(t *testing.T) {
		all := make([]domain.DetectedPattern, 0, 5)
		for _, pt := range domain.AllPatternTypes() {
			all = append(all, pat(pt, 1.0))
		}
		if got := correlationPenalty(all); got != 1.0 {
			t.Errorf("expected penalty capped at 1.0, got %.2f", got)
		}
		// Full penalty zeroes the aggregate
		if got := AggregateScore(all, 0); got != 0 {
			t.Errorf("expected score 0 under full penalty, got %.2f", got)
		}
	})

	t.Run("ExternalFactorBoosts", func(t *testing.T) {
		patterns := []domain.DetectedPattern{pat(domain.PatternSplitTransactions, 0.6)}

		base := AggregateScore(patterns, 0)
		boosted := AggregateScore(patterns, 0.5)

		if boosted <= base {
			t.Errorf("expected external factor to raise score: base=%.2f boosted=%.2f", base, boosted)
		}
		if math.Abs(boosted-base*1.5) > 1e-9 {
			t.Errorf("expected multiplicative boost, base=%.4f boosted=%.4f", base, boosted)
		}
	})

	t.Run("ScoreInRange", func(t *testing.T) {
		cases := [][]domain.DetectedPattern{
			{pat(domain.PatternLateNight, 1.0)},
			{pat(domain.PatternLateNight, 1.0), pat(domain.PatternVelocitySpike, 1.0)},
			{pat(domain.PatternVelocitySpike, 0.01)},
		}
		for _, patterns := range cases {
			for _, ext := range []float64{0, 0.5, 10} {
				got := AggregateScore(patterns, ext)
				if got < 0 || got > 100 {
					t.Errorf("score out of range: %.2f (patterns=%d ext=%.1f)", got, len(patterns), ext)
				}
			}
		}
	})
}

func TestScaleRisk(t *testing.T) {
	if got := scaleRisk(0); got != 0 {
		t.Errorf("expected 0, got %.4f", got)
	}
	if got := scaleRisk(1.0); got != 1.0 {
		t.Errorf("expected cap at 1.0, got %.4f", got)
	}

	// Scaling amplifies but stays monotonic below the cap
	low := scaleRisk(0.1)
	high := scaleRisk(0.3)
	if low <= 0.1 {
		t.Errorf("expected amplification above base, got %.4f", low)
	}
	if high <= low {
		t.Errorf("expected monotonic scaling: %.4f <= %.4f", high, low)
	}
}

func TestStatusBoundaries(t *testing.T) {
	tests := []struct {
		score  float64
		status domain.MonitoringStatus
		review bool
	}{
		{0, domain.StatusLow, false},
		{40.0, domain.StatusLow, false},
		{40.01, domain.StatusMedium, false},
		{70.0, domain.StatusMedium, false},
		{70.01, domain.StatusHigh, true},
		{100, domain.StatusHigh, true},
	}

	for _, tt := range tests {
		if got := domain.ClassifyStatus(tt.score); got != tt.status {
			t.Errorf("ClassifyStatus(%.2f) = %s, want %s", tt.score, got, tt.status)
		}
		if got := domain.ReviewRequired(tt.score); got != tt.review {
			t.Errorf("ReviewRequired(%.2f) = %v, want %v", tt.score, got, tt.review)
		}
	}
}
