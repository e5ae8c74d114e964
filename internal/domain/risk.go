package domain

import (
	"time"
)

// PatternType identifies one of the fixed fraud-behavior categories the
// engine detects. Adding a type means adding a detector; dispatch is an
// exhaustive switch, not a runtime lookup.
type PatternType string

const (
	PatternLateNight             PatternType = "late_night_trading"
	PatternVelocitySpike         PatternType = "sudden_activity_spike"
	PatternSplitTransactions     PatternType = "split_transactions"
	PatternRoundAmount           PatternType = "round_amount_pattern"
	PatternCustomerConcentration PatternType = "customer_concentration"
)

// AllPatternTypes returns the fixed set of pattern types in canonical order.
// Callers iterate this to get deterministic detection and aggregation order.
func AllPatternTypes() []PatternType {
	return []PatternType{
		PatternLateNight,
		PatternVelocitySpike,
		PatternSplitTransactions,
		PatternRoundAmount,
		PatternCustomerConcentration,
	}
}

// DetectedPattern is the output of a single detector for one merchant and
// analysis run. Never mutated after creation.
type DetectedPattern struct {
	Type PatternType `json:"type"`

	// ConfidenceScore is the detector's ratio-based strength of evidence,
	// clamped to [0, 1].
	ConfidenceScore float64 `json:"confidenceScore"`

	// Characteristics holds the detector configuration plus computed metrics.
	Characteristics map[string]any `json:"characteristics"`

	// RedFlags are ordered, human-readable evidence strings.
	RedFlags []string `json:"redFlags"`

	DetectedAt time.Time `json:"detectedAt"`
}

// MonitoringStatus classifies the aggregate score for review workflows.
type MonitoringStatus string

const (
	StatusLow    MonitoringStatus = "low_risk"
	StatusMedium MonitoringStatus = "medium_risk"
	StatusHigh   MonitoringStatus = "high_risk"
)

// Status thresholds over the 0-100 aggregate score. These are the single
// authoritative mapping; callers must not hardcode their own cutoffs.
const (
	HighRiskThreshold   = 70.0
	MediumRiskThreshold = 40.0
)

// ClassifyStatus maps an aggregate score to a monitoring status.
// Boundaries are strict: a score of exactly 70 is MEDIUM, not HIGH.
func ClassifyStatus(score float64) MonitoringStatus {
	switch {
	case score > HighRiskThreshold:
		return StatusHigh
	case score > MediumRiskThreshold:
		return StatusMedium
	default:
		return StatusLow
	}
}

// ReviewRequired reports whether the score demands manual review.
func ReviewRequired(score float64) bool {
	return score > HighRiskThreshold
}

// RiskProfile is the complete risk assessment for a merchant. Each analysis
// run produces a fresh profile that supersedes the previous one; profiles are
// never merged or incrementally updated.
type RiskProfile struct {
	ID               string            `json:"id"`
	MerchantID       string            `json:"merchantId"`
	OverallRiskScore float64           `json:"overallRiskScore"` // [0, 100]
	DetectedPatterns []DetectedPattern `json:"detectedPatterns"`
	RiskFactors      []string          `json:"riskFactors"`
	MonitoringStatus MonitoringStatus  `json:"monitoringStatus"`
	ReviewRequired   bool              `json:"reviewRequired"`
	LastUpdated      time.Time         `json:"lastUpdated"`
}
