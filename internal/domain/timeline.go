package domain

import "time"

// EventType categorizes timeline events.
type EventType string

const (
	EventDailySummary  EventType = "DAILY_SUMMARY"
	EventHighRiskAlert EventType = "HIGH_RISK_ALERT"
)

// Severity grades a timeline event.
type Severity string

const (
	SeverityInfo Severity = "INFO"
	SeverityHigh Severity = "HIGH"
)

// TimelineEvent is an auditable, timestamped record of a detection or summary
// fact for a merchant. Events are append-only: generated once per analysis run
// and never edited.
type TimelineEvent struct {
	ID          string         `json:"id"`
	MerchantID  string         `json:"merchantId"`
	EventType   EventType      `json:"eventType"`
	Timestamp   time.Time      `json:"timestamp"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DailySummary aggregates one calendar day of merchant activity.
type DailySummary struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// HourlySummary aggregates merchant activity for one hour of day (0-23).
type HourlySummary struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}
