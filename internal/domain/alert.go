package domain

import (
	"context"
)

// AlertPublisher fans out risk alerts to downstream consumers. Publishing is
// fire-and-report: a publish failure is logged by the caller and never alters
// an already-computed analysis result.
type AlertPublisher interface {
	// Publish sends a payload to a topic for a merchant.
	Publish(ctx context.Context, merchantID string, topic string, payload []byte) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// Alert topics.
const (
	TopicProfileUpdated = "harrier.risk.profile"
	TopicHighRiskAlert  = "harrier.risk.alert"
)

// AlertMessage is the payload delivered on alert topics.
type AlertMessage struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchantId"`
	Topic      string `json:"topic"`
	Payload    []byte `json:"payload"`
	Timestamp  int64  `json:"timestamp"`
}

// AlertConfig holds configuration for alert publisher initialization.
type AlertConfig struct {
	// Type is the publisher type: "channel" or "nats"
	Type string

	// Channel settings
	ChannelBufferSize int

	// NATS settings
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}
