// Package alert provides alert publisher implementations for Harrier.
package alert

import (
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
)

// New creates a new alert publisher based on configuration.
// "channel" returns the in-process publisher; "nats" fans out over NATS.
func New(cfg domain.AlertConfig) (domain.AlertPublisher, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelPublisher(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSPublisher(cfg)

	default:
		return nil, fmt.Errorf("unsupported alert publisher type: %s", cfg.Type)
	}
}
