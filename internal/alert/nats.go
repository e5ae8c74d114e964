package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/opensource-finance/harrier/internal/domain"
)

// NATSPublisher implements AlertPublisher using NATS.
// Used for distributed deployments with resilience.
type NATSPublisher struct {
	conn   *nats.Conn
	config domain.AlertConfig
}

// NewNATSPublisher creates a new NATS-based alert publisher with resilience.
func NewNATSPublisher(cfg domain.AlertConfig) (*NATSPublisher, error) {
	if cfg.NATSUrl == "" {
		cfg.NATSUrl = nats.DefaultURL
	}
	if cfg.NATSMaxReconnects == 0 {
		cfg.NATSMaxReconnects = 10
	}
	if cfg.NATSReconnectWait == 0 {
		cfg.NATSReconnectWait = 5
	}

	// Configure NATS connection with resilience
	opts := []nats.Option{
		nats.MaxReconnects(cfg.NATSMaxReconnects),
		nats.ReconnectWait(time.Duration(cfg.NATSReconnectWait) * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024), // 8MB buffer during reconnect
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.Warn("NATS disconnected",
				"error", err,
				"will_reconnect", !nc.IsClosed(),
			)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected",
				"url", nc.ConnectedUrl(),
			)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Info("NATS connection closed")
		}),
	}

	if cfg.NATSToken != "" {
		opts = append(opts, nats.Token(cfg.NATSToken))
	}

	// Connect with retry
	var conn *nats.Conn
	var err error
	for i := 0; i < cfg.NATSMaxReconnects; i++ {
		conn, err = nats.Connect(cfg.NATSUrl, opts...)
		if err == nil {
			break
		}
		slog.Warn("NATS connection attempt failed",
			"attempt", i+1,
			"max_attempts", cfg.NATSMaxReconnects,
			"error", err,
		)
		time.Sleep(time.Duration(cfg.NATSReconnectWait) * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after %d attempts: %w", cfg.NATSMaxReconnects, err)
	}

	slog.Info("NATS connected",
		"url", conn.ConnectedUrl(),
		"server_id", conn.ConnectedServerId(),
	)

	return &NATSPublisher{
		conn:   conn,
		config: cfg,
	}, nil
}

// Publish sends an alert to a NATS subject.
func (p *NATSPublisher) Publish(ctx context.Context, merchantID string, topic string, payload []byte) error {
	if merchantID == "" {
		return fmt.Errorf("merchantID is required")
	}

	msg := &domain.AlertMessage{
		ID:         uuid.New().String(),
		MerchantID: merchantID,
		Topic:      topic,
		Payload:    payload,
		Timestamp:  time.Now().UnixNano(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	return p.conn.Publish(p.makeSubject(merchantID, topic), data)
}

// Ping checks NATS connectivity.
func (p *NATSPublisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}
	return p.conn.FlushWithContext(ctx)
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// makeSubject creates a NATS subject with merchant suffix.
func (p *NATSPublisher) makeSubject(merchantID, topic string) string {
	return fmt.Sprintf("%s.%s", topic, merchantID)
}

// Stats returns NATS connection statistics.
func (p *NATSPublisher) Stats() nats.Statistics {
	return p.conn.Stats()
}
