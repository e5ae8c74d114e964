package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/harrier/internal/domain"
)

// ChannelPublisher implements AlertPublisher using Go channels.
// Used as the default in-process publisher.
type ChannelPublisher struct {
	mu          sync.RWMutex
	bufferSize  int
	subscribers map[string][]chan *domain.AlertMessage
	closed      bool
}

// NewChannelPublisher creates a new channel-based alert publisher.
func NewChannelPublisher(bufferSize int) *ChannelPublisher {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &ChannelPublisher{
		bufferSize:  bufferSize,
		subscribers: make(map[string][]chan *domain.AlertMessage),
	}
}

// Publish sends an alert to a topic. Delivery is non-blocking; a subscriber
// with a full channel misses the message.
func (p *ChannelPublisher) Publish(ctx context.Context, merchantID string, topic string, payload []byte) error {
	if merchantID == "" {
		return fmt.Errorf("merchantID is required")
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}

	msg := &domain.AlertMessage{
		ID:         uuid.New().String(),
		MerchantID: merchantID,
		Topic:      topic,
		Payload:    payload,
		Timestamp:  time.Now().UnixNano(),
	}

	subs := p.subscribers[topic]
	p.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
			// Channel full, skip this message for this subscriber
		}
	}

	return nil
}

// Subscribe returns a channel receiving all alerts published to the topic.
func (p *ChannelPublisher) Subscribe(topic string) (<-chan *domain.AlertMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("publisher is closed")
	}

	ch := make(chan *domain.AlertMessage, p.bufferSize)
	p.subscribers[topic] = append(p.subscribers[topic], ch)
	return ch, nil
}

// Ping checks publisher health.
func (p *ChannelPublisher) Ping(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}
	return nil
}

// Close closes the publisher and all subscriber channels.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	for _, subs := range p.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}

	p.subscribers = make(map[string][]chan *domain.AlertMessage)
	return nil
}
