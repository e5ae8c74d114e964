package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/domain"
)

// eventSink records persisted timeline events.
type eventSink struct {
	batches [][]*domain.TimelineEvent
	saveErr error
}

func (s *eventSink) SaveTransaction(ctx context.Context, tx *domain.Transaction) error { return nil }

func (s *eventSink) GetTransactionsByMerchant(ctx context.Context, merchantID string, start, end time.Time) ([]*domain.Transaction, error) {
	return nil, nil
}

func (s *eventSink) CountTransactionsByMerchant(ctx context.Context, merchantID string, since time.Time) (int64, error) {
	return 0, nil
}

func (s *eventSink) SaveRiskProfile(ctx context.Context, profile *domain.RiskProfile) error {
	return nil
}

func (s *eventSink) GetRiskProfile(ctx context.Context, merchantID string) (*domain.RiskProfile, error) {
	return nil, errors.New("not found")
}

func (s *eventSink) SaveTimelineEvents(ctx context.Context, events []*domain.TimelineEvent) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.batches = append(s.batches, events)
	return nil
}

func (s *eventSink) GetTimelineEvents(ctx context.Context, merchantID string, start, end time.Time) ([]*domain.TimelineEvent, error) {
	var all []*domain.TimelineEvent
	for _, batch := range s.batches {
		all = append(all, batch...)
	}
	return all, nil
}

func (s *eventSink) Ping(ctx context.Context) error { return nil }
func (s *eventSink) Close() error                   { return nil }

func lowProfile() *domain.RiskProfile {
	return &domain.RiskProfile{
		ID:               "profile-001",
		MerchantID:       "merchant-001",
		OverallRiskScore: 25.0,
		MonitoringStatus: domain.StatusLow,
	}
}

func highProfile() *domain.RiskProfile {
	return &domain.RiskProfile{
		ID:               "profile-002",
		MerchantID:       "merchant-001",
		OverallRiskScore: 85.0,
		MonitoringStatus: domain.StatusHigh,
		ReviewRequired:   true,
		RiskFactors:      []string{"sudden_activity_spike"},
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	summaries := map[string]domain.DailySummary{
		"2025-06-16": {Count: 2, TotalAmount: 300.00},
		"2025-06-14": {Count: 5, TotalAmount: 1250.50},
		"2025-06-15": {Count: 1, TotalAmount: 99.99},
	}

	t.Run("DailyEventsChronological", func(t *testing.T) {
		sink := &eventSink{}
		gen := NewGenerator(nil, sink, time.Minute)

		events, err := gen.Generate(ctx, "merchant-001", lowProfile(), summaries)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}

		for i, want := range []string{"2025-06-14", "2025-06-15", "2025-06-16"} {
			event := events[i]
			if event.EventType != domain.EventDailySummary {
				t.Errorf("event %d: expected %s, got %s", i, domain.EventDailySummary, event.EventType)
			}
			if event.Severity != domain.SeverityInfo {
				t.Errorf("event %d: expected severity %s, got %s", i, domain.SeverityInfo, event.Severity)
			}
			if got := event.Timestamp.Format("2006-01-02"); got != want {
				t.Errorf("event %d: expected date %s, got %s", i, want, got)
			}
			if h, m, s := event.Timestamp.Clock(); h != 0 || m != 0 || s != 0 {
				t.Errorf("event %d: expected midnight timestamp, got %v", i, event.Timestamp)
			}
		}

		if events[0].Description != "Daily Summary: 5 transactions, Total: $1250.50" {
			t.Errorf("unexpected description: %s", events[0].Description)
		}

		if len(sink.batches) != 1 {
			t.Errorf("expected 1 persisted batch, got %d", len(sink.batches))
		}
	})

	t.Run("HighRiskAppendsAlert", func(t *testing.T) {
		sink := &eventSink{}
		gen := NewGenerator(nil, sink, time.Minute)

		events, err := gen.Generate(ctx, "merchant-001", highProfile(), summaries)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if len(events) != 4 {
			t.Fatalf("expected 4 events, got %d", len(events))
		}

		last := events[len(events)-1]
		if last.EventType != domain.EventHighRiskAlert {
			t.Errorf("expected %s last, got %s", domain.EventHighRiskAlert, last.EventType)
		}
		if last.Severity != domain.SeverityHigh {
			t.Errorf("expected severity %s, got %s", domain.SeverityHigh, last.Severity)
		}
		if last.Description != "High risk score detected: 85.00" {
			t.Errorf("unexpected description: %s", last.Description)
		}
		if last.Metadata["risk_factors"] == nil {
			t.Error("expected risk_factors metadata on alert")
		}
	})

	t.Run("ScoreExactlyAtThresholdNoAlert", func(t *testing.T) {
		sink := &eventSink{}
		gen := NewGenerator(nil, sink, time.Minute)

		profile := lowProfile()
		profile.OverallRiskScore = domain.HighRiskThreshold

		events, err := gen.Generate(ctx, "merchant-001", profile, summaries)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		for _, event := range events {
			if event.EventType == domain.EventHighRiskAlert {
				t.Error("score equal to threshold must not raise an alert")
			}
		}
	})

	t.Run("NoSummariesLowRisk", func(t *testing.T) {
		sink := &eventSink{}
		gen := NewGenerator(nil, sink, time.Minute)

		events, err := gen.Generate(ctx, "merchant-001", lowProfile(), nil)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected no events, got %d", len(events))
		}
		if len(sink.batches) != 0 {
			t.Error("expected no persistence for empty event set")
		}
	})

	t.Run("CacheShortCircuitsPersistence", func(t *testing.T) {
		sink := &eventSink{}
		cch := cache.NewLRUCache(100)
		gen := NewGenerator(cch, sink, time.Minute)

		first, err := gen.Generate(ctx, "merchant-001", lowProfile(), summaries)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		second, err := gen.Generate(ctx, "merchant-001", lowProfile(), summaries)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if len(sink.batches) != 1 {
			t.Errorf("expected single persisted batch across repeat runs, got %d", len(sink.batches))
		}
		if len(first) != len(second) {
			t.Errorf("cached events differ in count: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Errorf("event %d: cached ID differs", i)
			}
		}
	})

	t.Run("SinkFailureReturnsEventsAndError", func(t *testing.T) {
		sink := &eventSink{saveErr: errors.New("disk full")}
		cch := cache.NewLRUCache(100)
		gen := NewGenerator(cch, sink, time.Minute)

		events, err := gen.Generate(ctx, "merchant-001", lowProfile(), summaries)
		if err == nil {
			t.Fatal("expected persistence error")
		}
		if len(events) != 3 {
			t.Errorf("expected in-memory events despite sink failure, got %d", len(events))
		}

		// Cache stays cold so the next run retries persistence
		sink.saveErr = nil
		_, err = gen.Generate(ctx, "merchant-001", lowProfile(), summaries)
		if err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if len(sink.batches) != 1 {
			t.Errorf("expected persistence retry to land, got %d batches", len(sink.batches))
		}
	})
}

func TestMerchantTimeline(t *testing.T) {
	ctx := context.Background()
	sink := &eventSink{}
	gen := NewGenerator(nil, sink, time.Minute)

	if _, err := gen.Generate(ctx, "merchant-001", highProfile(), map[string]domain.DailySummary{
		"2025-06-14": {Count: 1, TotalAmount: 10},
	}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	events, err := gen.MerchantTimeline(ctx, "merchant-001", time.Time{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("MerchantTimeline failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}
