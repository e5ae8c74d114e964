package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/harrier/internal/domain"
)

// EventsCacheKey is the merchant-namespaced cache key for generated timeline
// events. Exported so ingestion can invalidate it alongside the profile.
const EventsCacheKey = "timeline:events"

// Generator converts risk profiles and daily summaries into persisted
// timeline events. Generated events are cached; a cache hit short-circuits
// both recomputation and re-persistence.
type Generator struct {
	cache domain.Cache
	repo  domain.Repository
	ttl   time.Duration
}

// NewGenerator creates a timeline generator. The cache and repository are
// injected; their lifecycle belongs to the process entry point.
func NewGenerator(cache domain.Cache, repo domain.Repository, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Generator{
		cache: cache,
		repo:  repo,
		ttl:   ttl,
	}
}

// Generate emits one DAILY_SUMMARY event per summarized day in chronological
// order, then one HIGH_RISK_ALERT when the profile's score exceeds the high
// threshold. Events are persisted through the repository sink; a sink failure
// is returned as a warning alongside the in-memory events, never as a loss of
// the response.
func (g *Generator) Generate(ctx context.Context, merchantID string, profile *domain.RiskProfile, summaries map[string]domain.DailySummary) ([]*domain.TimelineEvent, error) {
	if cached := g.cachedEvents(ctx, merchantID); cached != nil {
		return cached, nil
	}

	dates := make([]string, 0, len(summaries))
	for date := range summaries {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	events := make([]*domain.TimelineEvent, 0, len(dates)+1)
	for _, date := range dates {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			slog.Warn("skipping malformed summary date", "merchant_id", merchantID, "date", date)
			continue
		}
		summary := summaries[date]
		events = append(events, &domain.TimelineEvent{
			ID:         uuid.New().String(),
			MerchantID: merchantID,
			EventType:  domain.EventDailySummary,
			Timestamp:  day.UTC(),
			Severity:   domain.SeverityInfo,
			Description: fmt.Sprintf("Daily Summary: %d transactions, Total: $%.2f",
				summary.Count, summary.TotalAmount),
		})
	}

	if profile != nil && profile.OverallRiskScore > domain.HighRiskThreshold {
		events = append(events, &domain.TimelineEvent{
			ID:          uuid.New().String(),
			MerchantID:  merchantID,
			EventType:   domain.EventHighRiskAlert,
			Timestamp:   time.Now().UTC(),
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("High risk score detected: %.2f", profile.OverallRiskScore),
			Metadata:    map[string]any{"risk_factors": profile.RiskFactors},
		})
	}

	if len(events) == 0 {
		return events, nil
	}

	if err := g.repo.SaveTimelineEvents(ctx, events); err != nil {
		// Degrade gracefully: the caller still gets the in-memory events.
		// The cache stays cold so the next run retries persistence.
		return events, fmt.Errorf("timeline persistence failed: %w", err)
	}

	g.cacheEvents(ctx, merchantID, events)
	return events, nil
}

// MerchantTimeline returns persisted events inside the window, newest first.
func (g *Generator) MerchantTimeline(ctx context.Context, merchantID string, start, end time.Time) ([]*domain.TimelineEvent, error) {
	return g.repo.GetTimelineEvents(ctx, merchantID, start, end)
}

func (g *Generator) cachedEvents(ctx context.Context, merchantID string) []*domain.TimelineEvent {
	if g.cache == nil {
		return nil
	}
	data, err := g.cache.Get(ctx, merchantID, EventsCacheKey)
	if err != nil || data == nil {
		return nil
	}
	var events []*domain.TimelineEvent
	if err := json.Unmarshal(data, &events); err != nil {
		// Corrupt entry: treat as a miss.
		return nil
	}
	return events
}

func (g *Generator) cacheEvents(ctx context.Context, merchantID string, events []*domain.TimelineEvent) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(events)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, merchantID, EventsCacheKey, data, g.ttl); err != nil {
		slog.Debug("timeline cache write failed", "merchant_id", merchantID, "error", err)
	}
}
