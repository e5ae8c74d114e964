package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/pattern"
	"github.com/opensource-finance/harrier/internal/timeline"
)

var tracer = otel.Tracer("harrier-risk")

// Cache keys per value class. Pattern keys carry the pattern type so a hit
// can be checked against the tag before use.
const (
	// ProfileCacheKey is the merchant-namespaced cache key for the full
	// profile. Exported so ingestion can invalidate it.
	ProfileCacheKey = "risk:profile"

	patternCachePrefix = "risk:pattern:"
)

// SourceError is the typed failure surfaced when the transaction source
// cannot be read. It is the only fatal fault class of an analysis run.
type SourceError struct {
	MerchantID string
	Err        error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("transaction fetch failed for merchant %s: %v", e.MerchantID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Analyzer runs the merchant risk analysis pipeline: fetch transactions, run
// the detectors through the cache, aggregate, classify, emit timeline events,
// persist and return the profile.
type Analyzer struct {
	repo     domain.Repository
	cache    domain.Cache
	alerts   domain.AlertPublisher
	timeline *timeline.Generator
	patterns pattern.Config
	cfg      domain.RiskConfig
}

// NewAnalyzer creates an analyzer with injected collaborators. The cache and
// alert publisher may be nil; both are optimizations, not correctness inputs.
func NewAnalyzer(repo domain.Repository, cache domain.Cache, alerts domain.AlertPublisher, tl *timeline.Generator, patterns pattern.Config, cfg domain.RiskConfig) *Analyzer {
	if cfg.DefaultWindowDays <= 0 {
		cfg.DefaultWindowDays = 30
	}
	if cfg.MaxConcurrentDetectors <= 0 {
		cfg.MaxConcurrentDetectors = 5
	}
	if cfg.ProfileTTL <= 0 {
		cfg.ProfileTTL = time.Hour
	}
	if cfg.PatternTTL <= 0 {
		cfg.PatternTTL = 15 * time.Minute
	}
	return &Analyzer{
		repo:     repo,
		cache:    cache,
		alerts:   alerts,
		timeline: tl,
		patterns: patterns,
		cfg:      cfg,
	}
}

// AnalyzeMerchantRisk produces a fresh risk profile for the merchant over the
// trailing window of `days` days. A merchant with no transactions in the
// window yields the canonical empty profile, never an error. Only a source
// fault is fatal; detector, cache and persistence faults degrade gracefully.
func (a *Analyzer) AnalyzeMerchantRisk(ctx context.Context, merchantID string, days int) (*domain.RiskProfile, error) {
	ctx, span := tracer.Start(ctx, "risk.AnalyzeMerchantRisk",
		trace.WithAttributes(attribute.String("merchant.id", merchantID)),
	)
	defer span.End()

	if days <= 0 {
		days = a.cfg.DefaultWindowDays
	}

	if cached := a.cachedProfile(ctx, merchantID); cached != nil {
		slog.Debug("risk profile served from cache", "merchant_id", merchantID)
		return cached, nil
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	txns, err := a.repo.GetTransactionsByMerchant(ctx, merchantID, start, end)
	if err != nil {
		return nil, &SourceError{MerchantID: merchantID, Err: err}
	}

	if len(txns) == 0 {
		slog.Info("no transactions in window", "merchant_id", merchantID, "days", days)
		return emptyProfile(merchantID), nil
	}

	detected := a.detectPatterns(ctx, merchantID, txns)

	riskFactors := make([]string, 0, len(detected))
	for _, p := range detected {
		riskFactors = append(riskFactors, string(p.Type))
	}

	score := AggregateScore(detected, a.cfg.ExternalRiskFactor)

	profile := &domain.RiskProfile{
		ID:               uuid.New().String(),
		MerchantID:       merchantID,
		OverallRiskScore: score,
		DetectedPatterns: detected,
		RiskFactors:      riskFactors,
		MonitoringStatus: domain.ClassifyStatus(score),
		ReviewRequired:   domain.ReviewRequired(score),
		LastUpdated:      time.Now().UTC(),
	}

	span.SetAttributes(
		attribute.Float64("risk.score", score),
		attribute.Int("risk.patterns", len(detected)),
	)

	if a.timeline != nil {
		summaries := timeline.DailySummaries(txns)
		if _, err := a.timeline.Generate(ctx, merchantID, profile, summaries); err != nil {
			slog.Warn("timeline emission degraded", "merchant_id", merchantID, "error", err)
		}
	}

	if err := a.repo.SaveRiskProfile(ctx, profile); err != nil {
		slog.Warn("risk profile persistence failed", "merchant_id", merchantID, "error", err)
	}

	a.publish(ctx, profile)
	a.cacheProfile(ctx, profile)

	slog.Info("merchant risk analyzed",
		"merchant_id", merchantID,
		"score", score,
		"status", profile.MonitoringStatus,
		"patterns", len(detected),
		"transactions", len(txns),
	)

	return profile, nil
}

// detectPatterns fans the five detectors out over the shared immutable batch
// and joins on all results. Each detector is cache-checked first, and a
// single detector's fault is isolated: it is logged and excluded from
// aggregation instead of aborting the run.
func (a *Analyzer) detectPatterns(ctx context.Context, merchantID string, txns []*domain.Transaction) []domain.DetectedPattern {
	types := domain.AllPatternTypes()
	results := make([]*domain.DetectedPattern, len(types))

	sem := make(chan struct{}, a.cfg.MaxConcurrentDetectors)
	var wg sync.WaitGroup

	for i, pt := range types {
		wg.Add(1)
		go func(idx int, pt domain.PatternType) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = a.detectOne(ctx, merchantID, pt, txns)
		}(i, pt)
	}

	wg.Wait()

	detected := make([]domain.DetectedPattern, 0, len(types))
	for _, p := range results {
		if p != nil {
			detected = append(detected, *p)
		}
	}
	return detected
}

func (a *Analyzer) detectOne(ctx context.Context, merchantID string, pt domain.PatternType, txns []*domain.Transaction) (p *domain.DetectedPattern) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("detector fault isolated",
				"merchant_id", merchantID,
				"pattern", pt,
				"panic", r,
			)
			p = nil
		}
	}()

	key := patternCachePrefix + string(pt)

	if a.cache != nil {
		data, err := a.cache.Get(ctx, merchantID, key)
		if err != nil {
			// Cache fault is a miss, never fatal.
			slog.Debug("pattern cache read failed", "merchant_id", merchantID, "pattern", pt, "error", err)
		} else if data != nil {
			var cached domain.DetectedPattern
			if err := json.Unmarshal(data, &cached); err == nil && cached.Type == pt {
				return &cached
			}
			// Corrupt or mistagged entry: fall through to recomputation.
		}
	}

	p = pattern.Detect(pt, txns, a.patterns)

	if p != nil && a.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := a.cache.Set(ctx, merchantID, key, data, a.cfg.PatternTTL); err != nil {
				slog.Debug("pattern cache write failed", "merchant_id", merchantID, "pattern", pt, "error", err)
			}
		}
	}

	return p
}

func (a *Analyzer) publish(ctx context.Context, profile *domain.RiskProfile) {
	if a.alerts == nil {
		return
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return
	}

	if err := a.alerts.Publish(ctx, profile.MerchantID, domain.TopicProfileUpdated, payload); err != nil {
		slog.Warn("profile publish failed", "merchant_id", profile.MerchantID, "error", err)
	}

	if profile.MonitoringStatus == domain.StatusHigh {
		if err := a.alerts.Publish(ctx, profile.MerchantID, domain.TopicHighRiskAlert, payload); err != nil {
			slog.Warn("alert publish failed", "merchant_id", profile.MerchantID, "error", err)
		}
	}
}

func (a *Analyzer) cachedProfile(ctx context.Context, merchantID string) *domain.RiskProfile {
	if a.cache == nil {
		return nil
	}
	data, err := a.cache.Get(ctx, merchantID, ProfileCacheKey)
	if err != nil || data == nil {
		return nil
	}
	var cached domain.RiskProfile
	if err := json.Unmarshal(data, &cached); err != nil || cached.MerchantID != merchantID {
		return nil
	}
	return &cached
}

func (a *Analyzer) cacheProfile(ctx context.Context, profile *domain.RiskProfile) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, profile.MerchantID, ProfileCacheKey, data, a.cfg.ProfileTTL); err != nil {
		slog.Debug("profile cache write failed", "merchant_id", profile.MerchantID, "error", err)
	}
}

func emptyProfile(merchantID string) *domain.RiskProfile {
	return &domain.RiskProfile{
		ID:               uuid.New().String(),
		MerchantID:       merchantID,
		OverallRiskScore: 0,
		DetectedPatterns: []domain.DetectedPattern{},
		RiskFactors:      []string{},
		MonitoringStatus: domain.StatusLow,
		ReviewRequired:   false,
		LastUpdated:      time.Now().UTC(),
	}
}
