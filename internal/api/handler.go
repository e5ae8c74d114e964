package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/risk"
	"github.com/opensource-finance/harrier/internal/screen"
	"github.com/opensource-finance/harrier/internal/timeline"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	alerts    domain.AlertPublisher
	analyzer  *risk.Analyzer
	timeline  *timeline.Generator
	screener  *screen.Screener
	screenCfg domain.ScreenConfig
	riskCfg   domain.RiskConfig
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, alerts domain.AlertPublisher, analyzer *risk.Analyzer, tl *timeline.Generator, screener *screen.Screener, screenCfg domain.ScreenConfig, riskCfg domain.RiskConfig, version string) *Handler {
	return &Handler{
		repo:      repo,
		cache:     cache,
		alerts:    alerts,
		analyzer:  analyzer,
		timeline:  tl,
		screener:  screener,
		screenCfg: screenCfg,
		riskCfg:   riskCfg,
		version:   version,
	}
}

// IngestResponse is the response for POST /merchants/{merchantID}/transactions.
type IngestResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
	Metadata    struct {
		TraceID  string `json:"traceId"`
		IngestMs int64  `json:"ingestMs"`
		Version  string `json:"version"`
	} `json:"metadata"`
}

// IngestTransaction handles POST /merchants/{merchantID}/transactions.
func (h *Handler) IngestTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	merchantID := chi.URLParam(r, "merchantID")

	var req domain.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.CustomerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "customerId is required",
		})
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "amount must be positive",
		})
		return
	}

	tx := req.ToTransaction(merchantID)
	tx.ID = uuid.New().String()

	// Screening flags. A failed velocity lookup screens with count 0 rather
	// than blocking ingestion.
	if h.screener != nil {
		var velocityCount int64
		window := h.screenCfg.VelocityWindow
		if window <= 0 {
			window = time.Hour
		}
		count, err := h.repo.CountTransactionsByMerchant(ctx, merchantID, tx.Timestamp.Add(-window))
		if err != nil {
			slog.Warn("velocity count lookup failed", "merchant_id", merchantID, "error", err)
		} else {
			velocityCount = count
		}

		flags := h.screener.Screen(screen.Input{
			Amount:        tx.Amount,
			Hour:          tx.Timestamp.UTC().Hour(),
			VelocityCount: velocityCount,
		})
		tx.AmountFlag = flags.Amount
		tx.TimeFlag = flags.Time
		tx.VelocityFlag = flags.Velocity
	}

	if err := h.repo.SaveTransaction(ctx, tx); err != nil {
		slog.Error("failed to save transaction", "merchant_id", merchantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save transaction",
		})
		return
	}

	// A new transaction stales the merchant's cached profile and timeline;
	// both are invalidated together so re-analysis sees the full batch.
	if h.cache != nil {
		_ = h.cache.Delete(ctx, merchantID, risk.ProfileCacheKey)
		_ = h.cache.Delete(ctx, merchantID, timeline.EventsCacheKey)
	}

	resp := IngestResponse{Transaction: tx}
	resp.Metadata.TraceID = GetTraceID(ctx)
	resp.Metadata.IngestMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusCreated, resp)
}

// AnalyzeRisk handles GET /merchants/{merchantID}/risk.
func (h *Handler) AnalyzeRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := chi.URLParam(r, "merchantID")

	days, ok := parseDays(w, r)
	if !ok {
		return
	}

	profile, err := h.analyzer.AnalyzeMerchantRisk(ctx, merchantID, days)
	if err != nil {
		var srcErr *risk.SourceError
		if errors.As(err, &srcErr) {
			slog.Error("transaction source unavailable", "merchant_id", merchantID, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "transaction source unavailable",
			})
			return
		}
		slog.Error("risk analysis failed", "merchant_id", merchantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "risk analysis failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// TimelineResponse is the response for GET /merchants/{merchantID}/timeline.
type TimelineResponse struct {
	MerchantID string                  `json:"merchantId"`
	Events     []*domain.TimelineEvent `json:"events"`
	Count      int                     `json:"count"`
}

// Timeline handles GET /merchants/{merchantID}/timeline.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := chi.URLParam(r, "merchantID")

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -h.riskCfg.DefaultWindowDays)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "start must be RFC 3339",
			})
			return
		}
		start = t.UTC()
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "end must be RFC 3339",
			})
			return
		}
		end = t.UTC()
	}
	if end.Before(start) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "end must not precede start",
		})
		return
	}

	events, err := h.timeline.MerchantTimeline(ctx, merchantID, start, end)
	if err != nil {
		slog.Error("timeline query failed", "merchant_id", merchantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "timeline query failed",
		})
		return
	}

	if events == nil {
		events = []*domain.TimelineEvent{}
	}

	writeJSON(w, http.StatusOK, TimelineResponse{
		MerchantID: merchantID,
		Events:     events,
		Count:      len(events),
	})
}

// SummaryResponse is the response for GET /merchants/{merchantID}/summary.
type SummaryResponse struct {
	MerchantID  string                          `json:"merchantId"`
	WindowDays  int                             `json:"windowDays"`
	Transaction int                             `json:"transactionCount"`
	TotalAmount float64                         `json:"totalAmount"`
	Daily       map[string]domain.DailySummary  `json:"daily"`
	Hourly      map[string]domain.HourlySummary `json:"hourly"`
	PeakHour    *int                            `json:"peakHour,omitempty"`
}

// Summary handles GET /merchants/{merchantID}/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	merchantID := chi.URLParam(r, "merchantID")

	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	if days <= 0 {
		days = h.riskCfg.DefaultWindowDays
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	txns, err := h.repo.GetTransactionsByMerchant(ctx, merchantID, start, end)
	if err != nil {
		slog.Error("transaction query failed", "merchant_id", merchantID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "transaction source unavailable",
		})
		return
	}

	daily := timeline.DailySummaries(txns)
	hourly := timeline.HourlySummaries(txns)

	// Hour keys as strings for stable JSON object keys
	hourlyOut := make(map[string]domain.HourlySummary, len(hourly))
	for hour, s := range hourly {
		hourlyOut[strconv.Itoa(hour)] = s
	}

	resp := SummaryResponse{
		MerchantID:  merchantID,
		WindowDays:  days,
		Transaction: len(txns),
		Daily:       daily,
		Hourly:      hourlyOut,
	}
	for _, tx := range txns {
		resp.TotalAmount += tx.Amount
	}
	if peak, ok := timeline.PeakHour(hourly); ok {
		resp.PeakHour = &peak
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready handles GET /ready. Checks all component connections.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := make(map[string]string)
	healthy := true

	if h.repo != nil {
		if err := h.repo.Ping(ctx); err != nil {
			checks["repository"] = err.Error()
			healthy = false
		} else {
			checks["repository"] = "ok"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		} else {
			checks["cache"] = "ok"
		}
	}

	if h.alerts != nil {
		if err := h.alerts.Ping(ctx); err != nil {
			checks["alerts"] = err.Error()
			healthy = false
		} else {
			checks["alerts"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"ready":  healthy,
		"checks": checks,
	})
}

// parseDays reads the optional days query parameter. Reports false after
// writing an error response for a malformed value.
func parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return 0, true
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "days must be a non-negative integer",
		})
		return 0, false
	}
	return days, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
