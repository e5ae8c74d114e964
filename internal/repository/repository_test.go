package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

func TestSQLiteRepository(t *testing.T) {
	// Create temp database file
	tmpFile, err := os.CreateTemp("", "harrier-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	merchantID := "merchant-001"
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetTransactions", func(t *testing.T) {
		tx := &domain.Transaction{
			ID:            "tx-001",
			MerchantID:    merchantID,
			CustomerID:    "cust-001",
			Amount:        1500.00,
			PaymentMethod: "card",
			Status:        "completed",
			Platform:      "web",
			Timestamp:     base,
			CreatedAt:     base,
			TimeFlag:      true,
		}

		if err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("SaveTransaction failed: %v", err)
		}

		transactions, err := repo.GetTransactionsByMerchant(ctx, merchantID, base.Add(-time.Hour), base.Add(time.Hour))
		if err != nil {
			t.Fatalf("GetTransactionsByMerchant failed: %v", err)
		}

		if len(transactions) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(transactions))
		}
		got := transactions[0]
		if got.ID != tx.ID {
			t.Errorf("expected ID %s, got %s", tx.ID, got.ID)
		}
		if got.Amount != tx.Amount {
			t.Errorf("expected Amount %.2f, got %.2f", tx.Amount, got.Amount)
		}
		if !got.TimeFlag {
			t.Error("expected TimeFlag to round-trip as true")
		}
		if got.AmountFlag {
			t.Error("expected AmountFlag to round-trip as false")
		}
	})

	t.Run("TransactionsOrderedOldestFirst", func(t *testing.T) {
		for i, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
			tx := &domain.Transaction{
				ID:         "tx-order-" + string(rune('a'+i)),
				MerchantID: "merchant-order",
				CustomerID: "cust-001",
				Amount:     100,
				Timestamp:  base.Add(offset),
				CreatedAt:  base,
			}
			if err := repo.SaveTransaction(ctx, tx); err != nil {
				t.Fatalf("SaveTransaction failed: %v", err)
			}
		}

		transactions, err := repo.GetTransactionsByMerchant(ctx, "merchant-order", base, base.Add(4*time.Hour))
		if err != nil {
			t.Fatalf("GetTransactionsByMerchant failed: %v", err)
		}

		if len(transactions) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(transactions))
		}
		for i := 1; i < len(transactions); i++ {
			if transactions[i].Timestamp.Before(transactions[i-1].Timestamp) {
				t.Error("expected transactions ordered oldest first")
			}
		}
	})

	t.Run("MerchantIsolation", func(t *testing.T) {
		transactions, err := repo.GetTransactionsByMerchant(ctx, "merchant-other", base.Add(-time.Hour), base.Add(time.Hour))
		if err != nil {
			t.Fatalf("GetTransactionsByMerchant failed: %v", err)
		}
		if len(transactions) != 0 {
			t.Errorf("expected no transactions for different merchant, got %d", len(transactions))
		}
	})

	t.Run("CountTransactionsByMerchant", func(t *testing.T) {
		count, err := repo.CountTransactionsByMerchant(ctx, merchantID, base.Add(-time.Hour))
		if err != nil {
			t.Fatalf("CountTransactionsByMerchant failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected count 1, got %d", count)
		}

		count, err = repo.CountTransactionsByMerchant(ctx, merchantID, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("CountTransactionsByMerchant failed: %v", err)
		}
		if count != 0 {
			t.Errorf("expected count 0 for future window, got %d", count)
		}
	})

	t.Run("RequiresMerchantID", func(t *testing.T) {
		tx := &domain.Transaction{ID: "tx-test"}

		if err := repo.SaveTransaction(ctx, tx); err == nil {
			t.Error("expected error for empty merchantID")
		}
		if _, err := repo.GetTransactionsByMerchant(ctx, "", base, base); err == nil {
			t.Error("expected error for empty merchantID")
		}
		if _, err := repo.GetRiskProfile(ctx, ""); err == nil {
			t.Error("expected error for empty merchantID")
		}
	})

	t.Run("SaveAndGetRiskProfile", func(t *testing.T) {
		profile := &domain.RiskProfile{
			ID:               "profile-001",
			MerchantID:       merchantID,
			OverallRiskScore: 65.5,
			DetectedPatterns: []domain.DetectedPattern{
				{
					Type:            domain.PatternVelocitySpike,
					ConfidenceScore: 0.8,
					Characteristics: map[string]any{"spike_count": float64(6)},
					RedFlags:        []string{"6 velocity spikes detected"},
					DetectedAt:      base,
				},
			},
			RiskFactors:      []string{"sudden_activity_spike: 6 velocity spikes detected"},
			MonitoringStatus: domain.StatusMedium,
			ReviewRequired:   false,
			LastUpdated:      base,
		}

		if err := repo.SaveRiskProfile(ctx, profile); err != nil {
			t.Fatalf("SaveRiskProfile failed: %v", err)
		}

		retrieved, err := repo.GetRiskProfile(ctx, merchantID)
		if err != nil {
			t.Fatalf("GetRiskProfile failed: %v", err)
		}

		if retrieved.ID != profile.ID {
			t.Errorf("expected ID %s, got %s", profile.ID, retrieved.ID)
		}
		if retrieved.OverallRiskScore != profile.OverallRiskScore {
			t.Errorf("expected score %.2f, got %.2f", profile.OverallRiskScore, retrieved.OverallRiskScore)
		}
		if retrieved.MonitoringStatus != domain.StatusMedium {
			t.Errorf("expected status %s, got %s", domain.StatusMedium, retrieved.MonitoringStatus)
		}
		if len(retrieved.DetectedPatterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(retrieved.DetectedPatterns))
		}
		if retrieved.DetectedPatterns[0].Type != domain.PatternVelocitySpike {
			t.Errorf("expected pattern type %s, got %s", domain.PatternVelocitySpike, retrieved.DetectedPatterns[0].Type)
		}
	})

	t.Run("LatestProfileWins", func(t *testing.T) {
		newer := &domain.RiskProfile{
			ID:               "profile-002",
			MerchantID:       merchantID,
			OverallRiskScore: 80.0,
			DetectedPatterns: []domain.DetectedPattern{},
			RiskFactors:      []string{},
			MonitoringStatus: domain.StatusHigh,
			ReviewRequired:   true,
			LastUpdated:      base.Add(time.Hour),
		}

		if err := repo.SaveRiskProfile(ctx, newer); err != nil {
			t.Fatalf("SaveRiskProfile failed: %v", err)
		}

		retrieved, err := repo.GetRiskProfile(ctx, merchantID)
		if err != nil {
			t.Fatalf("GetRiskProfile failed: %v", err)
		}

		if retrieved.ID != "profile-002" {
			t.Errorf("expected latest profile profile-002, got %s", retrieved.ID)
		}
		if !retrieved.ReviewRequired {
			t.Error("expected ReviewRequired to round-trip as true")
		}
	})

	t.Run("ProfileNotFound", func(t *testing.T) {
		_, err := repo.GetRiskProfile(ctx, "merchant-unknown")
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("SaveAndGetTimelineEvents", func(t *testing.T) {
		events := []*domain.TimelineEvent{
			{
				ID:          "event-001",
				MerchantID:  merchantID,
				EventType:   domain.EventDailySummary,
				Timestamp:   base,
				Severity:    domain.SeverityInfo,
				Description: "Daily Summary: 3 transactions, Total: $450.00",
			},
			{
				ID:          "event-002",
				MerchantID:  merchantID,
				EventType:   domain.EventHighRiskAlert,
				Timestamp:   base.Add(time.Hour),
				Severity:    domain.SeverityHigh,
				Description: "High risk score detected: 80.0",
				Metadata:    map[string]any{"risk_factors": []any{"velocity"}},
			},
		}

		if err := repo.SaveTimelineEvents(ctx, events); err != nil {
			t.Fatalf("SaveTimelineEvents failed: %v", err)
		}

		retrieved, err := repo.GetTimelineEvents(ctx, merchantID, base.Add(-time.Hour), base.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("GetTimelineEvents failed: %v", err)
		}

		if len(retrieved) != 2 {
			t.Fatalf("expected 2 events, got %d", len(retrieved))
		}

		// Newest first
		if retrieved[0].ID != "event-002" {
			t.Errorf("expected newest event first, got %s", retrieved[0].ID)
		}
		if retrieved[0].Metadata == nil {
			t.Error("expected metadata to round-trip")
		}
		if retrieved[1].EventType != domain.EventDailySummary {
			t.Errorf("expected %s, got %s", domain.EventDailySummary, retrieved[1].EventType)
		}
	})

	t.Run("SaveTimelineEventsEmptyBatch", func(t *testing.T) {
		if err := repo.SaveTimelineEvents(ctx, nil); err != nil {
			t.Errorf("expected nil error for empty batch, got: %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := domain.RepositoryConfig{Driver: "postgres"}.WithDefaults()

	if cfg.SQLitePath != "./harrier.db" {
		t.Errorf("expected default sqlite path, got %q", cfg.SQLitePath)
	}
	if cfg.PostgresHost != "localhost" || cfg.PostgresPort != 5432 {
		t.Errorf("expected localhost:5432, got %s:%d", cfg.PostgresHost, cfg.PostgresPort)
	}
	if cfg.PostgresDB != "harrier" {
		t.Errorf("expected database harrier, got %q", cfg.PostgresDB)
	}
	if cfg.PostgresSSLMode != "disable" {
		t.Errorf("expected sslmode disable, got %q", cfg.PostgresSSLMode)
	}

	explicit := domain.RepositoryConfig{
		Driver:          "postgres",
		PostgresHost:    "db.internal",
		PostgresPort:    5433,
		PostgresDB:      "risk",
		PostgresSSLMode: "require",
	}.WithDefaults()

	if explicit.PostgresHost != "db.internal" || explicit.PostgresPort != 5433 {
		t.Errorf("explicit host/port overridden: %s:%d", explicit.PostgresHost, explicit.PostgresPort)
	}
	if explicit.PostgresDB != "risk" || explicit.PostgresSSLMode != "require" {
		t.Errorf("explicit db/sslmode overridden: %s/%s", explicit.PostgresDB, explicit.PostgresSSLMode)
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
