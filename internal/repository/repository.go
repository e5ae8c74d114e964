// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	cfg = cfg.WithDefaults()

	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransaction stores a transaction.
func (r *SQLRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.MerchantID == "" {
		return fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO transactions (
			id, merchant_id, customer_id, amount, payment_method,
			status, platform, timestamp, created_at,
			amount_flag, time_flag, velocity_flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tx.ID, tx.MerchantID, tx.CustomerID,
		tx.Amount, tx.PaymentMethod,
		tx.Status, tx.Platform,
		tx.Timestamp, tx.CreatedAt,
		boolToInt(tx.AmountFlag), boolToInt(tx.TimeFlag), boolToInt(tx.VelocityFlag),
	)
	return err
}

// GetTransactionsByMerchant retrieves transactions for a merchant within
// [start, end], oldest first.
func (r *SQLRepository) GetTransactionsByMerchant(ctx context.Context, merchantID string, start, end time.Time) ([]*domain.Transaction, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, merchant_id, customer_id, amount, payment_method,
			   status, platform, timestamp, created_at,
			   amount_flag, time_flag, velocity_flag
		FROM transactions
		WHERE merchant_id = ?
		  AND timestamp >= ?
		  AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), merchantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amountFlag, timeFlag, velocityFlag int

		if err := rows.Scan(
			&tx.ID, &tx.MerchantID, &tx.CustomerID,
			&tx.Amount, &tx.PaymentMethod,
			&tx.Status, &tx.Platform,
			&tx.Timestamp, &tx.CreatedAt,
			&amountFlag, &timeFlag, &velocityFlag,
		); err != nil {
			return nil, err
		}

		tx.AmountFlag = amountFlag == 1
		tx.TimeFlag = timeFlag == 1
		tx.VelocityFlag = velocityFlag == 1

		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}

// CountTransactionsByMerchant counts a merchant's transactions since the
// given time. Used for velocity screening at ingest.
func (r *SQLRepository) CountTransactionsByMerchant(ctx context.Context, merchantID string, since time.Time) (int64, error) {
	if merchantID == "" {
		return 0, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE merchant_id = ? AND timestamp >= ?
	`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), merchantID, since).Scan(&count)
	return count, err
}

// SaveRiskProfile stores a risk profile. Each analysis run inserts a fresh
// row; GetRiskProfile returns the latest.
func (r *SQLRepository) SaveRiskProfile(ctx context.Context, profile *domain.RiskProfile) error {
	if profile.MerchantID == "" {
		return fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	patterns, _ := json.Marshal(profile.DetectedPatterns)
	factors, _ := json.Marshal(profile.RiskFactors)

	query := `
		INSERT INTO risk_profiles (
			id, merchant_id, overall_risk_score, detected_patterns,
			risk_factors, monitoring_status, review_required, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		profile.ID, profile.MerchantID, profile.OverallRiskScore,
		string(patterns), string(factors),
		string(profile.MonitoringStatus), boolToInt(profile.ReviewRequired),
		profile.LastUpdated,
	)
	return err
}

// GetRiskProfile retrieves the most recent risk profile for a merchant.
func (r *SQLRepository) GetRiskProfile(ctx context.Context, merchantID string) (*domain.RiskProfile, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, merchant_id, overall_risk_score, detected_patterns,
			   risk_factors, monitoring_status, review_required, last_updated
		FROM risk_profiles
		WHERE merchant_id = ?
		ORDER BY last_updated DESC
		LIMIT 1
	`

	var profile domain.RiskProfile
	var patterns, factors, status string
	var reviewRequired int

	err := r.db.QueryRowContext(ctx, r.rebind(query), merchantID).Scan(
		&profile.ID, &profile.MerchantID, &profile.OverallRiskScore,
		&patterns, &factors, &status, &reviewRequired,
		&profile.LastUpdated,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	profile.MonitoringStatus = domain.MonitoringStatus(status)
	profile.ReviewRequired = reviewRequired == 1
	json.Unmarshal([]byte(patterns), &profile.DetectedPatterns)
	json.Unmarshal([]byte(factors), &profile.RiskFactors)

	return &profile, nil
}

// SaveTimelineEvents stores a batch of timeline events.
func (r *SQLRepository) SaveTimelineEvents(ctx context.Context, events []*domain.TimelineEvent) error {
	if len(events) == 0 {
		return nil
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer dbtx.Rollback()

	query := `
		INSERT INTO timeline_events (
			id, merchant_id, event_type, timestamp, severity, description, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := dbtx.PrepareContext(ctx, r.rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, event := range events {
		if event.MerchantID == "" {
			return fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
		}

		metadata, _ := json.Marshal(event.Metadata)

		if _, err := stmt.ExecContext(ctx,
			event.ID, event.MerchantID, string(event.EventType),
			event.Timestamp, string(event.Severity),
			event.Description, string(metadata),
		); err != nil {
			return err
		}
	}

	return dbtx.Commit()
}

// GetTimelineEvents retrieves timeline events for a merchant within
// [start, end], newest first.
func (r *SQLRepository) GetTimelineEvents(ctx context.Context, merchantID string, start, end time.Time) ([]*domain.TimelineEvent, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, merchant_id, event_type, timestamp, severity, description, metadata
		FROM timeline_events
		WHERE merchant_id = ?
		  AND timestamp >= ?
		  AND timestamp <= ?
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), merchantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.TimelineEvent
	for rows.Next() {
		var event domain.TimelineEvent
		var eventType, severity, metadata string

		if err := rows.Scan(
			&event.ID, &event.MerchantID, &eventType,
			&event.Timestamp, &severity,
			&event.Description, &metadata,
		); err != nil {
			return nil, err
		}

		event.EventType = domain.EventType(eventType)
		event.Severity = domain.Severity(severity)
		if metadata != "" && metadata != "null" {
			json.Unmarshal([]byte(metadata), &event.Metadata)
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
