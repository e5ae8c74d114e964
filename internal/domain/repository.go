// Package domain defines the core interfaces and types for Harrier.
package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, tx *Transaction) error
	GetTransactionsByMerchant(ctx context.Context, merchantID string, start, end time.Time) ([]*Transaction, error)
	CountTransactionsByMerchant(ctx context.Context, merchantID string, since time.Time) (int64, error)

	// Risk profile operations. SaveRiskProfile stores a fresh profile; the
	// latest profile supersedes any earlier one for the merchant.
	SaveRiskProfile(ctx context.Context, profile *RiskProfile) error
	GetRiskProfile(ctx context.Context, merchantID string) (*RiskProfile, error)

	// Timeline event sink and query (newest first)
	SaveTimelineEvents(ctx context.Context, events []*TimelineEvent) error
	GetTimelineEvents(ctx context.Context, merchantID string, start, end time.Time) ([]*TimelineEvent, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// WithDefaults returns a copy with zero-valued connection settings filled in.
// Driver selection is left to the caller.
func (c RepositoryConfig) WithDefaults() RepositoryConfig {
	if c.SQLitePath == "" {
		c.SQLitePath = "./harrier.db"
	}
	if c.PostgresHost == "" {
		c.PostgresHost = "localhost"
	}
	if c.PostgresPort == 0 {
		c.PostgresPort = 5432
	}
	if c.PostgresDB == "" {
		c.PostgresDB = "harrier"
	}
	if c.PostgresSSLMode == "" {
		c.PostgresSSLMode = "disable"
	}
	return c
}
