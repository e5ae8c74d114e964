package repository

import (
	"database/sql"
	"fmt"

	"github.com/opensource-finance/harrier/internal/domain"
	_ "github.com/lib/pq"
)

// openPostgres opens a PostgreSQL connection. The caller supplies a config
// already normalized by WithDefaults.
func openPostgres(cfg domain.RepositoryConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresUser,
		cfg.PostgresPassword,
		cfg.PostgresDB,
		cfg.PostgresSSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	return db, nil
}
