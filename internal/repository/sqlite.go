package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
	_ "modernc.org/sqlite"
)

// sqlitePragmas tune the embedded database for concurrent analysis reads
// alongside ingest writes.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
}

// openSQLite opens the pure-Go SQLite driver (no CGO). The caller supplies a
// config already normalized by WithDefaults.
func openSQLite(cfg domain.RepositoryConfig) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + cfg.SQLitePath + "?_pragma=" + strings.Join(sqlitePragmas, "&_pragma=")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return db, nil
}
