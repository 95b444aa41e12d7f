package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite database connection with GTFS-specific operations.
type DB struct {
	*sql.DB
	logger   *slog.Logger
	readOnly bool
}

// Open creates or opens a SQLite database at the given path and applies migrations.
// Used by the GTFS loader, which is the only writer.
func Open(path string, logger *slog.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := open(dsn, logger, false)
	if err != nil {
		return nil, err
	}

	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("database opened", "path", path)
	return db, nil
}

// OpenReadOnly opens an existing schedule database for reads only.
// The returned DB is safe for concurrent use by overlapping pipeline runs.
func OpenReadOnly(path string, logger *slog.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_query_only=true", path)
	db, err := open(dsn, logger, true)
	if err != nil {
		return nil, err
	}
	logger.Info("database opened read-only", "path", path)
	return db, nil
}

func open(dsn string, logger *slog.Logger, readOnly bool) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: sqlDB, logger: logger, readOnly: readOnly}, nil
}

// ReadOnly reports whether the database was opened with OpenReadOnly.
func (db *DB) ReadOnly() bool {
	return db.readOnly
}
