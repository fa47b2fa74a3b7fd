package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"makro.app/internal/appconf"
	"makro.app/internal/logging"
)

const memoryDB = ":memory:"

var errFileDBInTest = errors.New("test environment requires an in-memory database")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		price INTEGER NOT NULL DEFAULT 0,
		operating_hours TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS stops (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS route_stops (
		route_id TEXT NOT NULL,
		stop_id TEXT NOT NULL,
		stop_order INTEGER NOT NULL,
		PRIMARY KEY (route_id, stop_order),
		FOREIGN KEY (route_id) REFERENCES routes(id) ON DELETE CASCADE,
		FOREIGN KEY (stop_id) REFERENCES stops(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_route_stops_stop_id ON route_stops(stop_id)`,
}

// createDB opens the database and creates the catalog tables in one transaction.
func createDB(ctx context.Context, config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != memoryDB {
		return nil, fmt.Errorf("%w: %s", errFileDBInTest, config.DBPath)
	}

	db, err := sql.Open("sqlite", dataSourceName(config.DBPath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	configureConnectionPool(db, config.DBPath)

	if err := createTables(ctx, db); err != nil {
		logging.SafeCloseWithLogging(db, slog.Default(), "catalog_database")
		return nil, err
	}

	return db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return fmt.Errorf("error enabling foreign keys: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx.Rollback, slog.Default(), "create_catalog_tables")

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error creating catalog tables: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// dataSourceName turns foreign keys on for every pooled connection to a file
// database. The single in-memory connection gets the pragma in createDB.
func dataSourceName(path string) string {
	if path == memoryDB {
		return path
	}
	return "file:" + path + "?_pragma=foreign_keys(1)"
}

// configureConnectionPool sizes the pool. Every connection to ":memory:"
// opens a separate database, so in-memory catalogs use a single connection.
func configureConnectionPool(db *sql.DB, path string) {
	if path == memoryDB {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}
