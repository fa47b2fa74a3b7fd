package searchlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"makro.app/internal/logging"
)

// SQLiteRepository stores entries in the search_logs table of a SQLite database.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRepository creates the search_logs table when it is missing.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_lat REAL NOT NULL,
			start_lng REAL NOT NULL,
			end_lat REAL NOT NULL,
			end_lng REAL NOT NULL,
			filter_type TEXT,
			route_id TEXT,
			timestamp TEXT NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("create search_logs table: %w", err)
	}
	return &SQLiteRepository{
		db:     db,
		logger: slog.Default().With(slog.String("component", "searchlog_sqlite")),
	}, nil
}

func (r *SQLiteRepository) Append(ctx context.Context, e Entry) (Entry, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO search_logs (start_lat, start_lng, end_lat, end_lng, filter_type, route_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.StartLat, e.StartLng, e.EndLat, e.EndLng, e.FilterType,
		sql.NullString{String: e.RouteID, Valid: e.RouteID != ""},
		e.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("insert search log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("search log id: %w", err)
	}
	e.ID = id
	return e, nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) (entries []Entry, err error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, start_lat, start_lng, end_lat, end_lng,
			COALESCE(filter_type, ''), COALESCE(route_id, ''), timestamp
		FROM search_logs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query search logs: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, r.logger, "close search_logs rows")

	entries = []Entry{}
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.StartLat, &e.StartLng, &e.EndLat, &e.EndLng, &e.FilterType, &e.RouteID, &ts); err != nil {
			return nil, fmt.Errorf("scan search log: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse search log timestamp %q: %w", ts, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search logs: %w", err)
	}
	return entries, nil
}
