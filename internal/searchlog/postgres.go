package searchlog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is the subset of pgxpool.Pool used by PostgresRepository.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores entries in the search_logs table shared with
// the analytics dashboard.
type PostgresRepository struct {
	db PgxConn
}

// NewPostgresRepository makes sure search_logs exists and has a route_id column.
func NewPostgresRepository(ctx context.Context, db PgxConn) (*PostgresRepository, error) {
	if _, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS search_logs (
			id SERIAL PRIMARY KEY,
			start_lat DOUBLE PRECISION NOT NULL,
			start_lng DOUBLE PRECISION NOT NULL,
			end_lat DOUBLE PRECISION NOT NULL,
			end_lng DOUBLE PRECISION NOT NULL,
			filter_type TEXT,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return nil, fmt.Errorf("create search_logs table: %w", err)
	}
	if _, err := db.Exec(ctx, `ALTER TABLE search_logs ADD COLUMN IF NOT EXISTS route_id TEXT`); err != nil {
		return nil, fmt.Errorf("add search_logs.route_id: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Append(ctx context.Context, e Entry) (Entry, error) {
	var routeID *string
	if e.RouteID != "" {
		routeID = &e.RouteID
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO search_logs (start_lat, start_lng, end_lat, end_lng, filter_type, route_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		e.StartLat, e.StartLng, e.EndLat, e.EndLng, e.FilterType, routeID, e.Timestamp,
	).Scan(&e.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("insert search log: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, start_lat, start_lng, end_lat, end_lng,
			COALESCE(filter_type, ''), COALESCE(route_id, ''), timestamp
		FROM search_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query search logs: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.StartLat, &e.StartLng, &e.EndLat, &e.EndLng, &e.FilterType, &e.RouteID, &e.Timestamp)
		e.Timestamp = e.Timestamp.UTC()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan search logs: %w", err)
	}
	return entries, nil
}
