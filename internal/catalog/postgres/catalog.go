// Package postgres reads the route catalog from the PostgreSQL schema
// shared with the route administration tools.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"makro.app/internal/planner"
)

// Querier is the subset of pgxpool.Pool used by the catalog.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Catalog struct {
	db Querier
}

func NewCatalog(db Querier) *Catalog {
	return &Catalog{db: db}
}

const listRoutesSQL = `
	SELECT id::text, name, COALESCE(description, ''), COALESCE(price, 0), COALESCE(operating_hours, '')
	FROM routes
	ORDER BY id`

const listStopsSQL = `
	SELECT s.id::text, s.name, s.lat, s.lng
	FROM stops s
	JOIN route_stops rs ON rs.stop_id = s.id
	WHERE rs.route_id = $1::integer
	ORDER BY rs.stop_order, rs.id`

func (c *Catalog) ListRoutes(ctx context.Context) ([]planner.Route, error) {
	rows, err := c.db.Query(ctx, listRoutesSQL)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}

	routes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (planner.Route, error) {
		var r planner.Route
		err := row.Scan(&r.ID, &r.Name, &r.Description, &r.FlatPrice, &r.OperatingHours)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan routes: %w", err)
	}
	return routes, nil
}

func (c *Catalog) ListStops(ctx context.Context, routeID string) ([]planner.Stop, error) {
	rows, err := c.db.Query(ctx, listStopsSQL, routeID)
	if err != nil {
		return nil, fmt.Errorf("query stops for route %s: %w", routeID, err)
	}

	stops, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (planner.Stop, error) {
		var s planner.Stop
		err := row.Scan(&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lng)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan stops for route %s: %w", routeID, err)
	}
	return stops, nil
}
