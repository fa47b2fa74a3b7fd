package catalogdb

import (
	"context"
	"database/sql"
	"fmt"

	"makro.app/internal/logging"
	"makro.app/internal/planner"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListRoutes returns every route without its stops.
func (c *Client) ListRoutes(ctx context.Context) (routes []planner.Route, err error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), price, COALESCE(operating_hours, '')
		FROM routes
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close routes rows")

	routes = []planner.Route{}
	for rows.Next() {
		var r planner.Route
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.FlatPrice, &r.OperatingHours); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return routes, nil
}

// ListStops returns the stops of routeID in stop order.
func (c *Client) ListStops(ctx context.Context, routeID string) (stops []planner.Stop, err error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT s.id, s.name, s.lat, s.lng
		FROM stops s
		JOIN route_stops rs ON rs.stop_id = s.id
		WHERE rs.route_id = ?
		ORDER BY rs.stop_order`, routeID)
	if err != nil {
		return nil, fmt.Errorf("query stops for route %s: %w", routeID, err)
	}
	defer logging.HandleDeferredError(&err, rows.Close, c.logger, "close stops rows")

	stops = []planner.Stop{}
	for rows.Next() {
		var s planner.Stop
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lng); err != nil {
			return nil, fmt.Errorf("scan stop: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stops for route %s: %w", routeID, err)
	}
	return stops, nil
}

// InsertRoute adds or replaces a route. Its stops are not touched.
func (c *Client) InsertRoute(ctx context.Context, route planner.Route) error {
	return insertRoute(ctx, c.DB, route)
}

// InsertStop adds or replaces a stop.
func (c *Client) InsertStop(ctx context.Context, stop planner.Stop) error {
	return insertStop(ctx, c.DB, stop)
}

// InsertRouteStop places stopID at position order on routeID. Both must exist.
func (c *Client) InsertRouteStop(ctx context.Context, routeID, stopID string, order int) error {
	return insertRouteStop(ctx, c.DB, routeID, stopID, order)
}

func insertRoute(ctx context.Context, db execer, route planner.Route) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO routes (id, name, description, price, operating_hours)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			operating_hours = excluded.operating_hours`,
		route.ID, route.Name, toNullString(route.Description), route.FlatPrice, toNullString(route.OperatingHours))
	if err != nil {
		return fmt.Errorf("error inserting route %s: %w", route.ID, err)
	}
	return nil
}

func insertStop(ctx context.Context, db execer, stop planner.Stop) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO stops (id, name, lat, lng)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			lat = excluded.lat,
			lng = excluded.lng`,
		stop.ID, stop.Name, stop.Location.Lat, stop.Location.Lng)
	if err != nil {
		return fmt.Errorf("error inserting stop %s: %w", stop.ID, err)
	}
	return nil
}

func insertRouteStop(ctx context.Context, db execer, routeID, stopID string, order int) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO route_stops (route_id, stop_id, stop_order)
		VALUES (?, ?, ?)`,
		routeID, stopID, order)
	if err != nil {
		return fmt.Errorf("error inserting stop %s on route %s: %w", stopID, routeID, err)
	}
	return nil
}

// TableCounts returns the number of rows in each catalog table.
func (c *Client) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 3)
	for _, table := range []string{"routes", "stops", "route_stops"} {
		var n int
		if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// toNullString converts a string to sql.NullString
func toNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}
