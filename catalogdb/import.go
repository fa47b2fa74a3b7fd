package catalogdb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jamespfennell/gtfs"

	"makro.app/internal/logging"
	"makro.app/internal/planner"
)

func (c *Client) processAndStoreGTFSData(ctx context.Context, b []byte) error {
	startTime := time.Now()
	defer func() {
		c.importRuntime = time.Since(startTime)
		if c.config.verbose {
			logging.LogOperation(c.logger, "gtfs_import_finished",
				slog.Duration("duration", c.importRuntime))
		}
	}()

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return fmt.Errorf("parse GTFS static data: %w", err)
	}

	if c.config.verbose {
		c.logger.Info("retrieved static data",
			slog.Int("warnings", len(staticData.Warnings)),
			slog.Int("routes", len(staticData.Routes)),
			slog.Int("stops", len(staticData.Stops)),
			slog.Int("trips", len(staticData.Trips)))
	}

	return c.ImportStatic(ctx, staticData)
}

// ImportStatic replaces the catalog with the routes of a parsed GTFS feed.
// Each route takes its stop order from its trip with the most stop times and
// is priced at the configured default fare. Stops without coordinates and
// routes without trips are left out.
func (c *Client) ImportStatic(ctx context.Context, staticData *gtfs.Static) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx.Rollback, c.logger, "gtfs_import")

	for _, table := range []string{"route_stops", "routes", "stops"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	located := make(map[string]bool, len(staticData.Stops))
	for _, s := range staticData.Stops {
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		stop := planner.Stop{
			ID:       s.Id,
			Name:     pickFirstAvailable(s.Name, s.Code, s.Id),
			Location: planner.GeoPoint{Lat: *s.Latitude, Lng: *s.Longitude},
		}
		if err := insertStop(ctx, tx, stop); err != nil {
			return err
		}
		located[s.Id] = true
	}

	longest := longestTrips(staticData.Trips)

	imported := 0
	for _, r := range staticData.Routes {
		trip, ok := longest[r.Id]
		if !ok {
			continue
		}

		route := planner.Route{
			ID:          r.Id,
			Name:        pickFirstAvailable(r.LongName, r.ShortName, r.Id),
			Description: r.Description,
			FlatPrice:   c.config.DefaultFare,
		}
		if err := insertRoute(ctx, tx, route); err != nil {
			return err
		}

		order := 0
		for _, stopID := range orderedStopIDs(trip) {
			if !located[stopID] {
				continue
			}
			order++
			if err := insertRouteStop(ctx, tx, route.ID, stopID, order); err != nil {
				return err
			}
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	logging.LogOperation(c.logger, "gtfs_catalog_imported",
		slog.Int("routes", imported),
		slog.Int("stops", len(located)))
	return nil
}

// longestTrips picks, per route id, the trip with the most stop times. Ties
// go to the lowest trip id so that imports are reproducible.
func longestTrips(trips []gtfs.ScheduledTrip) map[string]*gtfs.ScheduledTrip {
	longest := make(map[string]*gtfs.ScheduledTrip)
	for i := range trips {
		t := &trips[i]
		if t.Route == nil || len(t.StopTimes) == 0 {
			continue
		}
		best, ok := longest[t.Route.Id]
		if !ok || len(t.StopTimes) > len(best.StopTimes) ||
			(len(t.StopTimes) == len(best.StopTimes) && t.ID < best.ID) {
			longest[t.Route.Id] = t
		}
	}
	return longest
}

func orderedStopIDs(trip *gtfs.ScheduledTrip) []string {
	stopTimes := make([]gtfs.ScheduledStopTime, len(trip.StopTimes))
	copy(stopTimes, trip.StopTimes)
	sort.SliceStable(stopTimes, func(i, j int) bool {
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})

	ids := make([]string, 0, len(stopTimes))
	for _, st := range stopTimes {
		if st.Stop != nil {
			ids = append(ids, st.Stop.Id)
		}
	}
	return ids
}

func pickFirstAvailable(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
