package app

import (
	"context"
	"log/slog"

	"makro.app/internal/appconf"
	"makro.app/internal/planner"
	"makro.app/internal/searchlog"
)

// Application holds the dependencies shared by the HTTP handlers and
// middleware.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Planner *planner.Planner

	// Traffic is the estimator the planner uses; TrafficProvider names it.
	Traffic         planner.TrafficEstimator
	TrafficProvider string

	// SearchLog is nil when search logging is disabled.
	SearchLog *searchlog.Recorder
}

// RecentSearches returns up to limit logged searches, newest first. It
// returns an empty list when search logging is disabled.
func (app *Application) RecentSearches(ctx context.Context, limit int) ([]searchlog.Entry, error) {
	if app.SearchLog == nil {
		return []searchlog.Entry{}, nil
	}
	return app.SearchLog.Recent(ctx, limit)
}
