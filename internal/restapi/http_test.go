package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"makro.app/internal/app"
	"makro.app/internal/appconf"
	"makro.app/internal/cachestore"
	"makro.app/internal/logging"
	"makro.app/internal/planner"
	"makro.app/internal/searchlog"
)

const testAPIKey = "TEST"

var (
	damascusSearchBody = `{"start_lat":33.5138,"start_lng":36.2765,"end_lat":33.5238,"end_lng":36.2865,"filter_type":"fastest"}`
	errCatalogDown     = errors.New("connection refused")
)

// testCatalog serves a fixed set of routes, or fails every call when err is set.
type testCatalog struct {
	routes []planner.Route
	err    error
	calls  atomic.Int32
}

func (c *testCatalog) ListRoutes(ctx context.Context) ([]planner.Route, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]planner.Route, 0, len(c.routes))
	for _, r := range c.routes {
		r.Stops = nil
		out = append(out, r)
	}
	return out, nil
}

func (c *testCatalog) ListStops(ctx context.Context, routeID string) ([]planner.Stop, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, r := range c.routes {
		if r.ID == routeID {
			return r.Stops, nil
		}
	}
	return nil, nil
}

type fixedDelay int

func (d fixedDelay) ExtraDelay(ctx context.Context, origin, destination planner.GeoPoint, departure time.Time) int {
	return int(d)
}

func damascusRoute(id string, price int) planner.Route {
	return planner.Route{
		ID:        id,
		Name:      "Baramkeh - Salihiyeh",
		FlatPrice: price,
		Stops: []planner.Stop{
			{ID: id + "01", Name: "Baramkeh", Location: planner.GeoPoint{Lat: 33.5130, Lng: 36.2760}},
			{ID: id + "02", Name: "Hijaz", Location: planner.GeoPoint{Lat: 33.5185, Lng: 36.2815}},
			{ID: id + "03", Name: "Salihiyeh", Location: planner.GeoPoint{Lat: 33.5245, Lng: 36.2870}},
		},
	}
}

type testOptions struct {
	catalog   *testCatalog
	rateLimit int
	noLog     bool
	logger    *slog.Logger
}

// createTestApi wires a RestAPI over an in-memory catalog, cache and
// search log.
func createTestApi(t *testing.T, opts testOptions) *RestAPI {
	t.Helper()

	if opts.catalog == nil {
		opts.catalog = &testCatalog{routes: []planner.Route{damascusRoute("1", 2000)}}
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache := planner.NewResultCache(cachestore.NewMemoryStore(time.Minute, time.Minute), opts.logger, time.Now)

	application := &app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{testAPIKey},
			RateLimit: opts.rateLimit,
		},
		Logger:          opts.logger,
		Traffic:         fixedDelay(120),
		TrafficProvider: "simulated",
	}

	plannerOpts := []planner.Option{planner.WithLogger(opts.logger)}
	if !opts.noLog {
		application.SearchLog = searchlog.NewRecorder(searchlog.NewMemoryRepository(100), nil, opts.logger)
		plannerOpts = append(plannerOpts, planner.WithRecorder(application.SearchLog))
	}
	application.Planner = planner.New(opts.catalog, application.Traffic, cache, plannerOpts...)

	api := NewRestAPI(application)
	t.Cleanup(api.Close)
	return api
}

// serve sends one request through the full middleware chain.
func serve(t *testing.T, api *RestAPI, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponseBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(dst))
}

// serveOverHTTP starts a real server, for tests that need a client
// connection.
func serveOverHTTP(t *testing.T, api *RestAPI, method, path, body string) *http.Response {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)

	req, err := http.NewRequest(method, server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		logging.SafeCloseWithLogging(resp.Body, slog.Default().With(slog.String("component", "test")), "http_response_body")
	})
	return resp
}
