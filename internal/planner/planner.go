package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"makro.app/internal/logging"
)

const (
	DefaultTopK        = 3
	DefaultTTL         = 120 * time.Second
	DefaultConcurrency = 8
)

// RouteCatalog is the read-only source of routes and their ordered stops.
type RouteCatalog interface {
	ListRoutes(ctx context.Context) ([]Route, error)
	ListStops(ctx context.Context, routeID string) ([]Stop, error)
}

// SearchRecorder receives every completed search. Recording is best effort
// and must not block the caller for long.
type SearchRecorder interface {
	Record(ctx context.Context, req SearchRequest, results []Itinerary) error
}

// Planner answers trip searches over the route catalog.
type Planner struct {
	catalog     RouteCatalog
	builder     Builder
	cache       *ResultCache
	recorder    SearchRecorder
	topK        int
	ttl         time.Duration
	concurrency int
	logger      *slog.Logger
	ins         instruments
}

type Option func(*Planner)

func WithTopK(k int) Option {
	return func(p *Planner) {
		if k > 0 {
			p.topK = k
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(p *Planner) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithClock sets the departure time source passed to the traffic estimator.
func WithClock(clock func() time.Time) Option {
	return func(p *Planner) {
		if clock != nil {
			p.builder.Clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency bounds how many routes are fetched and built at once.
func WithConcurrency(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithRecorder(r SearchRecorder) Option {
	return func(p *Planner) {
		p.recorder = r
	}
}

// New creates a Planner. estimator and cache may be nil, which disables
// traffic adjustment and result caching respectively.
func New(catalog RouteCatalog, estimator TrafficEstimator, cache *ResultCache, opts ...Option) *Planner {
	p := &Planner{
		catalog:     catalog,
		builder:     Builder{Estimator: estimator, Clock: time.Now},
		cache:       cache,
		topK:        DefaultTopK,
		ttl:         DefaultTTL,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
		ins:         newInstruments(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("component", "planner"))
	return p
}

// Search returns at most topK itineraries ranked by the request criterion.
// An empty catalog yields an empty, non-nil slice. Invalid requests fail
// with *ValidationError and catalog failures wrap ErrCatalogUnavailable.
func (p *Planner) Search(ctx context.Context, req SearchRequest) ([]Itinerary, error) {
	start := time.Now()
	req = req.Normalize()

	ctx, span := tracer.Start(ctx, "planner.search", trace.WithAttributes(
		attribute.String("search.criterion", string(req.Criterion)),
	))
	defer span.End()

	results, cached, err := p.search(ctx, req)

	outcome := "ok"
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		outcome = "invalid"
		span.SetStatus(codes.Error, err.Error())
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		span.SetAttributes(
			attribute.Bool("search.cache_hit", cached),
			attribute.Int("search.results", len(results)),
		)
	}

	attrs := metric.WithAttributes(
		attribute.String("criterion", string(req.Criterion)),
		attribute.String("outcome", outcome),
	)
	p.ins.searches.Add(ctx, 1, attrs)
	p.ins.searchDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)

	if err != nil {
		return nil, err
	}

	p.record(ctx, req, results)
	return results, nil
}

func (p *Planner) search(ctx context.Context, req SearchRequest) ([]Itinerary, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	fingerprint := Fingerprint(req)
	if cached, ok := p.cache.Get(ctx, fingerprint); ok {
		return cached, true, nil
	}

	itineraries, err := p.buildAll(ctx, req)
	if err != nil {
		return nil, false, err
	}

	ranked := Rank(itineraries, req.Criterion)
	if len(ranked) > p.topK {
		ranked = ranked[:p.topK]
	}

	p.cache.Set(ctx, fingerprint, ranked, p.ttl)
	return ranked, false, nil
}

// buildAll fetches every route's stops and builds one itinerary per route
// that has stops. Order of the result is unspecified.
func (p *Planner) buildAll(ctx context.Context, req SearchRequest) ([]Itinerary, error) {
	routes, err := p.catalog.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list routes: %w", ErrCatalogUnavailable, err)
	}

	built := make([]*Itinerary, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, route := range routes {
		g.Go(func() error {
			stops, err := p.catalog.ListStops(gctx, route.ID)
			if err != nil {
				return fmt.Errorf("%w: list stops for route %s: %w", ErrCatalogUnavailable, route.ID, err)
			}
			if len(stops) == 0 {
				return nil
			}
			route.Stops = stops
			it := p.builder.Build(gctx, route, req)
			built[i] = &it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	itineraries := make([]Itinerary, 0, len(routes))
	for _, it := range built {
		if it != nil {
			itineraries = append(itineraries, *it)
		}
	}
	p.ins.routesBuilt.Add(ctx, int64(len(itineraries)))

	return itineraries, nil
}

func (p *Planner) record(ctx context.Context, req SearchRequest, results []Itinerary) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, req, results); err != nil {
		logging.LogWarn(p.logger, "failed to record search", err,
			slog.String("request_id", logging.RequestIDFromContext(ctx)))
	}
}
