package planner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	damascusOrigin      = GeoPoint{Lat: 33.5138, Lng: 36.2765}
	damascusDestination = GeoPoint{Lat: 33.5238, Lng: 36.2865}
)

// fakeCatalog serves routes from memory. Stops are looked up by route id.
type fakeCatalog struct {
	routes    []Route
	stops     map[string][]Stop
	routesErr error
	stopsErr  error

	listRoutesCalls atomic.Int32
	listStopsCalls  atomic.Int32
}

func newFakeCatalog(routes ...Route) *fakeCatalog {
	c := &fakeCatalog{stops: make(map[string][]Stop)}
	for _, r := range routes {
		c.stops[r.ID] = r.Stops
		r.Stops = nil
		c.routes = append(c.routes, r)
	}
	return c
}

func (c *fakeCatalog) ListRoutes(ctx context.Context) ([]Route, error) {
	c.listRoutesCalls.Add(1)
	if c.routesErr != nil {
		return nil, c.routesErr
	}
	out := make([]Route, len(c.routes))
	copy(out, c.routes)
	return out, nil
}

func (c *fakeCatalog) ListStops(ctx context.Context, routeID string) ([]Stop, error) {
	c.listStopsCalls.Add(1)
	if c.stopsErr != nil {
		return nil, c.stopsErr
	}
	return c.stops[routeID], nil
}

// fixedEstimator always reports the same delay and counts calls.
type fixedEstimator struct {
	delay int
	calls atomic.Int32
}

func (e *fixedEstimator) ExtraDelay(ctx context.Context, origin, destination GeoPoint, departure time.Time) int {
	e.calls.Add(1)
	return e.delay
}

// memStore is a map backed Store with optional injected failures.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

// manualClock is a settable time source.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingRecorder struct {
	mu      sync.Mutex
	entries []SearchRequest
	err     error
}

func (r *recordingRecorder) Record(ctx context.Context, req SearchRequest, results []Itinerary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, req)
	return r.err
}

var errBoom = errors.New("boom")

// damascusRoute has stops bracketing the damascus example points.
func damascusRoute(id string, price int) Route {
	return Route{
		ID:        id,
		Name:      "Baramkeh - Mezzeh",
		FlatPrice: price,
		Stops: []Stop{
			{ID: id + "01", Name: "Baramkeh", Location: GeoPoint{Lat: 33.5130, Lng: 36.2760}},
			{ID: id + "02", Name: "Hijaz", Location: GeoPoint{Lat: 33.5185, Lng: 36.2815}},
			{ID: id + "03", Name: "Salihiyeh", Location: GeoPoint{Lat: 33.5245, Lng: 36.2870}},
		},
	}
}

// offsetRoute is a two stop route whose stops sit at the example points
// shifted north by shiftDeg degrees of latitude.
func offsetRoute(id string, price int, shiftDeg float64) Route {
	return Route{
		ID:        id,
		Name:      "Route " + id,
		FlatPrice: price,
		Stops: []Stop{
			{ID: id + "-a", Name: "A", Location: GeoPoint{Lat: damascusOrigin.Lat + shiftDeg, Lng: damascusOrigin.Lng}},
			{ID: id + "-b", Name: "B", Location: GeoPoint{Lat: damascusDestination.Lat + shiftDeg, Lng: damascusDestination.Lng}},
		},
	}
}
