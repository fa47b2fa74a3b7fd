package traffic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makro.app/internal/appconf"
	"makro.app/internal/planner"
	"makro.app/internal/telemetry"
)

var (
	origin      = planner.GeoPoint{Lat: 33.513, Lng: 36.276}
	destination = planner.GeoPoint{Lat: 33.5245, Lng: 36.287}
)

func directionsBody(duration, inTraffic int) string {
	return fmt.Sprintf(`{"status":"OK","routes":[{"legs":[{"duration":{"value":%d,"text":"x"},"duration_in_traffic":{"value":%d,"text":"y"}}]}]}`,
		duration, inTraffic)
}

func newDirectionsServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newTestEstimator(baseURL string, memo bool) (*DirectionsEstimator, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cfg := DirectionsConfig{APIKey: "test-key", BaseURL: baseURL, Timeout: 200 * time.Millisecond}
	if memo {
		cfg.MemoSize = 100
		cfg.MemoTTL = time.Minute
	}
	return NewDirectionsEstimator(cfg, logger), &buf
}

func TestDirectionsEstimatorExtraDelay(t *testing.T) {
	server, _ := newDirectionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "33.513,36.276", q.Get("origin"))
		assert.Equal(t, "33.5245,36.287", q.Get("destination"))
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "now", q.Get("departure_time"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, directionsBody(600, 845))
	})

	e, _ := newTestEstimator(server.URL, false)

	assert.Equal(t, 245, e.ExtraDelay(context.Background(), origin, destination, time.Now().Add(-time.Second)))
}

func TestDirectionsEstimatorDegradesToZero(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantLog string
	}{
		{
			name: "faster than usual",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, directionsBody(600, 500))
			},
		},
		{
			name: "no traffic data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"status":"OK","routes":[{"legs":[{"duration":{"value":600}}]}]}`)
			},
		},
		{
			name: "api status not ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"bad key","routes":[]}`)
			},
			wantLog: "REQUEST_DENIED",
		},
		{
			name: "no routes",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"status":"OK","routes":[]}`)
			},
			wantLog: "no route legs",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream exploded", http.StatusBadGateway)
			},
			wantLog: "status 502",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"status":`)
			},
			wantLog: "decode",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			wantLog: "traffic lookup failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newDirectionsServer(t, tt.handler)
			e, logs := newTestEstimator(server.URL, false)

			start := time.Now()
			delay := e.ExtraDelay(context.Background(), origin, destination, time.Time{})

			assert.Equal(t, 0, delay)
			assert.Less(t, time.Since(start), 2*time.Second)
			if tt.wantLog != "" {
				assert.Contains(t, logs.String(), tt.wantLog)
			}
		})
	}
}

func TestDirectionsEstimatorUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	e, logs := newTestEstimator(url, true)

	assert.Equal(t, 0, e.ExtraDelay(context.Background(), origin, destination, time.Time{}))
	assert.Contains(t, logs.String(), "traffic lookup failed")
}

func TestDirectionsEstimatorMemoizes(t *testing.T) {
	server, hits := newDirectionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, directionsBody(300, 420))
	})
	e, _ := newTestEstimator(server.URL, true)
	ctx := context.Background()

	assert.Equal(t, 120, e.ExtraDelay(ctx, origin, destination, time.Time{}))
	assert.Equal(t, 120, e.ExtraDelay(ctx, origin, destination, time.Time{}))

	nearby := planner.GeoPoint{Lat: origin.Lat + 0.00001, Lng: origin.Lng}
	assert.Equal(t, 120, e.ExtraDelay(ctx, nearby, destination, time.Time{}))
	assert.Equal(t, int32(1), hits.Load(), "points within the quantization share an entry")

	elsewhere := planner.GeoPoint{Lat: origin.Lat + 0.01, Lng: origin.Lng}
	e.ExtraDelay(ctx, elsewhere, destination, time.Time{})
	assert.Equal(t, int32(2), hits.Load())
}

func TestDirectionsEstimatorDoesNotMemoizeFailures(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server, hits := newDirectionsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = fmt.Fprint(w, directionsBody(300, 360))
	})
	e, _ := newTestEstimator(server.URL, true)
	ctx := context.Background()

	assert.Equal(t, 0, e.ExtraDelay(ctx, origin, destination, time.Time{}))
	fail.Store(false)
	assert.Equal(t, 60, e.ExtraDelay(ctx, origin, destination, time.Time{}))
	assert.Equal(t, int32(2), hits.Load())
}

func TestDepartureParam(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, "now", departureParam(time.Time{}, now))
	assert.Equal(t, "now", departureParam(now, now))
	assert.Equal(t, "now", departureParam(now.Add(-time.Minute), now))
	assert.Equal(t, fmt.Sprint(now.Add(time.Hour).Unix()), departureParam(now.Add(time.Hour), now))
}

func TestSimulatedEstimator(t *testing.T) {
	e := NewSimulatedEstimator(rand.NewSource(1), 600)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		d := e.ExtraDelay(ctx, origin, destination, time.Time{})
		assert.GreaterOrEqual(t, d, 0)
		assert.LessOrEqual(t, d, 600)
	}
}

func TestSimulatedEstimatorIsReproducible(t *testing.T) {
	a := NewSimulatedEstimator(rand.NewSource(42), 600)
	b := NewSimulatedEstimator(rand.NewSource(42), 600)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.ExtraDelay(ctx, origin, destination, time.Time{}), b.ExtraDelay(ctx, origin, destination, time.Time{}))
	}
}

func TestSimulatedEstimatorZeroMax(t *testing.T) {
	e := NewSimulatedEstimator(rand.NewSource(1), -5)
	assert.Equal(t, 0, e.ExtraDelay(context.Background(), origin, destination, time.Time{}))
}

func TestSimulatedEstimatorConcurrentUse(t *testing.T) {
	e := NewSimulatedEstimator(nil, 600)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.ExtraDelay(context.Background(), origin, destination, time.Time{})
			}
		}()
	}
	wg.Wait()
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      appconf.TrafficConfig
		wantName string
	}{
		{"google with key", appconf.TrafficConfig{Provider: "google", GoogleAPIKey: "k"}, ProviderGoogle},
		{"google without key", appconf.TrafficConfig{Provider: "google"}, ProviderSimulated},
		{"empty provider with key", appconf.TrafficConfig{GoogleAPIKey: "k"}, ProviderGoogle},
		{"mock", appconf.TrafficConfig{Provider: "mock", GoogleAPIKey: "k"}, ProviderSimulated},
		{"simulated", appconf.TrafficConfig{Provider: "simulated"}, ProviderSimulated},
		{"unknown", appconf.TrafficConfig{Provider: "waze"}, ProviderSimulated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimator, name := New(tt.cfg, nil)
			require.NotNil(t, estimator)
			assert.Equal(t, tt.wantName, name)

			switch name {
			case ProviderGoogle:
				assert.IsType(t, &DirectionsEstimator{}, estimator)
			default:
				assert.IsType(t, &SimulatedEstimator{}, estimator)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	kind, transient := classify(&fetchError{telemetry.ErrorTypeHTTP, true, errors.New("status 503")})
	assert.Equal(t, telemetry.ErrorTypeHTTP, kind)
	assert.True(t, transient)

	kind, transient = classify(fmt.Errorf("wrapped: %w", &fetchError{telemetry.ErrorTypeParse, false, errNoLegs}))
	assert.Equal(t, telemetry.ErrorTypeParse, kind)
	assert.False(t, transient)

	kind, transient = classify(context.DeadlineExceeded)
	assert.Equal(t, telemetry.ErrorTypeNetwork, kind)
	assert.True(t, transient)
}
