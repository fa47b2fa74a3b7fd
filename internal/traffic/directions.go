package traffic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bluele/gcache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"makro.app/internal/logging"
	"makro.app/internal/planner"
	"makro.app/internal/telemetry"
)

const (
	DefaultDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"
	DefaultTimeout       = 5 * time.Second
)

// DirectionsConfig configures a DirectionsEstimator. A zero MemoSize or
// MemoTTL disables memoization.
type DirectionsConfig struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	MemoTTL  time.Duration
	MemoSize int
}

// DirectionsEstimator asks the Google Directions API for the difference
// between the typical and the in-traffic driving time.
type DirectionsEstimator struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	timeout    time.Duration
	memo       gcache.Cache
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewDirectionsEstimator(cfg DirectionsConfig, logger *slog.Logger) *DirectionsEstimator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDirectionsURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &DirectionsEstimator{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout + time.Second,
		},
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		logger:  logger.With(slog.String("component", "traffic_directions")),
		tracer:  otel.Tracer("makro.app/internal/traffic"),
	}

	if cfg.MemoSize > 0 && cfg.MemoTTL > 0 {
		e.memo = gcache.New(cfg.MemoSize).
			LRU().
			Expiration(cfg.MemoTTL).
			Build()
	}

	return e
}

// ExtraDelay returns the traffic delay in seconds, or 0 when the provider
// cannot be reached or returns an unusable answer.
func (e *DirectionsEstimator) ExtraDelay(ctx context.Context, origin, destination planner.GeoPoint, departure time.Time) int {
	key := memoKey(origin, destination)
	if e.memo != nil {
		if cached, err := e.memo.Get(key); err == nil {
			if delay, ok := cached.(int); ok {
				return delay
			}
		}
	}

	ctx, span := e.tracer.Start(ctx, "traffic.directions", trace.WithAttributes(
		attribute.String("traffic.origin", formatPoint(origin)),
		attribute.String("traffic.destination", formatPoint(destination)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	delay, err := e.fetch(ctx, origin, destination, departure)
	if err != nil {
		kind, transient := classify(err)
		telemetry.RecordError(span, err, kind, transient)
		logging.LogWarn(e.logger, "traffic lookup failed, assuming no delay", err,
			slog.String("origin", formatPoint(origin)),
			slog.String("destination", formatPoint(destination)))
		return 0
	}

	span.SetAttributes(attribute.Int("traffic.extra_delay_seconds", delay))
	if e.memo != nil {
		_ = e.memo.Set(key, delay)
	}
	return delay
}

type durationValue struct {
	Value int `json:"value"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Routes       []struct {
		Legs []struct {
			Duration          durationValue  `json:"duration"`
			DurationInTraffic *durationValue `json:"duration_in_traffic,omitempty"`
		} `json:"legs"`
	} `json:"routes"`
}

var errNoLegs = errors.New("directions response has no route legs")

// fetchError tags a lookup failure with the telemetry error type.
type fetchError struct {
	kind      string
	transient bool
	err       error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

func classify(err error) (kind string, transient bool) {
	var fe *fetchError
	if errors.As(err, &fe) {
		return fe.kind, fe.transient
	}
	return telemetry.ErrorTypeNetwork, true
}

func (e *DirectionsEstimator) fetch(ctx context.Context, origin, destination planner.GeoPoint, departure time.Time) (int, error) {
	params := url.Values{}
	params.Set("origin", formatPoint(origin))
	params.Set("destination", formatPoint(destination))
	params.Set("departure_time", departureParam(departure, time.Now()))
	params.Set("key", e.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return 0, &fetchError{telemetry.ErrorTypeNetwork, true, fmt.Errorf("failed to make request: %w", err)}
	}
	defer logging.SafeCloseWithLogging(resp.Body, e.logger, "directions_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, &fetchError{telemetry.ErrorTypeHTTP, resp.StatusCode >= 500,
			fmt.Errorf("directions API returned status %d: %s", resp.StatusCode, string(body))}
	}

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, &fetchError{telemetry.ErrorTypeParse, false, fmt.Errorf("failed to decode directions response: %w", err)}
	}

	if payload.Status != "OK" {
		return 0, &fetchError{telemetry.ErrorTypeHTTP, payload.Status == "OVER_QUERY_LIMIT" || payload.Status == "UNKNOWN_ERROR",
			fmt.Errorf("directions API status %s: %s", payload.Status, payload.ErrorMessage)}
	}
	if len(payload.Routes) == 0 || len(payload.Routes[0].Legs) == 0 {
		return 0, &fetchError{telemetry.ErrorTypeParse, false, errNoLegs}
	}

	leg := payload.Routes[0].Legs[0]
	inTraffic := leg.Duration.Value
	if leg.DurationInTraffic != nil {
		inTraffic = leg.DurationInTraffic.Value
	}

	return max(inTraffic-leg.Duration.Value, 0), nil
}

// departureParam renders departure for the API, which rejects times in the past.
func departureParam(departure, now time.Time) string {
	if departure.IsZero() || !departure.After(now) {
		return "now"
	}
	return strconv.FormatInt(departure.Unix(), 10)
}

func formatPoint(p planner.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// memoKey quantizes coordinates to about 11 meters.
func memoKey(origin, destination planner.GeoPoint) string {
	return fmt.Sprintf("%.4f,%.4f|%.4f,%.4f", origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}
