package planner

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "makro.app/internal/planner"

var tracer = otel.Tracer(instrumentationName)

type instruments struct {
	searches       metric.Int64Counter
	searchDuration metric.Float64Histogram
	routesBuilt    metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
}

// newInstruments binds to the global meter provider. Instruments fall back to
// no-ops if registration fails.
func newInstruments() instruments {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	duration, err := meter.Float64Histogram("planner.search.duration",
		metric.WithDescription("Duration of route searches"),
		metric.WithUnit("ms"))
	if err != nil {
		duration, _ = fallback.Float64Histogram("planner.search.duration")
	}

	return instruments{
		searches:       counter("planner.searches", "Route searches by criterion and outcome"),
		searchDuration: duration,
		routesBuilt:    counter("planner.itineraries.built", "Itineraries built on cache misses"),
		cacheHits:      counter("planner.cache.hits", "Result cache hits"),
		cacheMisses:    counter("planner.cache.misses", "Result cache misses"),
	}
}
