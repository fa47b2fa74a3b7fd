package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"makro.app/internal/logging"
)

// ShutdownFunc flushes and stops a telemetry pipeline.
type ShutdownFunc func(ctx context.Context)

func noopShutdown(context.Context) {}

// InitTracing installs a batching tracer provider as the global provider
// when OTEL_TRACING_ENABLED is set. Exporter or resource failures leave
// the no-op provider in place.
func InitTracing(ctx context.Context, logger *slog.Logger) ShutdownFunc {
	if !TracingEnabled() {
		logger.Debug("OpenTelemetry tracing is disabled")
		return noopShutdown
	}

	cfg := GetExporterConfig(SignalTraces)
	exporter, err := NewTraceExporter(ctx, cfg)
	if err != nil {
		logging.LogWarn(logger, "failed to create OTLP trace exporter, tracing disabled", err)
		return noopShutdown
	}

	res, err := NewResource(ctx)
	if err != nil {
		logging.LogWarn(logger, "failed to create telemetry resource, tracing disabled", err)
		return noopShutdown
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("OpenTelemetry tracing enabled",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("protocol", string(cfg.Protocol)))

	return func(ctx context.Context) {
		if err := tp.Shutdown(ctx); err != nil {
			logging.LogError(logger, "error shutting down tracer provider", err)
		}
	}
}
