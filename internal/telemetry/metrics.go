package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"makro.app/internal/logging"
)

const metricsExportInterval = 60 * time.Second

// InitMetrics installs a periodic-export meter provider as the global
// provider when OTEL_METRICS_ENABLED is set, and registers Go runtime
// gauges on it.
func InitMetrics(ctx context.Context, logger *slog.Logger) ShutdownFunc {
	if !MetricsEnabled() {
		logger.Debug("OpenTelemetry metrics is disabled")
		return noopShutdown
	}

	cfg := GetExporterConfig(SignalMetrics)
	exporter, err := NewMetricExporter(ctx, cfg)
	if err != nil {
		logging.LogWarn(logger, "failed to create OTLP metric exporter, metrics disabled", err)
		return noopShutdown
	}

	res, err := NewResource(ctx)
	if err != nil {
		logging.LogWarn(logger, "failed to create telemetry resource, metrics disabled", err)
		return noopShutdown
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(metricsExportInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := registerRuntimeMetrics(mp.Meter(ServiceName)); err != nil {
		logging.LogWarn(logger, "failed to register runtime metrics", err)
	}

	logger.Info("OpenTelemetry metrics enabled",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("protocol", string(cfg.Protocol)))

	return func(ctx context.Context) {
		if err := mp.Shutdown(ctx); err != nil {
			logging.LogError(logger, "error shutting down meter provider", err)
		}
	}
}

func registerRuntimeMetrics(meter metric.Meter) error {
	if _, err := meter.Int64ObservableGauge("runtime.go.goroutines",
		metric.WithDescription("Number of goroutines"),
		metric.WithUnit("{goroutine}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(runtime.NumGoroutine()))
			return nil
		}),
	); err != nil {
		return err
	}

	_, err := meter.Int64ObservableGauge("runtime.go.mem.heap_alloc",
		metric.WithDescription("Heap memory allocated"),
		metric.WithUnit("By"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			o.Observe(int64(m.HeapAlloc))
			return nil
		}),
	)
	return err
}
