package telemetry

import (
	"context"
	"log/slog"

	"github.com/grafana/pyroscope-go"

	"makro.app/internal/logging"
)

// InitProfiling starts the Pyroscope agent when
// PYROSCOPE_PROFILING_ENABLED is set.
func InitProfiling(logger *slog.Logger) ShutdownFunc {
	if !ProfilingEnabled() {
		logger.Debug("Pyroscope profiling is disabled")
		return noopShutdown
	}

	cfg := pyroscope.Config{
		ApplicationName: getEnv("PYROSCOPE_APPLICATION_NAME", ServiceName),
		ServerAddress:   getEnv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040"),
		Tags: map[string]string{
			"service": ServiceName,
			"version": Version,
		},
	}
	user, password := getEnv("PYROSCOPE_BASIC_AUTH_USER", ""), getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")
	if user != "" && password != "" {
		cfg.BasicAuthUser = user
		cfg.BasicAuthPassword = password
	}

	profiler, err := pyroscope.Start(cfg)
	if err != nil {
		logging.LogWarn(logger, "failed to start Pyroscope profiler", err)
		return noopShutdown
	}

	logger.Info("Pyroscope profiling started",
		slog.String("server", cfg.ServerAddress),
		slog.String("application", cfg.ApplicationName))

	return func(context.Context) {
		if err := profiler.Stop(); err != nil {
			logging.LogError(logger, "error stopping Pyroscope profiler", err)
		}
	}
}

// Setup starts tracing, metrics and profiling and returns one function
// that stops all of them.
func Setup(ctx context.Context, logger *slog.Logger) ShutdownFunc {
	logger = logger.With(slog.String("component", "telemetry"))
	shutdowns := []ShutdownFunc{
		InitTracing(ctx, logger),
		InitMetrics(ctx, logger),
		InitProfiling(logger),
	}
	return func(ctx context.Context) {
		for i := len(shutdowns) - 1; i >= 0; i-- {
			shutdowns[i](ctx)
		}
	}
}
