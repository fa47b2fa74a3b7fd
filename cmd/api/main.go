package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"makro.app/internal/appconf"
	"makro.app/internal/logging"
	"makro.app/internal/restapi"
	"makro.app/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

type flags struct {
	configPath string
	port       int
	env        string
	apiKeys    string
	gtfs       string
}

func parseFlags(args []string) (flags, map[string]bool, error) {
	var f flags
	fs := flag.NewFlagSet("makro-api", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fs.IntVar(&f.port, "port", 4000, "API server port")
	fs.StringVar(&f.env, "env", "development", "Environment (development|test|production)")
	fs.StringVar(&f.apiKeys, "api-keys", "", "Comma separated API keys for the admin endpoints")
	fs.StringVar(&f.gtfs, "gtfs", "", "Path or URL of a GTFS static zip used to seed the SQLite catalog")
	if err := fs.Parse(args); err != nil {
		return flags{}, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

// applyFlags lets explicitly set command line flags win over the file and
// the environment.
func applyFlags(cfg *appconf.Config, f flags, set map[string]bool) error {
	if set["port"] {
		cfg.Port = f.port
	}
	if set["env"] {
		cfg.EnvName = f.env
		cfg.Env = appconf.EnvFlagToEnvironment(f.env)
	}
	if set["api-keys"] {
		cfg.ApiKeys = appconf.ParseAPIKeys(f.apiKeys)
	}
	if set["gtfs"] {
		cfg.Catalog.GTFSPath = f.gtfs
	}
	return appconf.Validate(*cfg)
}

func main() {
	f, set, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := appconf.Load(f.configPath)
	if err == nil {
		err = applyFlags(&cfg, f, set)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg appconf.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownTelemetry(shutdownCtx)
	}()

	application, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	api := restapi.NewRestAPI(application)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env.String()),
			slog.String("traffic_provider", application.TrafficProvider))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logging.LogOperation(logger, "server_stopped")
	return nil
}
