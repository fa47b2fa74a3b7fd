package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"makro.app/catalogdb"
	"makro.app/internal/app"
	"makro.app/internal/appconf"
	"makro.app/internal/cachestore"
	"makro.app/internal/catalog/postgres"
	"makro.app/internal/logging"
	"makro.app/internal/planner"
	"makro.app/internal/searchlog"
	"makro.app/internal/traffic"
)

// closers releases resources in reverse order of acquisition.
type closers struct {
	logger *slog.Logger
	items  []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func (cs *closers) add(name string, c io.Closer) {
	cs.items = append(cs.items, namedCloser{name: name, c: c})
}

func (cs *closers) closeAll() {
	for i := len(cs.items) - 1; i >= 0; i-- {
		logging.SafeCloseWithLogging(cs.items[i].c, cs.logger, cs.items[i].name)
	}
	cs.items = nil
}

// catalogBackend is what the chosen storage provides to the application.
type catalogBackend struct {
	catalog planner.RouteCatalog
	logRepo searchlog.Repository
}

// buildApplication connects every dependency described by cfg. The returned
// cleanup function closes them again.
func buildApplication(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (*app.Application, func(), error) {
	cs := &closers{logger: logger}
	fail := func(err error) (*app.Application, func(), error) {
		cs.closeAll()
		return nil, nil, err
	}

	backend, err := openCatalog(ctx, cfg, logger, cs)
	if err != nil {
		return fail(err)
	}

	store, err := cachestore.New(ctx, cfg.Cache, cfg.Search.CacheTTL, logger)
	if err != nil {
		return fail(fmt.Errorf("cache store: %w", err))
	}
	if c, ok := store.(io.Closer); ok {
		cs.add("result_cache_store", c)
	}
	cache := planner.NewResultCache(store, logger, nil)

	estimator, provider := traffic.New(cfg.Traffic, logger)

	application := &app.Application{
		Config:          cfg,
		Logger:          logger,
		Traffic:         estimator,
		TrafficProvider: provider,
	}

	opts := []planner.Option{
		planner.WithTopK(cfg.Search.TopK),
		planner.WithTTL(cfg.Search.CacheTTL),
		planner.WithConcurrency(cfg.Search.Concurrency),
		planner.WithLogger(logger),
	}

	if cfg.SearchLog.Enabled {
		recorder, err := newRecorder(cfg.SearchLog, backend.logRepo, logger, cs)
		if err != nil {
			return fail(err)
		}
		cs.add("search_log_recorder", closeFunc(func() error { recorder.Wait(); return nil }))
		application.SearchLog = recorder
		opts = append(opts, planner.WithRecorder(recorder))
	}

	application.Planner = planner.New(backend.catalog, estimator, cache, opts...)
	return application, cs.closeAll, nil
}

func openCatalog(ctx context.Context, cfg appconf.Config, logger *slog.Logger, cs *closers) (catalogBackend, error) {
	switch cfg.Catalog.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Catalog.DatabaseURL, logger)
		if err != nil {
			return catalogBackend{}, err
		}
		cs.add("postgres_pool", closeFunc(func() error { pool.Close(); return nil }))

		repo, err := searchlog.NewPostgresRepository(ctx, pool)
		if err != nil {
			return catalogBackend{}, err
		}
		return catalogBackend{catalog: postgres.NewCatalog(pool), logRepo: repo}, nil

	case "sqlite":
		client, err := catalogdb.NewClient(catalogdb.NewConfig(cfg.Catalog.SQLitePath, cfg.Env, cfg.Catalog.DefaultFare, cfg.Env == appconf.Development))
		if err != nil {
			return catalogBackend{}, err
		}
		cs.add("catalog_db", client)

		if err := seedCatalog(ctx, client, cfg.Catalog.GTFSPath, logger); err != nil {
			return catalogBackend{}, err
		}

		repo, err := searchlog.NewSQLiteRepository(ctx, client.DB)
		if err != nil {
			return catalogBackend{}, err
		}
		return catalogBackend{catalog: client, logRepo: repo}, nil

	default:
		return catalogBackend{}, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}
}

// seedCatalog replaces the SQLite catalog with the GTFS feed at source,
// which may be a local path or an http(s) URL.
func seedCatalog(ctx context.Context, client *catalogdb.Client, source string, logger *slog.Logger) error {
	if source == "" {
		return nil
	}

	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		err = client.DownloadAndStore(ctx, source)
	} else {
		err = client.ImportFromFile(ctx, source)
	}
	if err != nil {
		return fmt.Errorf("import GTFS from %s: %w", source, err)
	}

	counts, err := client.TableCounts(ctx)
	if err != nil {
		return err
	}
	logger.Info("route catalog imported",
		slog.String("source", source),
		slog.Int("routes", counts["routes"]),
		slog.Int("stops", counts["stops"]),
		slog.Int64("duration_ms", client.ImportRuntime().Milliseconds()))
	return nil
}

func newRecorder(cfg appconf.SearchLogConfig, repo searchlog.Repository, logger *slog.Logger, cs *closers) (*searchlog.Recorder, error) {
	if repo == nil {
		return nil, errors.New("search log enabled without a repository")
	}

	var publisher searchlog.Publisher
	if cfg.AMQPURL != "" {
		p, err := searchlog.DialPublisher(cfg.AMQPURL, cfg.Exchange, cfg.RoutingKey)
		if err != nil {
			logging.LogWarn(logger, "search events will not be published", err)
		} else {
			cs.add("search_event_publisher", p)
			publisher = p
		}
	}
	return searchlog.NewRecorder(repo, publisher, logger), nil
}
