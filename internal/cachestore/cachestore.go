// Package cachestore provides the key/value stores behind the search result cache.
package cachestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"makro.app/internal/appconf"
	"makro.app/internal/logging"
	"makro.app/internal/planner"
)

const pingTimeout = 2 * time.Second

// New returns the store selected by cfg.Backend. An unreachable Redis falls
// back to the memory store. The "none" backend returns a nil store, which
// turns result caching off.
func New(ctx context.Context, cfg appconf.CacheConfig, defaultTTL time.Duration, logger *slog.Logger) (planner.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "cachestore"))

	switch cfg.Backend {
	case "none":
		logger.Info("result cache disabled")
		return nil, nil
	case "redis":
		store, err := NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			logging.LogWarn(logger, "redis unavailable, falling back to memory cache", err)
			logging.SafeCloseWithLogging(store, logger, "redis_client")
			return NewMemoryStore(defaultTTL, cfg.CleanupInterval), nil
		}

		logger.Info("using redis result cache")
		return store, nil
	case "", "memory":
		return NewMemoryStore(defaultTTL, cfg.CleanupInterval), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
