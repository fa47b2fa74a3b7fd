package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"makro.app/internal/logging"
)

// Store is a key/value store with per-key expiry. A missing key is
// reported as found == false with a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ResultCache maps request fingerprints to ranked itineraries. Store
// failures are logged and treated as misses, so a broken store only
// disables caching.
type ResultCache struct {
	store  Store
	clock  func() time.Time
	logger *slog.Logger
	ins    instruments
}

// NewResultCache wraps store. A nil store gives a cache that never hits.
func NewResultCache(store Store, logger *slog.Logger, clock func() time.Time) *ResultCache {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultCache{
		store:  store,
		clock:  clock,
		logger: logger.With(slog.String("component", "result_cache")),
		ins:    newInstruments(),
	}
}

// Get returns the cached payload for fingerprint. Absent, expired or
// unreadable entries are misses.
func (c *ResultCache) Get(ctx context.Context, fingerprint string) ([]Itinerary, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}

	raw, found, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		logging.LogWarn(c.logger, "cache get failed", err, slog.String("fingerprint", fingerprint))
		c.ins.cacheMisses.Add(ctx, 1)
		return nil, false
	}
	if !found {
		c.ins.cacheMisses.Add(ctx, 1)
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logging.LogWarn(c.logger, "cache entry unreadable", err, slog.String("fingerprint", fingerprint))
		c.ins.cacheMisses.Add(ctx, 1)
		return nil, false
	}

	age := c.clock().Sub(entry.CreatedAt)
	if entry.Fingerprint != fingerprint || age > time.Duration(entry.TTLSeconds)*time.Second {
		c.ins.cacheMisses.Add(ctx, 1)
		return nil, false
	}

	c.ins.cacheHits.Add(ctx, 1)
	if entry.Payload == nil {
		entry.Payload = []Itinerary{}
	}
	return entry.Payload, true
}

// Set stores payload under fingerprint, replacing any previous entry.
func (c *ResultCache) Set(ctx context.Context, fingerprint string, payload []Itinerary, ttl time.Duration) {
	if c == nil || c.store == nil {
		return
	}

	entry := CacheEntry{
		Fingerprint: fingerprint,
		Payload:     payload,
		CreatedAt:   c.clock().UTC(),
		TTLSeconds:  int(math.Ceil(ttl.Seconds())),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		logging.LogWarn(c.logger, "cache entry encode failed", err, slog.String("fingerprint", fingerprint))
		return
	}

	if err := c.store.Set(ctx, fingerprint, raw, ttl); err != nil {
		logging.LogWarn(c.logger, "cache set failed", err, slog.String("fingerprint", fingerprint))
	}
}
