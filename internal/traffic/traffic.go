// Package traffic estimates how much congestion adds to a minibus ride.
package traffic

import (
	"log/slog"
	"strings"

	"makro.app/internal/appconf"
	"makro.app/internal/planner"
)

const (
	ProviderGoogle    = "google"
	ProviderSimulated = "simulated"
)

// New builds the estimator selected by cfg and reports which provider is in
// use. The Google provider needs an API key; without one the simulated
// estimator is used instead.
func New(cfg appconf.TrafficConfig, logger *slog.Logger) (planner.TrafficEstimator, string) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "traffic"))

	maxDelay := cfg.MaxSimulatedDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxSimulatedDelay
	}

	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGoogle:
		if cfg.GoogleAPIKey == "" {
			logger.Warn("no Google traffic API key configured, using simulated traffic")
			return NewSimulatedEstimator(nil, maxDelay), ProviderSimulated
		}
		return NewDirectionsEstimator(DirectionsConfig{
			APIKey:   cfg.GoogleAPIKey,
			BaseURL:  cfg.BaseURL,
			Timeout:  cfg.Timeout,
			MemoTTL:  cfg.MemoTTL,
			MemoSize: cfg.MemoSize,
		}, logger), ProviderGoogle
	case "mock", ProviderSimulated:
		return NewSimulatedEstimator(nil, maxDelay), ProviderSimulated
	default:
		logger.Warn("unknown traffic provider, using simulated traffic", slog.String("provider", cfg.Provider))
		return NewSimulatedEstimator(nil, maxDelay), ProviderSimulated
	}
}
