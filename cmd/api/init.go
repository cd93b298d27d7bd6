package main

import (
	"context"

	"keypad-calculator/internal/config"
	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/observability"
	"keypad-calculator/internal/session"
)

// initMetrics initialises the metric providers, the keypad instruments and
// the Prometheus collectors served on /metrics.
func initMetrics(ctx context.Context, store *session.Store) (func(context.Context) error, error) {
	shutdown, err := observability.InitMetrics(ctx)
	if err != nil {
		return nil, err
	}

	if err := keypad.InitMetrics(); err != nil {
		return nil, err
	}

	if err := observability.RegisterCollectors(store.Collector()); err != nil {
		return nil, err
	}

	return shutdown, nil
}

// initLogging tees logs to OTLP when enabled. The returned shutdown is
// always safe to call.
func initLogging(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	if !cfg.OTLPLogs {
		return func(context.Context) error { return nil }, nil
	}
	return observability.InitLogging(ctx)
}
