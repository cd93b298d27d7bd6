package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"keypad-calculator/internal/config"
	"keypad-calculator/internal/observability"
	"keypad-calculator/internal/server"
	"keypad-calculator/internal/session"
)

func main() {

	ctx := context.Background()

	if err := loadDotEnv(); err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Logger
	err = observability.InitLogger()
	if err != nil {
		panic(err)
	}
	defer observability.SyncLogger()

	logShutdown, err := initLogging(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer logShutdown(ctx)

	// Tracing
	traceShutdown, err := observability.InitTracing(ctx)
	if err != nil {
		panic(err)
	}
	defer traceShutdown(ctx)

	store := session.NewStore(
		session.WithTTL(cfg.SessionTTL),
		session.WithMaxSessions(cfg.MaxSessions),
	)

	// Metrics
	metricShutdown, err := initMetrics(ctx, store)
	if err != nil {
		panic(err)
	}
	defer metricShutdown(ctx)

	// Router
	router := server.NewRouter(store)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	pruneCtx, stopPruning := context.WithCancel(ctx)
	defer stopPruning()
	go pruneSessions(pruneCtx, store, cfg.SessionTTL)

	go func() {
		observability.Logger.Info("server started",
			zap.String("addr", cfg.Addr),
			zap.Duration("session_ttl", cfg.SessionTTL),
			zap.Int("max_sessions", cfg.MaxSessions),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()

	waitForShutdown(srv, cfg.ShutdownTimeout)
}

// pruneSessions evicts idle sessions every half TTL until ctx ends.
func pruneSessions(ctx context.Context, store *session.Store, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Prune(); n > 0 {
				observability.Logger.Info("expired calculator sessions pruned", zap.Int("count", n))
			}
		}
	}
}

func waitForShutdown(srv *http.Server, timeout time.Duration) {

	stop := make(chan os.Signal, 1)

	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		observability.Logger.Error("server shutdown", zap.Error(err))
	}
}
