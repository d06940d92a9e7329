// Package main is the entrypoint for the GenoPortal API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seqlabs/genoportal/internal/analysis"
	"github.com/seqlabs/genoportal/internal/api"
	"github.com/seqlabs/genoportal/internal/api/handler"
	mw "github.com/seqlabs/genoportal/internal/api/middleware"
	"github.com/seqlabs/genoportal/internal/api/response"
	"github.com/seqlabs/genoportal/internal/config"
	"github.com/seqlabs/genoportal/internal/galaxy"
	"github.com/seqlabs/genoportal/internal/session"
	"github.com/seqlabs/genoportal/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "galaxy_url", cfg.Galaxy.BaseURL, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis session store
	sessions, err := session.NewRedisStore(cfg.Redis.URL, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}
	defer sessions.Close()

	if err := sessions.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create Galaxy client
	galaxyClient := galaxy.NewHTTPClient(cfg.Galaxy.BaseURL, cfg.Galaxy.APIKey,
		cfg.Galaxy.Timeout, cfg.Galaxy.CallsPerSecond)

	// 6. Create store and coordinator
	pgStore := store.NewPostgresStore(pool)
	svc := analysis.NewService(galaxyClient, pgStore, galaxy.WaitOptions{
		PollInterval: cfg.Galaxy.PollInterval,
		MaxWait:      cfg.Galaxy.MaxWait,
	})

	// 7. Build router with dependencies
	auth := mw.NewAuth(sessions)
	rateLimit := mw.NewRateLimit(sessions, 60)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler:  healthHandler(pgStore, sessions),
		MetricsHandler: promhttp.Handler(),

		RegisterHandler: handler.NewRegisterHandler(pgStore),
		LoginHandler:    handler.NewLoginHandler(pgStore, sessions),
		LogoutHandler:   handler.NewLogoutHandler(sessions),

		ListHistories: handler.NewListHistoriesHandler(svc),
		CreateHistory: handler.NewCreateHistoryHandler(svc, sessions),
		ListDatasets:  handler.NewListDatasetsHandler(svc),

		UploadHandler:      handler.NewUploadHandler(svc, sessions),
		StartAnalysis:      handler.NewStartAnalysisHandler(svc),
		RecordAnalysis:     handler.NewRecordAnalysisHandler(svc),
		HistoryHandler:     handler.NewHistoryHandler(svc),
		HistoryWithResults: handler.NewHistoryWithResultsHandler(svc),
		ViewResultHandler:  handler.NewViewResultHandler(svc),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Write timeout must cover the synchronous job wait.
		WriteTimeout: cfg.Galaxy.MaxWait + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and session-store connectivity.
func healthHandler(s store.Store, sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := sessions.Ping(r.Context()); err != nil {
			checks["redis"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["redis"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
