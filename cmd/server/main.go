// Command ticketeer-server starts the engagement HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DaH-115/ticketeer/internal/auth"
	"github.com/DaH-115/ticketeer/internal/config"
	"github.com/DaH-115/ticketeer/internal/metadata"
	"github.com/DaH-115/ticketeer/internal/migrate"
	"github.com/DaH-115/ticketeer/internal/repository/postgres"
	"github.com/DaH-115/ticketeer/internal/server/httpapi"
	"github.com/DaH-115/ticketeer/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves until signalled.
func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("connect to store", zap.Error(err))
	}
	defer db.Close()

	engagementRepo := postgres.NewEngagementRepo(db)
	profileRepo := postgres.NewProfileRepo(db)

	gate := auth.NewGate(auth.NewJWTVerifier([]byte(cfg.Auth.JWTKey)))

	// One process-wide cache instance; handlers share it.
	provider := metadata.NewClient(cfg.Metadata.BaseURL, cfg.Metadata.APIKey, cfg.Metadata.RequestsPerSec, logger)
	cache := metadata.NewCache(provider, cfg.Metadata.CacheCapacity, cfg.Metadata.CacheTTL, logger)

	propagator := service.NewActivityPropagator(profileRepo, logger)
	engagement := service.NewEngagement(engagementRepo, profileRepo, propagator, logger)
	reconciler := service.NewReconciler(profileRepo, logger)

	handler := httpapi.NewHandler(engagement, reconciler, cache, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.NewRouter(handler, gate, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		// In-flight activity fan-outs get a chance to finish.
		propagator.Wait()
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
