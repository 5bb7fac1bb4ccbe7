package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/invalder/OpenDGAi/internal/app"
	"github.com/invalder/OpenDGAi/internal/config"
	"github.com/invalder/OpenDGAi/internal/logging"
	"github.com/invalder/OpenDGAi/internal/metrics"
	"github.com/invalder/OpenDGAi/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()

	checks := map[string]server.Pinger{"store": store}

	rc, err := app.OpenCache(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if rc != nil {
		defer rc.Close()
		checks["cache"] = rc
	}

	publisher, err := app.OpenPublisher(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("open publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("closing publisher failed", "error", err)
		}
	}()

	m := metrics.New()
	catalog := app.NewCatalogClient(cfg.Catalog, rc, m, logger)

	svcs, err := app.NewServices(cfg, app.ServiceDeps{
		Store:     store,
		Catalog:   catalog,
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting",
		"store", store.Driver,
		"catalog", catalog.BaseURL(),
		"cache", rc != nil,
		"events", len(cfg.Kafka.Brokers) > 0,
		"scan_profile", svcs.Scans.DefaultProfile(),
	)

	apiHandlers := server.NewAPIHandlers(logger, svcs.Datasets, svcs.Scans, svcs.Catalog)
	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.DependencyHealthService{Checks: checks},
		API:              apiHandlers,
		Metrics:          m,
		ExposeMetrics:    cfg.HTTP.MetricsEnabled,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	return nil
}
