package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invalder/OpenDGAi/internal/app"
	"github.com/invalder/OpenDGAi/internal/config"
	"github.com/invalder/OpenDGAi/internal/logging"
	"github.com/invalder/OpenDGAi/internal/service"
)

var errNothingToDo = errors.New("either -query or -id is required")

func main() {
	var (
		query   = flag.String("query", "", "CKAN search query to sync")
		id      = flag.String("id", "", "import a single CKAN package by ID instead of syncing")
		owner   = flag.String("owner", "system", "owner recorded on datasets imported with -id")
		workers = flag.Int("workers", 4, "number of concurrent workers for the sync")
	)
	flag.Parse()

	if *query == "" && *id == "" {
		fmt.Fprintln(os.Stderr, errNothingToDo)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ckanimport")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}()
	if store.Driver == config.DriverMemory {
		logger.Warn("memory store selected; imported datasets are discarded on exit")
	}

	rc, err := app.OpenCache(ctx, cfg.Redis)
	if err != nil {
		logger.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	if rc != nil {
		defer rc.Close()
	}

	svcs, err := app.NewServices(cfg, app.ServiceDeps{
		Store:   store,
		Catalog: app.NewCatalogClient(cfg.Catalog, rc, nil, logger),
		Logger:  logger,
		Workers: *workers,
	})
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	if *id != "" {
		res, err := svcs.Catalog.Import(ctx, *id, *owner)
		if err != nil {
			logger.Error("import failed", "ckan_id", *id, "error", err)
			os.Exit(1)
		}
		logger.Info("import complete", "dataset_id", res.Dataset.ID, "created", res.Created, "duration", time.Since(start).String())
		printJSON(imported{ID: res.Dataset.ID, Title: res.Dataset.Title, CKANID: res.Dataset.CKANID, Created: res.Created})
		return
	}

	logger.Info("syncing catalogue", "query", *query, "workers", *workers, "max", cfg.Catalog.SyncMax)
	report, err := svcs.Catalog.Sync(ctx, *query)
	if err != nil {
		logger.Error("sync failed", "error", err)
		os.Exit(1)
	}
	logger.Info("sync complete", "duration", time.Since(start).String())
	printJSON(syncSummary(report))
	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}

type imported struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	CKANID  string `json:"ckanId"`
	Created bool   `json:"created"`
}

type summary struct {
	Fetched int      `json:"fetched"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

func syncSummary(r service.SyncReport) summary {
	return summary{Fetched: r.Fetched, Created: r.Created, Updated: r.Updated, Skipped: r.Skipped, Errors: r.Errors}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
	}
}
