// Package app assembles the stores, clients and publishers the commands share.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/invalder/OpenDGAi/internal/cache"
	"github.com/invalder/OpenDGAi/internal/ckan"
	"github.com/invalder/OpenDGAi/internal/config"
	"github.com/invalder/OpenDGAi/internal/events"
	"github.com/invalder/OpenDGAi/internal/graph"
	"github.com/invalder/OpenDGAi/internal/metrics"
	"github.com/invalder/OpenDGAi/internal/pdpa"
	"github.com/invalder/OpenDGAi/internal/repository"
	"github.com/invalder/OpenDGAi/internal/service"
)

// Store is the configured dataset store plus whatever has to be released on exit.
type Store struct {
	service.DatasetStore
	Driver string
	close  func(context.Context) error
}

// Close releases the underlying connection, if any.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore opens the dataset store selected by cfg.Store.Driver. The
// postgres schema is created when missing; neo4j connectivity is verified.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case "", config.DriverMemory:
		return &Store{DatasetStore: repository.NewMemoryStore(), Driver: config.DriverMemory}, nil

	case config.DriverPostgres:
		sqlStore, err := repository.OpenSQLStore(cfg.Store.DatabaseURL, cfg.Store.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		if err := sqlStore.EnsureSchema(ctx); err != nil {
			_ = sqlStore.Close()
			return nil, err
		}
		logger.Info("connected to postgres", "max_open_conns", cfg.Store.MaxOpenConns)
		return &Store{
			DatasetStore: sqlStore,
			Driver:       config.DriverPostgres,
			close:        func(context.Context) error { return sqlStore.Close() },
		}, nil

	case config.DriverNeo4j:
		client, err := openGraph(ctx, cfg.Graph)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
		return &Store{
			DatasetStore: repository.NewGraphStore(client),
			Driver:       config.DriverNeo4j,
			close:        client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func openGraph(ctx context.Context, cfg config.GraphConfig) (graph.Client, error) {
	if cfg.URI == "" {
		return nil, graph.ErrMissingURI
	}
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
	})
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return client, nil
}

// OpenCache connects to Redis when a URL is configured. It returns nil, nil otherwise.
func OpenCache(ctx context.Context, cfg config.RedisConfig) (*cache.RedisCache, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	return cache.NewRedis(ctx, cfg.URL)
}

// NewCatalogClient builds the CKAN client. rc and m may be nil.
func NewCatalogClient(cfg config.CatalogConfig, rc *cache.RedisCache, m *metrics.Metrics, logger *slog.Logger) *ckan.Client {
	opts := ckan.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		CacheTTL:  cfg.CacheTTL,
		Logger:    logger,
		Observer:  m.ObserveCatalogRequest,
	}
	if rc != nil {
		opts.Cache = rc
	}
	return ckan.NewClient(opts)
}

// OpenPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func OpenPublisher(cfg config.KafkaConfig) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return events.NopPublisher{}, nil
	}
	return events.NewKafkaPublisher(cfg.Brokers, cfg.ScanTopic)
}

// Services is the service layer built over one store.
type Services struct {
	Datasets *service.DatasetService
	Scans    *service.ScanService
	Catalog  *service.CatalogService
}

// ServiceDeps are the collaborators NewServices wires together. Catalog may be nil.
type ServiceDeps struct {
	Store     service.DatasetStore
	Catalog   service.Catalog
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Workers   int
}

// NewServices loads the scan profiles and constructs every service.
func NewServices(cfg config.Config, deps ServiceDeps) (*Services, error) {
	if deps.Store == nil {
		return nil, errors.New("dataset store is required")
	}
	profiles, err := pdpaProfiles(cfg.Scan)
	if err != nil {
		return nil, err
	}

	datasets := service.NewDatasetService(deps.Store, deps.Logger)
	scans, err := service.NewScanService(deps.Store, service.ScanOptions{
		Profiles:          profiles,
		DefaultProfile:    cfg.Scan.Profile,
		HighRiskThreshold: cfg.Scan.HighRiskThreshold,
		MaxRecords:        cfg.Scan.MaxRecords,
		ClassifierTimeout: cfg.Scan.ClassifierTimeout,
		Publisher:         deps.Publisher,
		Metrics:           deps.Metrics,
		Logger:            deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build scan service: %w", err)
	}

	out := &Services{Datasets: datasets, Scans: scans}
	if deps.Catalog != nil {
		out.Catalog = service.NewCatalogService(deps.Catalog, deps.Store, datasets, service.CatalogOptions{
			SyncRows: cfg.Catalog.SyncRows,
			SyncMax:  cfg.Catalog.SyncMax,
			Workers:  deps.Workers,
			Logger:   deps.Logger,
		})
	}
	return out, nil
}

func pdpaProfiles(cfg config.ScanConfig) (pdpa.Profiles, error) {
	profiles, err := pdpa.LoadProfilesFile(cfg.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("load scan profiles: %w", err)
	}
	return profiles, nil
}
