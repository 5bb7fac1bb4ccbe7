package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/invalder/OpenDGAi/internal/ckan"
	"github.com/invalder/OpenDGAi/internal/domain"
)

// ErrCatalogUnavailable wraps every failure of the upstream catalogue.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

const (
	systemOwner     = "system"
	defaultSyncRows = 100
	defaultSyncMax  = 400
)

// Catalog is the subset of the CKAN client the service depends on.
type Catalog interface {
	Search(ctx context.Context, query string, rows int) ([]ckan.Package, error)
	BaseURL() string
}

// CatalogOptions configures a CatalogService.
type CatalogOptions struct {
	SyncRows int
	SyncMax  int
	Workers  int
	Logger   *slog.Logger
}

// SyncReport summarises a one-shot catalogue sync.
type SyncReport struct {
	Fetched int
	Created int
	Updated int
	Skipped int
	Errors  []string
}

// ImportResult is the dataset an import produced or found.
type ImportResult struct {
	Dataset domain.Dataset
	Created bool
}

// CatalogService imports and syncs CKAN packages into the dataset store.
type CatalogService struct {
	catalog  Catalog
	store    DatasetStore
	datasets *DatasetService
	pool     *WorkerPool
	syncRows int
	syncMax  int
	logger   *slog.Logger
	nowFn    func() time.Time
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(catalog Catalog, store DatasetStore, datasets *DatasetService, opts CatalogOptions) *CatalogService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SyncRows <= 0 {
		opts.SyncRows = defaultSyncRows
	}
	if opts.SyncMax <= 0 {
		opts.SyncMax = defaultSyncMax
	}
	return &CatalogService{
		catalog:  catalog,
		store:    store,
		datasets: datasets,
		pool:     NewWorkerPool(opts.Workers),
		syncRows: opts.SyncRows,
		syncMax:  opts.SyncMax,
		logger:   opts.Logger.With("component", "catalog_service"),
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *CatalogService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Search passes the query through to the catalogue.
func (s *CatalogService) Search(ctx context.Context, query string, rows int) ([]ckan.Package, error) {
	if rows < 0 {
		return nil, fmt.Errorf("%w: rows must not be negative", domain.ErrInvalidInput)
	}
	pkgs, err := s.catalog.Search(ctx, query, rows)
	if err != nil {
		return nil, catalogError(err)
	}
	return pkgs, nil
}

// Import fetches one package by its CKAN ID and stores it as a dataset. A
// package imported earlier is returned as found.
func (s *CatalogService) Import(ctx context.Context, ckanID, owner string) (ImportResult, error) {
	ckanID = sanitizeString(ckanID)
	if ckanID == "" {
		return ImportResult{}, fmt.Errorf("%w: ckan id is required", domain.ErrInvalidInput)
	}
	if existing, err := s.store.FindDatasetByCKANID(ctx, ckanID); err == nil {
		return ImportResult{Dataset: existing}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return ImportResult{}, err
	}

	pkgs, err := s.catalog.Search(ctx, "id:"+strconv.Quote(ckanID), 1)
	if err != nil {
		return ImportResult{}, catalogError(err)
	}
	for _, pkg := range pkgs {
		if pkg.ID == ckanID {
			return s.ImportPackage(ctx, pkg, owner)
		}
	}
	return ImportResult{}, fmt.Errorf("catalogue package %s: %w", ckanID, domain.ErrNotFound)
}

// ImportPackage maps an already fetched package and stores it.
func (s *CatalogService) ImportPackage(ctx context.Context, pkg ckan.Package, owner string) (ImportResult, error) {
	if pkg.ID == "" {
		return ImportResult{}, fmt.Errorf("%w: package id is required", domain.ErrInvalidInput)
	}
	if existing, err := s.store.FindDatasetByCKANID(ctx, pkg.ID); err == nil {
		return ImportResult{Dataset: existing}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return ImportResult{}, err
	}

	d, err := s.create(ctx, pkg, owner)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Dataset: d, Created: true}, nil
}

func (s *CatalogService) create(ctx context.Context, pkg ckan.Package, owner string) (domain.Dataset, error) {
	mapped := ckan.MapToDataset(pkg, s.catalog.BaseURL(), s.nowFn())
	return s.datasets.Create(ctx, CreateDatasetInput{
		Title:       mapped.Title,
		Description: mapped.Description,
		Owner:       owner,
		Visibility:  mapped.Visibility,
		PDPAStatus:  mapped.PDPAStatus,
		Metadata:    mapped.Metadata,
		FileURL:     mapped.FileURL,
		Format:      mapped.Format,
		CKANID:      mapped.CKANID,
		CKANURL:     mapped.CKANURL,
		LastSynced:  mapped.LastSynced,
	})
}

type syncOutcome int

const (
	syncCreated syncOutcome = iota
	syncUpdated
	syncSkipped
)

// Sync pulls up to the configured number of packages matching query. Known
// packages get their title and description refreshed; new ones are created
// only when they carry a csv, json or xml resource.
func (s *CatalogService) Sync(ctx context.Context, query string) (SyncReport, error) {
	pkgs, err := s.catalog.Search(ctx, query, s.syncRows)
	if err != nil {
		return SyncReport{}, catalogError(err)
	}
	if len(pkgs) > s.syncMax {
		pkgs = pkgs[:s.syncMax]
	}

	report := SyncReport{Fetched: len(pkgs)}
	var mu sync.Mutex
	runErr := s.pool.Run(ctx, len(pkgs), func(ctx context.Context, idx int) error {
		outcome, err := s.syncPackage(ctx, pkgs[idx])
		if err != nil {
			return fmt.Errorf("package %s: %w", pkgs[idx].ID, err)
		}
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case syncCreated:
			report.Created++
		case syncUpdated:
			report.Updated++
		case syncSkipped:
			report.Skipped++
		}
		return nil
	})

	var taskErr *TaskError
	switch {
	case runErr == nil:
	case errors.As(runErr, &taskErr):
		for _, e := range taskErr.Errors {
			report.Errors = append(report.Errors, e.Error())
		}
	default:
		return report, runErr
	}

	s.logger.Info("catalogue sync finished",
		"query", query,
		"fetched", report.Fetched,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (s *CatalogService) syncPackage(ctx context.Context, pkg ckan.Package) (syncOutcome, error) {
	if pkg.ID == "" {
		return syncSkipped, nil
	}
	existing, err := s.store.FindDatasetByCKANID(ctx, pkg.ID)
	switch {
	case err == nil:
		now := s.nowFn().UTC()
		existing.Title = pkg.Title
		existing.Description = pkg.Notes
		existing.UpdatedAt = now
		existing.LastSynced = &now
		if err := s.store.UpdateDataset(ctx, existing); err != nil {
			return 0, err
		}
		return syncUpdated, nil
	case errors.Is(err, domain.ErrNotFound):
		if _, ok := pkg.SuitableResource(); !ok {
			return syncSkipped, nil
		}
		if _, err := s.create(ctx, pkg, systemOwner); err != nil {
			return 0, err
		}
		return syncCreated, nil
	default:
		return 0, err
	}
}

func catalogError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
}
