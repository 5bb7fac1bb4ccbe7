package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/repository"
)

// CreateDatasetInput is the inbound payload for a new dataset.
type CreateDatasetInput struct {
	Title       string
	Description string
	Owner       string
	Visibility  domain.Visibility
	PDPAStatus  domain.PDPAStatus
	Metadata    domain.DCATMetadata
	FileURL     string
	Format      domain.Format
	CKANID      string
	CKANURL     string
	LastSynced  *time.Time
}

// ListDatasetsParams defines filters for listing datasets.
type ListDatasetsParams struct {
	Page     int
	PageSize int
	Status   domain.PDPAStatus
	Search   string
}

// DatasetsPage represents paginated datasets with metadata.
type DatasetsPage struct {
	Items      []domain.Dataset
	Pagination PaginationMeta
}

// DatasetService implements dataset CRUD on top of a DatasetStore.
type DatasetService struct {
	store  DatasetStore
	logger *slog.Logger
	nowFn  func() time.Time
	idFn   func() string
}

// NewDatasetService constructs a DatasetService.
func NewDatasetService(store DatasetStore, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		store:  store,
		logger: logger.With("component", "dataset_service"),
		nowFn:  time.Now,
		idFn:   uuid.NewString,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *DatasetService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Create validates the input, fills defaults and stores a new dataset.
func (s *DatasetService) Create(ctx context.Context, in CreateDatasetInput) (domain.Dataset, error) {
	title := sanitizeString(in.Title)
	if title == "" {
		return domain.Dataset{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	status := in.PDPAStatus
	if status == "" {
		status = domain.StatusPending
	}
	if err := validateEnums(visibility, status, in.Format); err != nil {
		return domain.Dataset{}, err
	}

	now := s.nowFn().UTC()
	meta := in.Metadata
	meta.Keywords = normalizeKeywords(meta.Keywords)

	d := domain.Dataset{
		ID:          s.idFn(),
		Title:       title,
		Description: in.Description,
		Owner:       sanitizeString(in.Owner),
		Visibility:  visibility,
		PDPAStatus:  status,
		Metadata:    meta,
		FileURL:     in.FileURL,
		Format:      in.Format,
		CKANID:      in.CKANID,
		CKANURL:     in.CKANURL,
		LastSynced:  in.LastSynced,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateDataset(ctx, d); err != nil {
		return domain.Dataset{}, err
	}
	s.logger.Debug("dataset created", "dataset_id", d.ID, "ckan_id", d.CKANID)
	return d, nil
}

// Get returns a dataset by ID.
func (s *DatasetService) Get(ctx context.Context, id string) (domain.Dataset, error) {
	id = sanitizeString(id)
	if id == "" {
		return domain.Dataset{}, fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	return s.store.GetDataset(ctx, id)
}

// Update applies patch to the stored dataset and bumps UpdatedAt.
func (s *DatasetService) Update(ctx context.Context, id string, patch domain.DatasetPatch) (domain.Dataset, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return domain.Dataset{}, err
	}
	if patch.Title != nil {
		title := sanitizeString(*patch.Title)
		if title == "" {
			return domain.Dataset{}, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
		}
		patch.Title = &title
	}
	if patch.Metadata != nil {
		meta := *patch.Metadata
		meta.Keywords = normalizeKeywords(meta.Keywords)
		patch.Metadata = &meta
	}

	patch.Apply(&d)
	if err := validateEnums(d.Visibility, d.PDPAStatus, d.Format); err != nil {
		return domain.Dataset{}, err
	}
	d.UpdatedAt = s.nowFn().UTC()
	if err := s.store.UpdateDataset(ctx, d); err != nil {
		return domain.Dataset{}, err
	}
	return d, nil
}

// Delete removes a dataset and its scans.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	id = sanitizeString(id)
	if id == "" {
		return fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	return s.store.DeleteDataset(ctx, id)
}

// List retrieves paginated datasets matching the provided filters.
func (s *DatasetService) List(ctx context.Context, params ListDatasetsParams) (DatasetsPage, error) {
	if params.Status != "" && !params.Status.Valid() {
		return DatasetsPage{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, params.Status)
	}
	page, pageSize := normalizePagination(params.Page, params.PageSize)

	result, err := s.store.ListDatasets(ctx, repository.ListDatasetsOptions{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
		Status: params.Status,
		Search: sanitizeString(params.Search),
	})
	if err != nil {
		return DatasetsPage{}, err
	}
	return DatasetsPage{
		Items:      result.Items,
		Pagination: buildPaginationMeta(page, pageSize, result.Total),
	}, nil
}

func validateEnums(v domain.Visibility, s domain.PDPAStatus, f domain.Format) error {
	if !v.Valid() {
		return fmt.Errorf("%w: unknown visibility %q", domain.ErrInvalidInput, v)
	}
	if !s.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s)
	}
	if !f.Valid() {
		return fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidInput, f)
	}
	return nil
}
