package service

import (
	"context"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/repository"
)

// DatasetStore is the persistence contract shared by the services.
type DatasetStore interface {
	CreateDataset(ctx context.Context, d domain.Dataset) error
	GetDataset(ctx context.Context, id string) (domain.Dataset, error)
	UpdateDataset(ctx context.Context, d domain.Dataset) error
	DeleteDataset(ctx context.Context, id string) error
	ListDatasets(ctx context.Context, opts repository.ListDatasetsOptions) (domain.DatasetListResult, error)
	FindDatasetByCKANID(ctx context.Context, ckanID string) (domain.Dataset, error)
	SaveScanResult(ctx context.Context, scan domain.ScanResult) error
	LatestScanResult(ctx context.Context, datasetID string) (domain.ScanResult, error)
	Ping(ctx context.Context) error
}

var (
	_ DatasetStore = (*repository.MemoryStore)(nil)
	_ DatasetStore = (*repository.GraphStore)(nil)
	_ DatasetStore = (*repository.SQLStore)(nil)
)
