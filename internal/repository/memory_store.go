package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/invalder/OpenDGAi/internal/domain"
)

// MemoryStore keeps datasets and scans in process memory. All values are
// copied on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]domain.Dataset
	byCKAN   map[string]string
	scans    map[string][]domain.ScanResult
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		datasets: make(map[string]domain.Dataset),
		byCKAN:   make(map[string]string),
		scans:    make(map[string][]domain.ScanResult),
	}
}

func (s *MemoryStore) CreateDataset(_ context.Context, d domain.Dataset) error {
	if d.ID == "" {
		return fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[d.ID]; exists {
		return fmt.Errorf("%w: dataset %s already exists", domain.ErrConflict, d.ID)
	}
	if d.CKANID != "" {
		if _, exists := s.byCKAN[d.CKANID]; exists {
			return fmt.Errorf("%w: catalogue package %s already imported", domain.ErrConflict, d.CKANID)
		}
		s.byCKAN[d.CKANID] = d.ID
	}
	s.datasets[d.ID] = cloneDataset(d)
	return nil
}

func (s *MemoryStore) GetDataset(_ context.Context, id string) (domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.datasets[id]
	if !ok {
		return domain.Dataset{}, fmt.Errorf("dataset %s: %w", id, domain.ErrNotFound)
	}
	return cloneDataset(d), nil
}

func (s *MemoryStore) UpdateDataset(_ context.Context, d domain.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.datasets[d.ID]
	if !ok {
		return fmt.Errorf("dataset %s: %w", d.ID, domain.ErrNotFound)
	}
	if old.CKANID != d.CKANID {
		if d.CKANID != "" {
			if owner, exists := s.byCKAN[d.CKANID]; exists && owner != d.ID {
				return fmt.Errorf("%w: catalogue package %s already imported", domain.ErrConflict, d.CKANID)
			}
			s.byCKAN[d.CKANID] = d.ID
		}
		delete(s.byCKAN, old.CKANID)
	}
	s.datasets[d.ID] = cloneDataset(d)
	return nil
}

func (s *MemoryStore) DeleteDataset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.datasets[id]
	if !ok {
		return fmt.Errorf("dataset %s: %w", id, domain.ErrNotFound)
	}
	delete(s.datasets, id)
	delete(s.scans, id)
	if d.CKANID != "" {
		delete(s.byCKAN, d.CKANID)
	}
	return nil
}

// ListDatasets orders by UpdatedAt descending; ties fall back to ID.
func (s *MemoryStore) ListDatasets(_ context.Context, opts ListDatasetsOptions) (domain.DatasetListResult, error) {
	opts = opts.normalize()

	s.mu.RLock()
	matched := make([]domain.Dataset, 0, len(s.datasets))
	for _, d := range s.datasets {
		if opts.matches(d) {
			matched = append(matched, cloneDataset(d))
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return domain.DatasetListResult{Items: []domain.Dataset{}, Total: total}, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return domain.DatasetListResult{Items: matched[opts.Offset:end], Total: total}, nil
}

func (s *MemoryStore) FindDatasetByCKANID(_ context.Context, ckanID string) (domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCKAN[ckanID]
	if !ok {
		return domain.Dataset{}, fmt.Errorf("catalogue package %s: %w", ckanID, domain.ErrNotFound)
	}
	return cloneDataset(s.datasets[id]), nil
}

func (s *MemoryStore) SaveScanResult(_ context.Context, scan domain.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[scan.DatasetID]; !ok {
		return fmt.Errorf("dataset %s: %w", scan.DatasetID, domain.ErrNotFound)
	}
	s.scans[scan.DatasetID] = append(s.scans[scan.DatasetID], cloneScan(scan))
	return nil
}

// LatestScanResult returns the scan with the newest ScannedAt; on equal
// timestamps the one saved last wins.
func (s *MemoryStore) LatestScanResult(_ context.Context, datasetID string) (domain.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scans := s.scans[datasetID]
	if len(scans) == 0 {
		return domain.ScanResult{}, fmt.Errorf("scan for dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	latest := scans[0]
	for _, scan := range scans[1:] {
		if !scan.ScannedAt.Before(latest.ScannedAt) {
			latest = scan
		}
	}
	return cloneScan(latest), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
