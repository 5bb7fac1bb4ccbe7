package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/invalder/OpenDGAi/internal/ckan"
	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/events"
	"github.com/invalder/OpenDGAi/internal/repository"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// failingStore wraps a MemoryStore and fails the configured operations.
type failingStore struct {
	*repository.MemoryStore
	createErr error
	updateErr error
	findErr   error
	saveErr   error
}

func (s *failingStore) CreateDataset(ctx context.Context, d domain.Dataset) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.MemoryStore.CreateDataset(ctx, d)
}

func (s *failingStore) UpdateDataset(ctx context.Context, d domain.Dataset) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.MemoryStore.UpdateDataset(ctx, d)
}

func (s *failingStore) FindDatasetByCKANID(ctx context.Context, id string) (domain.Dataset, error) {
	if s.findErr != nil {
		return domain.Dataset{}, s.findErr
	}
	return s.MemoryStore.FindDatasetByCKANID(ctx, id)
}

func (s *failingStore) SaveScanResult(ctx context.Context, scan domain.ScanResult) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.SaveScanResult(ctx, scan)
}

type stubCatalog struct {
	mu       sync.Mutex
	packages []ckan.Package
	err      error
	queries  []string
	rows     []int
}

func (c *stubCatalog) Search(_ context.Context, query string, rows int) ([]ckan.Package, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	c.rows = append(c.rows, rows)
	if c.err != nil {
		return nil, c.err
	}
	return c.packages, nil
}

func (c *stubCatalog) BaseURL() string { return "https://catalog.test" }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ScanCompleted
	err    error
}

func (p *recordingPublisher) PublishScanCompleted(_ context.Context, e events.ScanCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var errBoom = errors.New("boom")
