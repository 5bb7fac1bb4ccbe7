package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/graph"
	"github.com/invalder/OpenDGAi/internal/pdpa"
)

func TestGraphStore_CreateDataset(t *testing.T) {
	mem := graph.NewMemoryClient()
	store := NewGraphStore(mem)

	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	d := sampleDataset("DS-001", now)
	d.CKANID = "pkg-1"

	if err := store.CreateDataset(context.Background(), d); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	reads := mem.ReadCalls()
	if len(reads) != 1 || reads[0].Params["ckanId"] != "pkg-1" {
		t.Fatalf("expected one duplicate lookup by ckanId, got %+v", reads)
	}

	calls := mem.WriteCalls()
	if len(calls) != 2 {
		t.Fatalf("expected create and publisher statements, got %d", len(calls))
	}
	if mem.Batches() != 1 {
		t.Fatalf("expected a single write transaction, got %d", mem.Batches())
	}
	if calls[0].Query != createDatasetCypher {
		t.Fatalf("unexpected query\nexpected:\n%s\ngot:\n%s", createDatasetCypher, calls[0].Query)
	}
	props, ok := calls[0].Params["props"].(map[string]any)
	if !ok {
		t.Fatalf("expected props map, got %T", calls[0].Params["props"])
	}
	if props["title"] != d.Title || props["pdpaStatus"] != "pending" {
		t.Errorf("unexpected props %+v", props)
	}
	if props["createdAt"] != "2024-05-01T08:30:00.000000000Z" {
		t.Errorf("unexpected createdAt %v", props["createdAt"])
	}
	if calls[1].Params["publisher"] != "Ministry" {
		t.Errorf("expected publisher link, got %+v", calls[1].Params)
	}
}

func TestGraphStore_CreateDatasetConflict(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{{"datasetId": "DS-OLD", "ckanId": "pkg-1"}}})
	store := NewGraphStore(mem)

	d := sampleDataset("DS-002", time.Now())
	d.CKANID = "pkg-1"
	err := store.CreateDataset(context.Background(), d)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(mem.WriteCalls()) != 0 {
		t.Fatalf("expected no writes on conflict")
	}
}

func TestGraphStore_GetDataset(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{{
		"datasetId":  "DS-001",
		"title":      "Budget",
		"visibility": "restricted",
		"pdpaStatus": "high_risk",
		"publisher":  "Ministry",
		"keywords":   []any{"finance", "open"},
		"format":     "csv",
		"lastScanAt": "2024-05-02T00:00:00.000000000Z",
		"createdAt":  "2024-05-01T00:00:00.000000000Z",
		"updatedAt":  "2024-05-02T00:00:00.000000000Z",
	}}})
	store := NewGraphStore(mem)

	d, err := store.GetDataset(context.Background(), "DS-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.Title != "Budget" || d.Visibility != domain.VisibilityRestricted || d.PDPAStatus != domain.StatusHighRisk {
		t.Fatalf("unexpected dataset %+v", d)
	}
	if len(d.Metadata.Keywords) != 2 || d.Format != domain.FormatCSV {
		t.Fatalf("unexpected metadata %+v", d.Metadata)
	}
	if d.LastScanAt == nil || d.UpdatedAt.Day() != 2 {
		t.Fatalf("expected timestamps to be decoded, got %+v", d)
	}

	_, err = store.GetDataset(context.Background(), "DS-404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGraphStore_UpdateAndDelete(t *testing.T) {
	mem := graph.NewMemoryClient()
	store := NewGraphStore(mem)
	d := sampleDataset("DS-001", time.Now())

	if err := store.UpdateDataset(context.Background(), d); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing node, got %v", err)
	}

	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"datasetId": "DS-001"}}})
	if err := store.UpdateDataset(context.Background(), d); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	calls := mem.WriteCalls()
	last := calls[len(calls)-1]
	if last.Query != updateDatasetCypher {
		t.Fatalf("expected update statement last, got %s", last.Query)
	}

	if err := store.DeleteDataset(context.Background(), "DS-001"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"deleted": int64(1)}}})
	if err := store.DeleteDataset(context.Background(), "DS-001"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestGraphStore_ListDatasets(t *testing.T) {
	mem := graph.NewMemoryClient()
	mem.PushReadResult(graph.Result{Records: []graph.Record{
		{"datasetId": "DS-1", "title": "One"},
		{"datasetId": "DS-2", "title": "Two"},
	}})
	mem.PushReadResult(graph.Result{Records: []graph.Record{{"total": int64(7)}}})
	store := NewGraphStore(mem)

	res, err := store.ListDatasets(context.Background(), ListDatasetsOptions{Offset: 2, Limit: 500, Search: " One ", Status: domain.StatusPending})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(res.Items) != 2 || res.Total != 7 {
		t.Fatalf("unexpected list result %+v", res)
	}

	calls := mem.ReadCalls()
	if len(calls) != 2 {
		t.Fatalf("expected list and count queries, got %d", len(calls))
	}
	params := calls[0].Params
	if params["limit"] != maxListLimit || params["skip"] != 2 || params["search"] != "one" || params["status"] != "pending" {
		t.Fatalf("unexpected params %+v", params)
	}
	if !strings.Contains(calls[0].Query, "ORDER BY updatedAt DESC") {
		t.Fatalf("expected ordering by updatedAt, got %s", calls[0].Query)
	}
}

func TestGraphStore_Scans(t *testing.T) {
	mem := graph.NewMemoryClient()
	store := NewGraphStore(mem)
	scan := domain.ScanResult{
		ID:          "SCAN-1",
		DatasetID:   "DS-1",
		Profile:     pdpa.ProfileDetailed,
		RiskScore:   15,
		Findings:    []pdpa.Detection{{FieldName: "email", RowNumber: 0, PIIType: "email", Confidence: 0.9, Sample: "te***@example.com", Category: pdpa.SensitivityGeneral}},
		Summary:     []pdpa.Finding{{Type: "Email", Count: 1}},
		RecordCount: 2,
		Status:      domain.ScanStatusCompleted,
		ScannedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := store.SaveScanResult(context.Background(), scan); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found when dataset node is missing, got %v", err)
	}

	mem.PushWriteResult(graph.Result{Records: []graph.Record{{"scanId": "SCAN-1"}}})
	if err := store.SaveScanResult(context.Background(), scan); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	calls := mem.WriteCalls()
	props := calls[len(calls)-1].Params["props"].(map[string]any)

	mem.PushReadResult(graph.Result{Records: []graph.Record{{
		"scanId":       "SCAN-1",
		"datasetId":    "DS-1",
		"profile":      props["profile"],
		"riskScore":    int64(15),
		"findingsJson": props["findingsJson"],
		"summaryJson":  props["summaryJson"],
		"recordCount":  int64(2),
		"status":       props["status"],
		"scannedAt":    props["scannedAt"],
	}}})
	latest, err := store.LatestScanResult(context.Background(), "DS-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if latest.RiskScore != 15 || len(latest.Findings) != 1 || latest.Findings[0].Sample != "te***@example.com" {
		t.Fatalf("unexpected scan %+v", latest)
	}
	if !latest.ScannedAt.Equal(scan.ScannedAt) || latest.Summary[0].Count != 1 {
		t.Fatalf("unexpected scan metadata %+v", latest)
	}

	if _, err := store.LatestScanResult(context.Background(), "DS-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGraphStore_Ping(t *testing.T) {
	boom := errors.New("unreachable")
	store := NewGraphStore(graph.NewMemoryClient().WithConnectivityError(boom))
	if err := store.Ping(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
}
