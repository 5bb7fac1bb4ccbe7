package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/pdpa"
)

var datasetColumnNames = []string{
	"id", "title", "description", "owner", "visibility", "pdpa_status", "metadata", "keywords",
	"file_url", "format", "ckan_id", "ckan_url", "last_synced", "last_scan_at", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db), mock
}

func TestSQLStoreEnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS datasets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS datasets_updated_at_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scan_results").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS scan_results_dataset_idx").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreCreateDataset(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d := sampleDataset("ds-1", now)
	d.CKANID = "pkg-1"

	mock.ExpectExec("INSERT INTO datasets").
		WithArgs("ds-1", d.Title, d.Description, d.Owner, "public", "pending",
			sqlmock.AnyArg(), "{\"finance\"}", "", "", "pkg-1", "",
			nil, nil, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.CreateDataset(context.Background(), d))

	mock.ExpectExec("INSERT INTO datasets").
		WillReturnError(&pq.Error{Code: uniqueViolation})
	err := store.CreateDataset(context.Background(), d)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreGetDataset(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	metadata := []byte(`{"publisher":"Ministry","license":"Open Government License"}`)

	rows := sqlmock.NewRows(datasetColumnNames).
		AddRow("ds-1", "Budget", "desc", "owner", "public", "compliant", metadata, "{finance,open}",
			"https://example.com/a.csv", "csv", "pkg-1", "https://data.go.th/dataset/pkg-1",
			now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM datasets WHERE id = $1")).WithArgs("ds-1").WillReturnRows(rows)

	d, err := store.GetDataset(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "Budget", d.Title)
	assert.Equal(t, domain.StatusCompliant, d.PDPAStatus)
	assert.Equal(t, domain.FormatCSV, d.Format)
	assert.Equal(t, []string{"finance", "open"}, d.Metadata.Keywords)
	assert.Equal(t, "Ministry", d.Metadata.Publisher)
	require.NotNil(t, d.LastSynced)
	assert.Nil(t, d.LastScanAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM datasets WHERE id = $1")).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(datasetColumnNames))
	_, err = store.GetDataset(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreUpdateAndDelete(t *testing.T) {
	store, mock := newMockStore(t)
	d := sampleDataset("ds-1", time.Now())

	mock.ExpectExec("UPDATE datasets SET").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.UpdateDataset(context.Background(), d))

	mock.ExpectExec("UPDATE datasets SET").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.UpdateDataset(context.Background(), d), domain.ErrNotFound)

	mock.ExpectExec("DELETE FROM datasets").WithArgs("ds-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.DeleteDataset(context.Background(), "ds-1"))

	mock.ExpectExec("DELETE FROM datasets").WithArgs("ds-1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.DeleteDataset(context.Background(), "ds-1"), domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreListDatasets(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(datasetColumnNames).
		AddRow("ds-2", "Two", "", "", "public", "pending", []byte(`{}`), "{}", "", "", nil, "", nil, nil, now, now).
		AddRow("ds-1", "One", "", "", "public", "pending", []byte(`{}`), "{}", "", "", nil, "", nil, nil, now, now)
	mock.ExpectQuery("ORDER BY updated_at DESC").
		WithArgs("pending", "budget", 0, defaultListLimit).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM datasets")).
		WithArgs("pending", "budget").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	res, err := store.ListDatasets(context.Background(), ListDatasetsOptions{Status: domain.StatusPending, Search: "Budget"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "ds-2", res.Items[0].ID)
	assert.Empty(t, res.Items[0].CKANID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreScans(t *testing.T) {
	store, mock := newMockStore(t)
	scannedAt := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	scan := domain.ScanResult{
		ID:          "scan-1",
		DatasetID:   "ds-1",
		Profile:     pdpa.ProfileDetailed,
		RiskScore:   5,
		Findings:    []pdpa.Detection{{FieldName: "email", PIIType: "email", Confidence: 0.9, Sample: "te***@example.com"}},
		Summary:     []pdpa.Finding{{Type: "Email", Count: 1}},
		RecordCount: 1,
		Status:      domain.ScanStatusCompleted,
		CreatedBy:   "analyst",
		ScannedAt:   scannedAt,
	}
	findings, err := json.Marshal(scan.Findings)
	require.NoError(t, err)
	summary, err := json.Marshal(scan.Summary)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO scan_results").
		WithArgs("scan-1", "ds-1", "detailed", 5, findings, summary, 1, "completed", "analyst", scannedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.SaveScanResult(context.Background(), scan))

	mock.ExpectExec("INSERT INTO scan_results").WillReturnError(&pq.Error{Code: foreignKeyViolation})
	assert.ErrorIs(t, store.SaveScanResult(context.Background(), scan), domain.ErrNotFound)

	mock.ExpectQuery("FROM scan_results").WithArgs("ds-1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "dataset_id", "profile", "risk_score", "findings", "summary", "record_count", "status", "created_by", "scanned_at"}).
			AddRow("scan-1", "ds-1", "detailed", 5, findings, summary, 1, "completed", "analyst", scannedAt))
	latest, err := store.LatestScanResult(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, scan, latest)

	mock.ExpectQuery("FROM scan_results").WithArgs("ds-2").WillReturnError(sql.ErrNoRows)
	_, err = store.LatestScanResult(context.Background(), "ds-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mock.ExpectQuery("FROM scan_results").WithArgs("ds-3").WillReturnError(errors.New("connection reset"))
	_, err = store.LatestScanResult(context.Background(), "ds-3")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSQLStoreRequiresURL(t *testing.T) {
	_, err := OpenSQLStore("", 0)
	assert.Error(t, err)
}
