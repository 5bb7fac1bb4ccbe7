package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/invalder/OpenDGAi/internal/domain"
)

// Postgres error codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// SQLStore persists datasets and scans in PostgreSQL.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens a PostgreSQL connection pool with the lib/pq driver.
func OpenSQLStore(dsn string, maxOpenConns int) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("database URL is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return NewSQLStore(db), nil
}

// NewSQLStore wraps an existing pool.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close releases the pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// metadataDocument is the JSONB shape of DCAT metadata; keywords live in their own column.
type metadataDocument struct {
	Publisher string     `json:"publisher,omitempty"`
	Issued    *time.Time `json:"issued,omitempty"`
	Modified  *time.Time `json:"modified,omitempty"`
	License   string     `json:"license,omitempty"`
}

func (s *SQLStore) CreateDataset(ctx context.Context, d domain.Dataset) error {
	if d.ID == "" {
		return fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	args, err := datasetArgs(d)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertDatasetSQL, args...); err != nil {
		return translatePQError(fmt.Sprintf("create dataset %s", d.ID), err)
	}
	return nil
}

func (s *SQLStore) GetDataset(ctx context.Context, id string) (domain.Dataset, error) {
	row := s.db.QueryRowContext(ctx, selectDatasetSQL+` WHERE id = $1`, id)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Dataset{}, fmt.Errorf("dataset %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("get dataset %s: %w", id, err)
	}
	return d, nil
}

func (s *SQLStore) UpdateDataset(ctx context.Context, d domain.Dataset) error {
	args, err := datasetArgs(d)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, updateDatasetSQL, args...)
	if err != nil {
		return translatePQError(fmt.Sprintf("update dataset %s", d.ID), err)
	}
	return expectAffected(res, fmt.Sprintf("dataset %s", d.ID))
}

func (s *SQLStore) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	return expectAffected(res, fmt.Sprintf("dataset %s", id))
}

func (s *SQLStore) ListDatasets(ctx context.Context, opts ListDatasetsOptions) (domain.DatasetListResult, error) {
	opts = opts.normalize()
	status := string(opts.Status)

	rows, err := s.db.QueryContext(ctx,
		selectDatasetSQL+datasetFilterSQL+` ORDER BY updated_at DESC, id ASC OFFSET $3 LIMIT $4`,
		status, opts.Search, opts.Offset, opts.Limit)
	if err != nil {
		return domain.DatasetListResult{}, fmt.Errorf("list datasets query: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Dataset, 0, opts.Limit)
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return domain.DatasetListResult{}, fmt.Errorf("scan dataset row: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return domain.DatasetListResult{}, fmt.Errorf("iterate datasets: %w", err)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM datasets`+datasetFilterSQL, status, opts.Search).Scan(&total); err != nil {
		return domain.DatasetListResult{}, fmt.Errorf("count datasets query: %w", err)
	}
	return domain.DatasetListResult{Items: items, Total: total}, nil
}

func (s *SQLStore) FindDatasetByCKANID(ctx context.Context, ckanID string) (domain.Dataset, error) {
	row := s.db.QueryRowContext(ctx, selectDatasetSQL+` WHERE ckan_id = $1`, ckanID)
	d, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Dataset{}, fmt.Errorf("catalogue package %s: %w", ckanID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("find catalogue package %s: %w", ckanID, err)
	}
	return d, nil
}

func (s *SQLStore) SaveScanResult(ctx context.Context, scan domain.ScanResult) error {
	findings, err := json.Marshal(scan.Findings)
	if err != nil {
		return fmt.Errorf("encode scan findings: %w", err)
	}
	summary, err := json.Marshal(scan.Summary)
	if err != nil {
		return fmt.Errorf("encode scan summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertScanSQL,
		scan.ID, scan.DatasetID, scan.Profile, scan.RiskScore, findings, summary,
		scan.RecordCount, scan.Status, scan.CreatedBy, scan.ScannedAt.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return fmt.Errorf("dataset %s: %w", scan.DatasetID, domain.ErrNotFound)
		}
		return fmt.Errorf("save scan %s: %w", scan.ID, err)
	}
	return nil
}

func (s *SQLStore) LatestScanResult(ctx context.Context, datasetID string) (domain.ScanResult, error) {
	var (
		scan     domain.ScanResult
		findings []byte
		summary  []byte
	)
	err := s.db.QueryRowContext(ctx, latestScanSQL, datasetID).Scan(
		&scan.ID, &scan.DatasetID, &scan.Profile, &scan.RiskScore, &findings, &summary,
		&scan.RecordCount, &scan.Status, &scan.CreatedBy, &scan.ScannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScanResult{}, fmt.Errorf("scan for dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("latest scan for %s: %w", datasetID, err)
	}
	if err := json.Unmarshal(findings, &scan.Findings); err != nil {
		return domain.ScanResult{}, fmt.Errorf("decode scan findings: %w", err)
	}
	if err := json.Unmarshal(summary, &scan.Summary); err != nil {
		return domain.ScanResult{}, fmt.Errorf("decode scan summary: %w", err)
	}
	scan.ScannedAt = scan.ScannedAt.UTC()
	return scan, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (domain.Dataset, error) {
	var (
		d          domain.Dataset
		visibility string
		status     string
		format     string
		metadata   []byte
		keywords   []string
		ckanID     sql.NullString
		lastSynced sql.NullTime
		lastScanAt sql.NullTime
	)
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Owner, &visibility, &status,
		&metadata, pq.Array(&keywords), &d.FileURL, &format, &ckanID, &d.CKANURL,
		&lastSynced, &lastScanAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.Dataset{}, err
	}

	var doc metadataDocument
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc); err != nil {
			return domain.Dataset{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	d.Visibility = domain.Visibility(visibility)
	d.PDPAStatus = domain.PDPAStatus(status)
	d.Format = domain.Format(format)
	d.Metadata = domain.DCATMetadata{
		Publisher: doc.Publisher,
		Issued:    doc.Issued,
		Modified:  doc.Modified,
		License:   doc.License,
		Keywords:  keywords,
	}
	d.CKANID = ckanID.String
	d.LastSynced = nullTimePtr(lastSynced)
	d.LastScanAt = nullTimePtr(lastScanAt)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func datasetArgs(d domain.Dataset) ([]any, error) {
	metadata, err := json.Marshal(metadataDocument{
		Publisher: d.Metadata.Publisher,
		Issued:    d.Metadata.Issued,
		Modified:  d.Metadata.Modified,
		License:   d.Metadata.License,
	})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	keywords := d.Metadata.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return []any{
		d.ID, d.Title, d.Description, d.Owner, string(d.Visibility), string(d.PDPAStatus),
		metadata, pq.Array(keywords), d.FileURL, string(d.Format),
		sql.NullString{String: d.CKANID, Valid: d.CKANID != ""}, d.CKANURL,
		timePtrArg(d.LastSynced), timePtrArg(d.LastScanAt), d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	}, nil
}

func timePtrArg(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

func translatePQError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

const datasetColumns = `id, title, description, owner, visibility, pdpa_status, metadata, keywords,
	file_url, format, ckan_id, ckan_url, last_synced, last_scan_at, created_at, updated_at`

const selectDatasetSQL = `SELECT ` + datasetColumns + ` FROM datasets`

const datasetFilterSQL = `
WHERE ($1 = '' OR pdpa_status = $1)
	AND ($2 = '' OR lower(title) LIKE '%' || $2 || '%' OR lower(description) LIKE '%' || $2 || '%')`

const insertDatasetSQL = `INSERT INTO datasets (` + datasetColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

const updateDatasetSQL = `UPDATE datasets SET
	title = $2, description = $3, owner = $4, visibility = $5, pdpa_status = $6,
	metadata = $7, keywords = $8, file_url = $9, format = $10, ckan_id = $11, ckan_url = $12,
	last_synced = $13, last_scan_at = $14, created_at = $15, updated_at = $16
WHERE id = $1`

const insertScanSQL = `INSERT INTO scan_results
	(id, dataset_id, profile, risk_score, findings, summary, record_count, status, created_by, scanned_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const latestScanSQL = `SELECT id, dataset_id, profile, risk_score, findings, summary, record_count, status, created_by, scanned_at
FROM scan_results
WHERE dataset_id = $1
ORDER BY scanned_at DESC
LIMIT 1`

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner TEXT NOT NULL DEFAULT '',
	visibility TEXT NOT NULL,
	pdpa_status TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}',
	keywords TEXT[] NOT NULL DEFAULT '{}',
	file_url TEXT NOT NULL DEFAULT '',
	format TEXT NOT NULL DEFAULT '',
	ckan_id TEXT UNIQUE,
	ckan_url TEXT NOT NULL DEFAULT '',
	last_synced TIMESTAMPTZ,
	last_scan_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS datasets_updated_at_idx ON datasets (updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scan_results (
	id TEXT PRIMARY KEY,
	dataset_id TEXT NOT NULL REFERENCES datasets (id) ON DELETE CASCADE,
	profile TEXT NOT NULL,
	risk_score INTEGER NOT NULL,
	findings JSONB NOT NULL,
	summary JSONB NOT NULL,
	record_count INTEGER NOT NULL,
	status TEXT NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	scanned_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS scan_results_dataset_idx ON scan_results (dataset_id, scanned_at DESC)`,
}
