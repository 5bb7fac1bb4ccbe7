package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/graph"
	"github.com/invalder/OpenDGAi/internal/pdpa"
)

// Fixed-width UTC layout so timestamps stored as strings sort chronologically.
const graphTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// GraphStore persists datasets as (:Dataset) nodes, scans as (:Scan) nodes
// linked by [:HAS_SCAN] and publishers as (:Organization) nodes linked by
// [:PUBLISHED_BY].
type GraphStore struct {
	client graph.Client
}

// NewGraphStore instantiates a store backed by the supplied graph client.
func NewGraphStore(client graph.Client) *GraphStore {
	return &GraphStore{client: client}
}

func (r *GraphStore) CreateDataset(ctx context.Context, d domain.Dataset) error {
	if d.ID == "" {
		return fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	if d.CKANID != "" {
		if _, err := r.FindDatasetByCKANID(ctx, d.CKANID); err == nil {
			return fmt.Errorf("%w: catalogue package %s already imported", domain.ErrConflict, d.CKANID)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}

	params := map[string]any{
		"datasetId": d.ID,
		"props":     datasetProperties(d),
	}
	statements := []graph.Statement{{Cypher: createDatasetCypher, Params: params}}
	statements = append(statements, publisherStatements(d)...)

	if _, err := r.client.ExecuteWriteBatch(ctx, statements); err != nil {
		return fmt.Errorf("create dataset %s: %w", d.ID, err)
	}
	return nil
}

func (r *GraphStore) GetDataset(ctx context.Context, id string) (domain.Dataset, error) {
	res, err := r.client.ExecuteRead(ctx, getDatasetCypher, map[string]any{"datasetId": id})
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("get dataset %s: %w", id, err)
	}
	rec, ok := res.First()
	if !ok {
		return domain.Dataset{}, fmt.Errorf("dataset %s: %w", id, domain.ErrNotFound)
	}
	return datasetFromRecord(rec), nil
}

// UpdateDataset rewrites the node properties and re-links the publisher in one transaction.
func (r *GraphStore) UpdateDataset(ctx context.Context, d domain.Dataset) error {
	params := map[string]any{"datasetId": d.ID}
	statements := []graph.Statement{{Cypher: unlinkPublisherCypher, Params: params}}
	statements = append(statements, publisherStatements(d)...)
	statements = append(statements, graph.Statement{
		Cypher: updateDatasetCypher,
		Params: map[string]any{"datasetId": d.ID, "props": datasetProperties(d)},
	})

	res, err := r.client.ExecuteWriteBatch(ctx, statements)
	if err != nil {
		return fmt.Errorf("update dataset %s: %w", d.ID, err)
	}
	if _, ok := res.First(); !ok {
		return fmt.Errorf("dataset %s: %w", d.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *GraphStore) DeleteDataset(ctx context.Context, id string) error {
	res, err := r.client.ExecuteWrite(ctx, deleteDatasetCypher, map[string]any{"datasetId": id})
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	if _, ok := res.First(); !ok {
		return fmt.Errorf("dataset %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *GraphStore) ListDatasets(ctx context.Context, opts ListDatasetsOptions) (domain.DatasetListResult, error) {
	opts = opts.normalize()
	params := map[string]any{
		"status": string(opts.Status),
		"search": opts.Search,
		"skip":   opts.Offset,
		"limit":  opts.Limit,
	}

	res, err := r.client.ExecuteRead(ctx, fmt.Sprintf(listDatasetsCypherTemplate, datasetFilterClause), params)
	if err != nil {
		return domain.DatasetListResult{}, fmt.Errorf("list datasets query: %w", err)
	}
	items := make([]domain.Dataset, 0, len(res.Records))
	for _, rec := range res.Records {
		items = append(items, datasetFromRecord(rec))
	}

	countRes, err := r.client.ExecuteRead(ctx, fmt.Sprintf(countDatasetsCypherTemplate, datasetFilterClause), params)
	if err != nil {
		return domain.DatasetListResult{}, fmt.Errorf("count datasets query: %w", err)
	}
	var total int64
	if rec, ok := countRes.First(); ok {
		total = rec.Int64("total")
	}

	return domain.DatasetListResult{Items: items, Total: total}, nil
}

func (r *GraphStore) FindDatasetByCKANID(ctx context.Context, ckanID string) (domain.Dataset, error) {
	res, err := r.client.ExecuteRead(ctx, findDatasetByCKANCypher, map[string]any{"ckanId": ckanID})
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("find catalogue package %s: %w", ckanID, err)
	}
	rec, ok := res.First()
	if !ok {
		return domain.Dataset{}, fmt.Errorf("catalogue package %s: %w", ckanID, domain.ErrNotFound)
	}
	return datasetFromRecord(rec), nil
}

func (r *GraphStore) SaveScanResult(ctx context.Context, scan domain.ScanResult) error {
	props, err := scanProperties(scan)
	if err != nil {
		return fmt.Errorf("encode scan %s: %w", scan.ID, err)
	}
	res, err := r.client.ExecuteWrite(ctx, saveScanCypher, map[string]any{
		"datasetId": scan.DatasetID,
		"scanId":    scan.ID,
		"props":     props,
	})
	if err != nil {
		return fmt.Errorf("save scan %s: %w", scan.ID, err)
	}
	if _, ok := res.First(); !ok {
		return fmt.Errorf("dataset %s: %w", scan.DatasetID, domain.ErrNotFound)
	}
	return nil
}

func (r *GraphStore) LatestScanResult(ctx context.Context, datasetID string) (domain.ScanResult, error) {
	res, err := r.client.ExecuteRead(ctx, latestScanCypher, map[string]any{"datasetId": datasetID})
	if err != nil {
		return domain.ScanResult{}, fmt.Errorf("latest scan for %s: %w", datasetID, err)
	}
	rec, ok := res.First()
	if !ok {
		return domain.ScanResult{}, fmt.Errorf("scan for dataset %s: %w", datasetID, domain.ErrNotFound)
	}
	return scanFromRecord(rec)
}

// Ping verifies graph connectivity.
func (r *GraphStore) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

func publisherStatements(d domain.Dataset) []graph.Statement {
	if d.Metadata.Publisher == "" {
		return nil
	}
	return []graph.Statement{{
		Cypher: linkPublisherCypher,
		Params: map[string]any{"datasetId": d.ID, "publisher": d.Metadata.Publisher},
	}}
}

func datasetProperties(d domain.Dataset) map[string]any {
	keywords := d.Metadata.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return map[string]any{
		"title":       d.Title,
		"description": d.Description,
		"owner":       d.Owner,
		"visibility":  string(d.Visibility),
		"pdpaStatus":  string(d.PDPAStatus),
		"publisher":   d.Metadata.Publisher,
		"issued":      formatTimePtr(d.Metadata.Issued),
		"modified":    formatTimePtr(d.Metadata.Modified),
		"license":     d.Metadata.License,
		"keywords":    keywords,
		"fileUrl":     d.FileURL,
		"format":      string(d.Format),
		"ckanId":      d.CKANID,
		"ckanUrl":     d.CKANURL,
		"lastSynced":  formatTimePtr(d.LastSynced),
		"lastScanAt":  formatTimePtr(d.LastScanAt),
		"createdAt":   formatTime(d.CreatedAt),
		"updatedAt":   formatTime(d.UpdatedAt),
	}
}

func datasetFromRecord(rec graph.Record) domain.Dataset {
	d := domain.Dataset{
		ID:          rec.String("datasetId"),
		Title:       rec.String("title"),
		Description: rec.String("description"),
		Owner:       rec.String("owner"),
		Visibility:  domain.Visibility(rec.String("visibility")),
		PDPAStatus:  domain.PDPAStatus(rec.String("pdpaStatus")),
		Metadata: domain.DCATMetadata{
			Publisher: rec.String("publisher"),
			Issued:    rec.Time("issued"),
			Modified:  rec.Time("modified"),
			License:   rec.String("license"),
			Keywords:  rec.Strings("keywords"),
		},
		FileURL:    rec.String("fileUrl"),
		Format:     domain.Format(rec.String("format")),
		CKANID:     rec.String("ckanId"),
		CKANURL:    rec.String("ckanUrl"),
		LastSynced: rec.Time("lastSynced"),
		LastScanAt: rec.Time("lastScanAt"),
	}
	if created := rec.Time("createdAt"); created != nil {
		d.CreatedAt = *created
	}
	if updated := rec.Time("updatedAt"); updated != nil {
		d.UpdatedAt = *updated
	}
	return d
}

func scanProperties(s domain.ScanResult) (map[string]any, error) {
	findings, err := json.Marshal(s.Findings)
	if err != nil {
		return nil, err
	}
	summary, err := json.Marshal(s.Summary)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"profile":      s.Profile,
		"riskScore":    s.RiskScore,
		"findingsJson": string(findings),
		"summaryJson":  string(summary),
		"recordCount":  s.RecordCount,
		"status":       s.Status,
		"createdBy":    s.CreatedBy,
		"scannedAt":    formatTime(s.ScannedAt),
	}, nil
}

func scanFromRecord(rec graph.Record) (domain.ScanResult, error) {
	s := domain.ScanResult{
		ID:          rec.String("scanId"),
		DatasetID:   rec.String("datasetId"),
		Profile:     rec.String("profile"),
		RiskScore:   rec.Int("riskScore"),
		RecordCount: rec.Int("recordCount"),
		Status:      rec.String("status"),
		CreatedBy:   rec.String("createdBy"),
	}
	if scanned := rec.Time("scannedAt"); scanned != nil {
		s.ScannedAt = *scanned
	}
	if raw := rec.String("findingsJson"); raw != "" {
		var findings []pdpa.Detection
		if err := json.Unmarshal([]byte(raw), &findings); err != nil {
			return domain.ScanResult{}, fmt.Errorf("decode scan findings: %w", err)
		}
		s.Findings = findings
	}
	if raw := rec.String("summaryJson"); raw != "" {
		var summary []pdpa.Finding
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			return domain.ScanResult{}, fmt.Errorf("decode scan summary: %w", err)
		}
		s.Summary = summary
	}
	return s, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(graphTimeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return formatTime(*t)
}

const datasetReturnClause = `
RETURN d.datasetId AS datasetId,
	d.title AS title,
	d.description AS description,
	d.owner AS owner,
	d.visibility AS visibility,
	d.pdpaStatus AS pdpaStatus,
	d.publisher AS publisher,
	d.issued AS issued,
	d.modified AS modified,
	d.license AS license,
	d.keywords AS keywords,
	d.fileUrl AS fileUrl,
	d.format AS format,
	d.ckanId AS ckanId,
	d.ckanUrl AS ckanUrl,
	d.lastSynced AS lastSynced,
	d.lastScanAt AS lastScanAt,
	d.createdAt AS createdAt,
	d.updatedAt AS updatedAt`

const createDatasetCypher = `
CREATE (d:Dataset {datasetId: $datasetId})
SET d += $props
RETURN d.datasetId AS datasetId
`

const updateDatasetCypher = `
MATCH (d:Dataset {datasetId: $datasetId})
SET d += $props
RETURN d.datasetId AS datasetId
`

const unlinkPublisherCypher = `
MATCH (d:Dataset {datasetId: $datasetId})-[p:PUBLISHED_BY]->(:Organization)
DELETE p
`

const linkPublisherCypher = `
MATCH (d:Dataset {datasetId: $datasetId})
MERGE (o:Organization {name: $publisher})
MERGE (d)-[:PUBLISHED_BY]->(o)
`

const deleteDatasetCypher = `
MATCH (d:Dataset {datasetId: $datasetId})
OPTIONAL MATCH (d)-[:HAS_SCAN]->(s:Scan)
WITH d, collect(s) AS scans
FOREACH (scan IN scans | DETACH DELETE scan)
DETACH DELETE d
RETURN 1 AS deleted
`

const getDatasetCypher = `
MATCH (d:Dataset {datasetId: $datasetId})` + datasetReturnClause

const findDatasetByCKANCypher = `
MATCH (d:Dataset {ckanId: $ckanId})` + datasetReturnClause + `
LIMIT 1`

const datasetFilterClause = `
WHERE ($status = '' OR d.pdpaStatus = $status)
	AND ($search = '' OR toLower(coalesce(d.title, '')) CONTAINS $search
		OR toLower(coalesce(d.description, '')) CONTAINS $search)`

const listDatasetsCypherTemplate = `
MATCH (d:Dataset)%s` + datasetReturnClause + `
ORDER BY updatedAt DESC, datasetId ASC
SKIP $skip
LIMIT $limit
`

const countDatasetsCypherTemplate = `
MATCH (d:Dataset)%s
RETURN count(d) AS total
`

const saveScanCypher = `
MATCH (d:Dataset {datasetId: $datasetId})
CREATE (s:Scan {scanId: $scanId})
SET s += $props
MERGE (d)-[:HAS_SCAN]->(s)
RETURN s.scanId AS scanId
`

const latestScanCypher = `
MATCH (d:Dataset {datasetId: $datasetId})-[:HAS_SCAN]->(s:Scan)
RETURN s.scanId AS scanId,
	d.datasetId AS datasetId,
	s.profile AS profile,
	s.riskScore AS riskScore,
	s.findingsJson AS findingsJson,
	s.summaryJson AS summaryJson,
	s.recordCount AS recordCount,
	s.status AS status,
	s.createdBy AS createdBy,
	s.scannedAt AS scannedAt
ORDER BY scannedAt DESC
LIMIT 1
`
