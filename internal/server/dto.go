package server

import (
	"fmt"

	"github.com/invalder/OpenDGAi/internal/ckan"
	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/pdpa"
	"github.com/invalder/OpenDGAi/internal/service"
)

type metadataPayload struct {
	Publisher string   `json:"publisher,omitempty"`
	Issued    string   `json:"issued,omitempty"`
	Modified  string   `json:"modified,omitempty"`
	License   string   `json:"license,omitempty"`
	Keywords  []string `json:"keywords"`
}

type createDatasetRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Owner       string           `json:"owner"`
	Visibility  string           `json:"visibility"`
	PDPAStatus  string           `json:"pdpaStatus"`
	Metadata    *metadataPayload `json:"metadata"`
	FileURL     string           `json:"fileUrl"`
	Format      string           `json:"format"`
}

type updateDatasetRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Visibility  *string          `json:"visibility"`
	PDPAStatus  *string          `json:"pdpaStatus"`
	Metadata    *metadataPayload `json:"metadata"`
	FileURL     *string          `json:"fileUrl"`
	Format      *string          `json:"format"`
}

type datasetResponse struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Owner        string          `json:"owner"`
	Visibility   string          `json:"visibility"`
	PDPAStatus   string          `json:"pdpaStatus"`
	Metadata     metadataPayload `json:"metadata"`
	FileURL      string          `json:"fileUrl,omitempty"`
	Format       string          `json:"format,omitempty"`
	CKANID       string          `json:"ckanId,omitempty"`
	CKANURL      string          `json:"ckanUrl,omitempty"`
	LastSynced   string          `json:"lastSynced,omitempty"`
	LastScanDate string          `json:"lastScanDate,omitempty"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

type listDatasetsResponse struct {
	Items      []datasetResponse  `json:"items"`
	Pagination paginationResponse `json:"pagination"`
}

type recordsRequest struct {
	Records []pdpa.Record `json:"records"`
	Profile string        `json:"profile,omitempty"`
}

type scanResponse struct {
	ID            string           `json:"id"`
	DatasetID     string           `json:"datasetId"`
	Profile       string           `json:"profile"`
	RiskScore     int              `json:"riskScore"`
	Findings      []pdpa.Detection `json:"findings"`
	Summary       []pdpa.Finding   `json:"summary"`
	RecordCount   int              `json:"recordCount"`
	Status        string           `json:"status"`
	CreatedBy     string           `json:"createdBy"`
	Timestamp     string           `json:"timestamp"`
	DatasetStatus string           `json:"datasetStatus,omitempty"`
}

type catalogSearchResponse struct {
	Count   int            `json:"count"`
	Results []ckan.Package `json:"results"`
}

type importRequest struct {
	CKANID string `json:"ckanId"`
}

type importResponse struct {
	Created bool            `json:"created"`
	Dataset datasetResponse `json:"dataset"`
}

type syncRequest struct {
	Query string `json:"query"`
}

type syncResponse struct {
	Fetched int      `json:"fetched"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

type nationalIDResponse struct {
	NationalID string `json:"nationalId"`
	Valid      bool   `json:"valid"`
}

type metadataSuggestionResponse struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type profilesResponse struct {
	Default           string   `json:"default"`
	HighRiskThreshold int      `json:"highRiskThreshold"`
	Profiles          []string `json:"profiles"`
}

func (m *metadataPayload) toDomain() (domain.DCATMetadata, error) {
	if m == nil {
		return domain.DCATMetadata{}, nil
	}
	issued, err := parseTimePtr(m.Issued)
	if err != nil {
		return domain.DCATMetadata{}, fmt.Errorf("%w: metadata.issued: %v", domain.ErrInvalidInput, err)
	}
	modified, err := parseTimePtr(m.Modified)
	if err != nil {
		return domain.DCATMetadata{}, fmt.Errorf("%w: metadata.modified: %v", domain.ErrInvalidInput, err)
	}
	return domain.DCATMetadata{
		Publisher: m.Publisher,
		Issued:    issued,
		Modified:  modified,
		License:   m.License,
		Keywords:  m.Keywords,
	}, nil
}

func (req createDatasetRequest) toServiceInput(owner string) (service.CreateDatasetInput, error) {
	meta, err := req.Metadata.toDomain()
	if err != nil {
		return service.CreateDatasetInput{}, err
	}
	if req.Owner != "" {
		owner = req.Owner
	}
	return service.CreateDatasetInput{
		Title:       req.Title,
		Description: req.Description,
		Owner:       owner,
		Visibility:  domain.Visibility(req.Visibility),
		PDPAStatus:  domain.PDPAStatus(req.PDPAStatus),
		Metadata:    meta,
		FileURL:     req.FileURL,
		Format:      domain.Format(req.Format),
	}, nil
}

func (req updateDatasetRequest) toPatch() (domain.DatasetPatch, error) {
	patch := domain.DatasetPatch{
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
	}
	if req.Visibility != nil {
		v := domain.Visibility(*req.Visibility)
		patch.Visibility = &v
	}
	if req.PDPAStatus != nil {
		s := domain.PDPAStatus(*req.PDPAStatus)
		patch.PDPAStatus = &s
	}
	if req.Format != nil {
		f := domain.Format(*req.Format)
		patch.Format = &f
	}
	if req.Metadata != nil {
		meta, err := req.Metadata.toDomain()
		if err != nil {
			return domain.DatasetPatch{}, err
		}
		patch.Metadata = &meta
	}
	return patch, nil
}

func toDatasetResponse(d domain.Dataset) datasetResponse {
	keywords := d.Metadata.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return datasetResponse{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Owner:       d.Owner,
		Visibility:  string(d.Visibility),
		PDPAStatus:  string(d.PDPAStatus),
		Metadata: metadataPayload{
			Publisher: d.Metadata.Publisher,
			Issued:    formatTimePtr(d.Metadata.Issued),
			Modified:  formatTimePtr(d.Metadata.Modified),
			License:   d.Metadata.License,
			Keywords:  keywords,
		},
		FileURL:      d.FileURL,
		Format:       string(d.Format),
		CKANID:       d.CKANID,
		CKANURL:      d.CKANURL,
		LastSynced:   formatTimePtr(d.LastSynced),
		LastScanDate: formatTimePtr(d.LastScanAt),
		CreatedAt:    formatTime(d.CreatedAt),
		UpdatedAt:    formatTime(d.UpdatedAt),
	}
}

func toScanResponse(s domain.ScanResult, datasetStatus domain.PDPAStatus) scanResponse {
	findings := s.Findings
	if findings == nil {
		findings = []pdpa.Detection{}
	}
	summary := s.Summary
	if summary == nil {
		summary = []pdpa.Finding{}
	}
	return scanResponse{
		ID:            s.ID,
		DatasetID:     s.DatasetID,
		Profile:       s.Profile,
		RiskScore:     s.RiskScore,
		Findings:      findings,
		Summary:       summary,
		RecordCount:   s.RecordCount,
		Status:        s.Status,
		CreatedBy:     s.CreatedBy,
		Timestamp:     formatTime(s.ScannedAt),
		DatasetStatus: string(datasetStatus),
	}
}
