package domain

import "time"

// Visibility controls who may see a dataset in the catalogue.
type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityRestricted   Visibility = "restricted"
	VisibilityConfidential Visibility = "confidential"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityRestricted, VisibilityConfidential:
		return true
	}
	return false
}

// PDPAStatus is the compliance state of a dataset.
type PDPAStatus string

const (
	StatusPending   PDPAStatus = "pending"
	StatusScanning  PDPAStatus = "scanning"
	StatusApproved  PDPAStatus = "approved"
	StatusRejected  PDPAStatus = "rejected"
	StatusHighRisk  PDPAStatus = "high_risk"
	StatusCompliant PDPAStatus = "compliant"
)

// Valid reports whether s is a known status.
func (s PDPAStatus) Valid() bool {
	switch s {
	case StatusPending, StatusScanning, StatusApproved, StatusRejected, StatusHighRisk, StatusCompliant:
		return true
	}
	return false
}

// StatusForScore applies the compliance rule: strictly above threshold is high risk.
func StatusForScore(score, threshold int) PDPAStatus {
	if score > threshold {
		return StatusHighRisk
	}
	return StatusCompliant
}

// Format is the file format of a dataset's primary resource.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Valid reports whether f is a supported format. The empty format is valid.
func (f Format) Valid() bool {
	switch f {
	case "", FormatCSV, FormatJSON, FormatXML:
		return true
	}
	return false
}

// DCATMetadata carries the DCAT catalogue fields of a dataset.
type DCATMetadata struct {
	Publisher string
	Issued    *time.Time
	Modified  *time.Time
	License   string
	Keywords  []string
}

// Dataset is a catalogued dataset and its compliance state.
type Dataset struct {
	ID          string
	Title       string
	Description string
	Owner       string
	Visibility  Visibility
	PDPAStatus  PDPAStatus
	Metadata    DCATMetadata
	FileURL     string
	Format      Format
	CKANID      string
	CKANURL     string
	LastSynced  *time.Time
	LastScanAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DatasetPatch lists the fields an update may change. Nil fields are left as is.
type DatasetPatch struct {
	Title       *string
	Description *string
	Visibility  *Visibility
	PDPAStatus  *PDPAStatus
	Metadata    *DCATMetadata
	FileURL     *string
	Format      *Format
}

// Apply copies the set fields of p onto d.
func (p DatasetPatch) Apply(d *Dataset) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Visibility != nil {
		d.Visibility = *p.Visibility
	}
	if p.PDPAStatus != nil {
		d.PDPAStatus = *p.PDPAStatus
	}
	if p.Metadata != nil {
		d.Metadata = *p.Metadata
	}
	if p.FileURL != nil {
		d.FileURL = *p.FileURL
	}
	if p.Format != nil {
		d.Format = *p.Format
	}
}
