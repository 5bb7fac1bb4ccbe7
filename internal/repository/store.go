package repository

import (
	"strings"
	"time"

	"github.com/invalder/OpenDGAi/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListDatasetsOptions defines filters and pagination for dataset listing.
type ListDatasetsOptions struct {
	Offset int
	Limit  int
	Status domain.PDPAStatus
	Search string
}

func (o ListDatasetsOptions) normalize() ListDatasetsOptions {
	if o.Limit <= 0 {
		o.Limit = defaultListLimit
	}
	if o.Limit > maxListLimit {
		o.Limit = maxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	o.Search = strings.ToLower(strings.TrimSpace(o.Search))
	return o
}

func (o ListDatasetsOptions) matches(d domain.Dataset) bool {
	if o.Status != "" && d.PDPAStatus != o.Status {
		return false
	}
	if o.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Title), o.Search) ||
		strings.Contains(strings.ToLower(d.Description), o.Search)
}

func cloneDataset(d domain.Dataset) domain.Dataset {
	d.Metadata.Keywords = append([]string(nil), d.Metadata.Keywords...)
	d.Metadata.Issued = cloneTime(d.Metadata.Issued)
	d.Metadata.Modified = cloneTime(d.Metadata.Modified)
	d.LastSynced = cloneTime(d.LastSynced)
	d.LastScanAt = cloneTime(d.LastScanAt)
	return d
}

func cloneScan(s domain.ScanResult) domain.ScanResult {
	s.Findings = append(s.Findings[:0:0], s.Findings...)
	s.Summary = append(s.Summary[:0:0], s.Summary...)
	return s
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
