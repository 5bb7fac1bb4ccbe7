package ckan

import (
	"strings"
	"time"

	"github.com/invalder/OpenDGAi/internal/domain"
)

// Package is the subset of a CKAN package the importer uses.
type Package struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Notes            string       `json:"notes"`
	URL              string       `json:"url"`
	Resources        []Resource   `json:"resources"`
	Organization     Organization `json:"organization"`
	MetadataCreated  string       `json:"metadata_created"`
	MetadataModified string       `json:"metadata_modified"`
	LicenseTitle     string       `json:"license_title"`
	Tags             []Tag        `json:"tags"`
}

// Resource is a downloadable file attached to a package.
type Resource struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	URL    string `json:"url"`
	Name   string `json:"name"`
}

// Organization is the publishing body.
type Organization struct {
	Title string `json:"title"`
}

// Tag is a free-form keyword.
type Tag struct {
	Name string `json:"name"`
}

// SuitableResource returns the first csv, json or xml resource.
func (p Package) SuitableResource() (Resource, bool) {
	for _, r := range p.Resources {
		switch domain.Format(strings.ToLower(strings.TrimSpace(r.Format))) {
		case domain.FormatCSV, domain.FormatJSON, domain.FormatXML:
			return r, true
		}
	}
	return Resource{}, false
}

// MapToDataset converts a package into a pending public dataset. The caller
// assigns ID, Owner and creation timestamps.
func MapToDataset(pkg Package, baseURL string, now time.Time) domain.Dataset {
	keywords := make([]string, 0, len(pkg.Tags))
	for _, t := range pkg.Tags {
		keywords = append(keywords, t.Name)
	}
	synced := now.UTC()

	d := domain.Dataset{
		Title:       pkg.Title,
		Description: pkg.Notes,
		CKANID:      pkg.ID,
		CKANURL:     baseURL,
		Visibility:  domain.VisibilityPublic,
		PDPAStatus:  domain.StatusPending,
		Metadata: domain.DCATMetadata{
			Publisher: pkg.Organization.Title,
			Issued:    parseCKANTime(pkg.MetadataCreated),
			Modified:  parseCKANTime(pkg.MetadataModified),
			License:   pkg.LicenseTitle,
			Keywords:  keywords,
		},
		LastSynced: &synced,
	}
	if r, ok := pkg.SuitableResource(); ok {
		d.FileURL = r.URL
		d.Format = domain.Format(strings.ToLower(strings.TrimSpace(r.Format)))
	}
	return d
}

// CKAN emits ISO timestamps without a zone, e.g. 2023-01-02T03:04:05.123456.
var ckanTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseCKANTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range ckanTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
