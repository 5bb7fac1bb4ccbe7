package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invalder/OpenDGAi/internal/pdpa"
)

func TestSuggestMetadataFinancial(t *testing.T) {
	got := SuggestMetadata([]pdpa.Record{{"amount": 10, "date": "2024-01-01", "id": "1"}})

	assert.Equal(t, "Financial Records Dataset", got.Title)
	assert.Equal(t, []string{"dataset", "public-data", "time-series", "reference-data", "financial"}, got.Tags)
	assert.Equal(t, "This dataset contains records with the following fields: amount, date, id. It appears to be a structured collection of data suitable for analysis.", got.Description)
}

func TestSuggestMetadataUserDirectory(t *testing.T) {
	got := SuggestMetadata([]pdpa.Record{{"name": "Somchai", "email": "s@example.com"}})
	assert.Equal(t, "User Directory Dataset", got.Title)
	assert.Equal(t, []string{"dataset", "public-data"}, got.Tags)
}

func TestSuggestMetadataFallbackTitle(t *testing.T) {
	got := SuggestMetadata([]pdpa.Record{{"province": "x", "district": "y", "zone": "z", "river": "w"}})
	assert.Equal(t, "Dataset: district-province-river", got.Title)

	empty := SuggestMetadata(nil)
	assert.Equal(t, "Dataset: ", empty.Title)
	assert.Equal(t, []string{"dataset", "public-data"}, empty.Tags)
}
