package service

import (
	"slices"
	"strings"

	"github.com/invalder/OpenDGAi/internal/pdpa"
)

// MetadataSuggestion is a generated title, description and tag set.
type MetadataSuggestion struct {
	Title       string
	Description string
	Tags        []string
}

// SuggestMetadata derives catalogue metadata from the field names of the
// first record. Field names are taken in sorted order.
func SuggestMetadata(records []pdpa.Record) MetadataSuggestion {
	var keys []string
	if len(records) > 0 {
		keys = records[0].Fields()
	}
	keyString := strings.Join(keys, ", ")
	lower := strings.ToLower(keyString)

	tags := []string{"dataset", "public-data"}
	if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
		tags = append(tags, "time-series")
	}
	if strings.Contains(lower, "id") || strings.Contains(lower, "code") {
		tags = append(tags, "reference-data")
	}
	financial := strings.Contains(lower, "price") || strings.Contains(lower, "cost") || strings.Contains(lower, "amount")
	if financial {
		tags = append(tags, "financial")
	}

	var title string
	switch {
	case financial:
		title = "Financial Records Dataset"
	case slices.Contains(keys, "name") && slices.Contains(keys, "email"):
		title = "User Directory Dataset"
	default:
		title = "Dataset: " + strings.Join(keys[:min(3, len(keys))], "-")
	}

	return MetadataSuggestion{
		Title:       title,
		Description: "This dataset contains records with the following fields: " + keyString + ". It appears to be a structured collection of data suitable for analysis.",
		Tags:        tags,
	}
}
