package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusForScore(t *testing.T) {
	assert.Equal(t, StatusCompliant, StatusForScore(0, 50))
	assert.Equal(t, StatusCompliant, StatusForScore(50, 50))
	assert.Equal(t, StatusHighRisk, StatusForScore(51, 50))
	assert.Equal(t, StatusHighRisk, StatusForScore(100, 50))
}

func TestDatasetPatchApply(t *testing.T) {
	d := Dataset{Title: "old", Description: "keep", Visibility: VisibilityPublic}
	title := "new"
	vis := VisibilityRestricted
	DatasetPatch{Title: &title, Visibility: &vis}.Apply(&d)

	assert.Equal(t, "new", d.Title)
	assert.Equal(t, "keep", d.Description)
	assert.Equal(t, VisibilityRestricted, d.Visibility)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, VisibilityConfidential.Valid())
	assert.False(t, Visibility("secret").Valid())
	assert.True(t, StatusHighRisk.Valid())
	assert.False(t, PDPAStatus("done").Valid())
	assert.True(t, Format("").Valid())
	assert.False(t, Format("pdf").Valid())
}
