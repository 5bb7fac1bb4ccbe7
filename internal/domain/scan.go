package domain

import (
	"time"

	"github.com/invalder/OpenDGAi/internal/pdpa"
)

// ScanStatusCompleted marks a scan whose result was persisted.
const ScanStatusCompleted = "completed"

// ScanResult is one persisted PDPA scan of a dataset.
type ScanResult struct {
	ID          string
	DatasetID   string
	Profile     string
	RiskScore   int
	Findings    []pdpa.Detection
	Summary     []pdpa.Finding
	RecordCount int
	Status      string
	CreatedBy   string
	ScannedAt   time.Time
}
