// Package events publishes domain events about completed PDPA scans.
package events

import (
	"context"
	"time"
)

// TypeScanCompleted is the event type header value for ScanCompleted.
const TypeScanCompleted = "pdpa.scan.completed"

// ScanCompleted is emitted after a scan result has been persisted.
type ScanCompleted struct {
	EventID      string    `json:"eventId"`
	DatasetID    string    `json:"datasetId"`
	ScanID       string    `json:"scanId"`
	Profile      string    `json:"profile"`
	RiskScore    int       `json:"riskScore"`
	PDPAStatus   string    `json:"pdpaStatus"`
	FindingCount int       `json:"findingCount"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Publisher delivers scan events.
type Publisher interface {
	PublishScanCompleted(ctx context.Context, event ScanCompleted) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishScanCompleted(context.Context, ScanCompleted) error { return nil }

func (NopPublisher) Close() error { return nil }
