package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/events"
	"github.com/invalder/OpenDGAi/internal/metrics"
	"github.com/invalder/OpenDGAi/internal/pdpa"
)

const (
	defaultHighRiskThreshold = 50
	defaultMaxRecords        = 10000
	anonymousRequester       = "anonymous"
)

// ScanRequest asks for a PDPA scan of sample records belonging to a dataset.
type ScanRequest struct {
	DatasetID   string
	Records     []pdpa.Record
	RequestedBy string
	// Profile overrides the configured default when set.
	Profile string
}

// ScanOutcome is the persisted scan together with the updated dataset.
type ScanOutcome struct {
	Scan    domain.ScanResult
	Dataset domain.Dataset
}

// ScanOptions configures a ScanService. Zero values fall back to defaults.
type ScanOptions struct {
	Profiles          pdpa.Profiles
	DefaultProfile    string
	HighRiskThreshold int
	MaxRecords        int
	ClassifierTimeout time.Duration
	Classifiers       []pdpa.Classifier
	Publisher         events.Publisher
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
}

// ScanService runs PDPA scans, persists results and updates dataset status.
type ScanService struct {
	store          DatasetStore
	engines        map[string]*pdpa.Engine
	profileNames   []string
	defaultProfile string
	threshold      int
	maxRecords     int
	publisher      events.Publisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	nowFn          func() time.Time
	idFn           func() string
}

// NewScanService builds one engine per registered profile.
func NewScanService(store DatasetStore, opts ScanOptions) (*ScanService, error) {
	if opts.Profiles == nil {
		opts.Profiles = pdpa.DefaultProfiles()
	}
	if opts.DefaultProfile == "" {
		opts.DefaultProfile = pdpa.ProfileDetailed
	}
	if opts.HighRiskThreshold <= 0 {
		opts.HighRiskThreshold = defaultHighRiskThreshold
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = defaultMaxRecords
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "scan_service")

	if _, ok := opts.Profiles[opts.DefaultProfile]; !ok {
		return nil, fmt.Errorf("default profile: %w: %s", pdpa.ErrUnknownProfile, opts.DefaultProfile)
	}
	if _, ok := opts.Profiles[pdpa.ProfileAggregate]; !ok {
		return nil, fmt.Errorf("preview profile: %w: %s", pdpa.ErrUnknownProfile, pdpa.ProfileAggregate)
	}

	engines := make(map[string]*pdpa.Engine, len(opts.Profiles))
	for _, name := range opts.Profiles.Names() {
		profile, err := opts.Profiles.Get(name)
		if err != nil {
			return nil, err
		}
		engine, err := pdpa.NewEngine(profile,
			pdpa.WithClassifiers(opts.Classifiers...),
			pdpa.WithClassifierTimeout(opts.ClassifierTimeout),
			pdpa.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("build engine %s: %w", name, err)
		}
		engines[name] = engine
	}

	return &ScanService{
		store:          store,
		engines:        engines,
		profileNames:   opts.Profiles.Names(),
		defaultProfile: opts.DefaultProfile,
		threshold:      opts.HighRiskThreshold,
		maxRecords:     opts.MaxRecords,
		publisher:      opts.Publisher,
		metrics:        opts.Metrics,
		logger:         logger,
		nowFn:          time.Now,
		idFn:           uuid.NewString,
	}, nil
}

// WithClock overrides the time provider (used primarily in tests).
func (s *ScanService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// DefaultProfile is the profile Trigger runs when the request names none.
func (s *ScanService) DefaultProfile() string {
	return s.defaultProfile
}

// Threshold is the score above which a dataset is marked high risk.
func (s *ScanService) Threshold() int {
	return s.threshold
}

// Trigger scans the records, stores the result and moves the dataset to
// high_risk or compliant.
func (s *ScanService) Trigger(ctx context.Context, req ScanRequest) (ScanOutcome, error) {
	datasetID := sanitizeString(req.DatasetID)
	if datasetID == "" {
		return ScanOutcome{}, fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	// An empty batch is a valid scan with a zero score; only a missing one is rejected.
	if req.Records == nil {
		return ScanOutcome{}, fmt.Errorf("%w: records are required", domain.ErrInvalidInput)
	}
	if len(req.Records) > s.maxRecords {
		return ScanOutcome{}, fmt.Errorf("%w: %d records exceeds the limit of %d", domain.ErrInvalidInput, len(req.Records), s.maxRecords)
	}
	profile := req.Profile
	if profile == "" {
		profile = s.defaultProfile
	}
	engine, ok := s.engines[profile]
	if !ok {
		return ScanOutcome{}, fmt.Errorf("%w: %w: %s", domain.ErrInvalidInput, pdpa.ErrUnknownProfile, profile)
	}
	requestedBy := sanitizeString(req.RequestedBy)
	if requestedBy == "" {
		requestedBy = anonymousRequester
	}

	dataset, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return ScanOutcome{}, err
	}

	result, err := engine.Scan(ctx, req.Records)
	if err != nil {
		return ScanOutcome{}, fmt.Errorf("scan dataset %s: %w", datasetID, err)
	}

	now := s.nowFn().UTC()
	scan := domain.ScanResult{
		ID:          s.idFn(),
		DatasetID:   datasetID,
		Profile:     profile,
		RiskScore:   result.RiskScore,
		Findings:    result.Findings,
		Summary:     pdpa.Summarize(result.Findings),
		RecordCount: len(req.Records),
		Status:      domain.ScanStatusCompleted,
		CreatedBy:   requestedBy,
		ScannedAt:   now,
	}
	if err := s.store.SaveScanResult(ctx, scan); err != nil {
		return ScanOutcome{}, fmt.Errorf("save scan for dataset %s: %w", datasetID, err)
	}

	dataset.PDPAStatus = domain.StatusForScore(result.RiskScore, s.threshold)
	dataset.LastScanAt = &now
	dataset.UpdatedAt = now
	if err := s.store.UpdateDataset(ctx, dataset); err != nil {
		return ScanOutcome{}, fmt.Errorf("update dataset %s status: %w", datasetID, err)
	}

	piiTypes := make([]string, 0, len(scan.Findings))
	for _, f := range scan.Findings {
		piiTypes = append(piiTypes, f.PIIType)
	}
	s.metrics.ObserveScan(string(dataset.PDPAStatus), scan.RiskScore, piiTypes)

	event := events.ScanCompleted{
		EventID:      s.idFn(),
		DatasetID:    datasetID,
		ScanID:       scan.ID,
		Profile:      profile,
		RiskScore:    scan.RiskScore,
		PDPAStatus:   string(dataset.PDPAStatus),
		FindingCount: len(scan.Findings),
		OccurredAt:   now,
	}
	if err := s.publisher.PublishScanCompleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish scan event", "dataset_id", datasetID, "scan_id", scan.ID, "error", err)
	}

	s.logger.Info("scan completed",
		"dataset_id", datasetID,
		"scan_id", scan.ID,
		"profile", profile,
		"risk_score", scan.RiskScore,
		"findings", len(scan.Findings),
		"status", dataset.PDPAStatus,
	)
	return ScanOutcome{Scan: scan, Dataset: dataset}, nil
}

// Latest returns the most recent scan of a dataset.
func (s *ScanService) Latest(ctx context.Context, datasetID string) (domain.ScanResult, error) {
	datasetID = sanitizeString(datasetID)
	if datasetID == "" {
		return domain.ScanResult{}, fmt.Errorf("%w: dataset id is required", domain.ErrInvalidInput)
	}
	return s.store.LatestScanResult(ctx, datasetID)
}

// Preview scores records with the aggregate profile without persisting anything.
func (s *ScanService) Preview(records []pdpa.Record) (pdpa.RiskScoreResult, error) {
	if len(records) > s.maxRecords {
		return pdpa.RiskScoreResult{}, fmt.Errorf("%w: %d records exceeds the limit of %d", domain.ErrInvalidInput, len(records), s.maxRecords)
	}
	return s.engines[pdpa.ProfileAggregate].Score(records), nil
}

// Profiles lists the scan profiles the service can run, sorted.
func (s *ScanService) Profiles() []string {
	return append([]string(nil), s.profileNames...)
}
