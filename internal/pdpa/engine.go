package pdpa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"
	"unicode/utf8"
)

const defaultClassifierTimeout = 5 * time.Second

var (
	nationalIDSearch = regexp.MustCompile(`\b\d{13}\b`)
	emailSearch      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneSearch      = regexp.MustCompile(`\b0\d{8,9}\b`)
)

// Finding is the aggregate view: one entry per category with its total count.
type Finding struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// RiskScoreResult is returned by Engine.Score.
type RiskScoreResult struct {
	Score    int       `json:"score"`
	Findings []Finding `json:"findings"`
}

// Detection is the detailed view: one entry per positive match.
type Detection struct {
	FieldName  string      `json:"fieldName"`
	RowNumber  int         `json:"rowNumber"`
	PIIType    string      `json:"piiType"`
	Confidence float64     `json:"confidence"`
	Sample     string      `json:"sample"`
	Category   Sensitivity `json:"category"`
}

// DetectionResult is returned by Engine.Scan.
type DetectionResult struct {
	RiskScore int         `json:"riskScore"`
	Findings  []Detection `json:"findings"`
}

// Engine classifies record values according to a Profile. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	profile           Profile
	classifiers       []Classifier
	classifierTimeout time.Duration
	logger            *slog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithClassifiers registers additional classification passes for Scan.
func WithClassifiers(classifiers ...Classifier) Option {
	return func(e *Engine) {
		e.classifiers = append(e.classifiers, classifiers...)
	}
}

// WithClassifierTimeout bounds each additional classifier call.
func WithClassifierTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.classifierTimeout = d
		}
	}
}

// WithLogger sets the logger used to report skipped classifier passes.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine validates the profile and builds an engine around it.
func NewEngine(profile Profile, opts ...Option) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		profile:           profile.clone(),
		classifierTimeout: defaultClassifierTimeout,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Profile returns a copy of the engine's profile.
func (e *Engine) Profile() Profile {
	return e.profile.clone()
}

type match struct {
	row      int
	field    string
	category Category
	value    string
}

// Score returns per-category counts and the weighted, capped score.
func (e *Engine) Score(records []Record) RiskScoreResult {
	matches := e.collect(records)

	order := make([]Category, 0, len(e.profile.Categories))
	counts := make(map[Category]int, len(e.profile.Categories))
	for _, m := range matches {
		if _, ok := counts[m.category]; !ok {
			order = append(order, m.category)
		}
		counts[m.category]++
	}

	raw := 0
	findings := make([]Finding, 0, len(order))
	for _, c := range order {
		raw += counts[c] * e.profile.weight(c)
		findings = append(findings, Finding{Type: c.Label(), Count: counts[c]})
	}

	return RiskScoreResult{
		Score:    e.capScore(raw),
		Findings: findings,
	}
}

// Scan returns one detection per match together with the capped risk score.
// Additional classifiers run after the pattern pass; any that fail or time
// out are skipped. The only error is a context that is already done.
func (e *Engine) Scan(ctx context.Context, records []Record) (DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return DetectionResult{}, err
	}

	matches := e.collect(records)
	findings := make([]Detection, 0, len(matches))
	for _, m := range matches {
		findings = append(findings, Detection{
			FieldName:  m.field,
			RowNumber:  m.row,
			PIIType:    string(m.category),
			Confidence: e.profile.confidence(m.category),
			Sample:     Redact(m.category, m.value),
			Category:   SensitivityGeneral,
		})
	}

	for _, c := range e.classifiers {
		extra, err := e.runClassifier(ctx, c, records)
		if err != nil {
			e.logger.Warn("skipping classifier pass", "classifier", c.Name(), "error", err)
			continue
		}
		findings = append(findings, extra...)
	}

	raw := 0
	for _, d := range findings {
		raw += e.profile.weight(Category(d.PIIType))
	}

	return DetectionResult{
		RiskScore: e.capScore(raw),
		Findings:  findings,
	}, nil
}

func (e *Engine) runClassifier(ctx context.Context, c Classifier, records []Record) ([]Detection, error) {
	cctx, cancel := context.WithTimeout(ctx, e.classifierTimeout)
	defer cancel()

	type outcome struct {
		detections []Detection
		err        error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("classifier panicked: %v", r)}
			}
		}()
		d, err := c.Classify(cctx, records)
		done <- outcome{detections: d, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return normalizeDetections(out.detections, len(records)), nil
	case <-cctx.Done():
		return nil, cctx.Err()
	}
}

// normalizeDetections drops entries pointing outside the input and keeps
// confidence within [0,1].
func normalizeDetections(in []Detection, rows int) []Detection {
	out := make([]Detection, 0, len(in))
	for _, d := range in {
		if d.RowNumber < 0 || d.RowNumber >= rows || d.PIIType == "" {
			continue
		}
		if d.Confidence < 0 {
			d.Confidence = 0
		}
		if d.Confidence > 1 {
			d.Confidence = 1
		}
		if d.Category == "" {
			d.Category = SensitivityGeneral
		}
		out = append(out, d)
	}
	return out
}

func (e *Engine) collect(records []Record) []match {
	var matches []match
	for row, record := range records {
		for _, field := range record.Fields() {
			text := Stringify(record[field])
			for _, c := range e.profile.Categories {
				value, ok := e.test(c, text)
				if !ok {
					continue
				}
				matches = append(matches, match{row: row, field: field, category: c, value: value})
				if e.profile.Mode == ModeExclusive {
					break
				}
			}
		}
	}
	return matches
}

// test reports whether text belongs to category c and returns the matched part.
func (e *Engine) test(c Category, text string) (string, bool) {
	if c == CategoryAddress && utf8.RuneCountInString(text) <= e.profile.AddressMinLength {
		return "", false
	}
	if e.profile.Match == MatchWholeValue {
		return text, wholeValueMatch(c, text)
	}
	return substringMatch(c, text)
}

func wholeValueMatch(c Category, text string) bool {
	switch c {
	case CategoryNationalID:
		return IsValidThaiNationalID(text)
	case CategoryEmail:
		return IsLikelyEmail(text)
	case CategoryPhone:
		return IsLikelyThaiPhone(text)
	case CategoryAddress:
		return LooksLikeAddress(text)
	default:
		return false
	}
}

func substringMatch(c Category, text string) (string, bool) {
	switch c {
	case CategoryNationalID:
		// The pattern only prefilters; an ID counts when it is the whole value.
		if nationalIDSearch.MatchString(text) && IsValidThaiNationalID(text) {
			return text, true
		}
		return "", false
	case CategoryEmail:
		m := emailSearch.FindString(text)
		return m, m != ""
	case CategoryPhone:
		m := phoneSearch.FindString(text)
		return m, m != ""
	case CategoryAddress:
		if LooksLikeAddress(text) {
			return text, true
		}
		return "", false
	default:
		return "", false
	}
}

func (e *Engine) capScore(raw int) int {
	if raw < 0 {
		return 0
	}
	if raw > e.profile.MaxScore {
		return e.profile.MaxScore
	}
	return raw
}

// Summarize folds detections into aggregate findings, first-seen order.
func Summarize(detections []Detection) []Finding {
	order := make([]string, 0)
	counts := make(map[string]int)
	for _, d := range detections {
		label := Category(d.PIIType).Label()
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}
	findings := make([]Finding, 0, len(order))
	for _, label := range order {
		findings = append(findings, Finding{Type: label, Count: counts[label]})
	}
	return findings
}
