// Package pdpa detects personal data covered by Thailand's Personal Data
// Protection Act in tabular records and turns the matches into a bounded
// 0-100 risk score.
//
// Two named profiles share one engine. The aggregate profile classifies each
// value into at most one category and weighs national IDs double. The
// detailed profile tests every category independently, records one redacted
// detection per match and weighs all matches equally. The two do not agree
// on weights or on address coverage; both are kept as configured.
package pdpa

import "context"

var (
	aggregateEngine = mustEngine(AggregateProfile())
	detailedEngine  = mustEngine(DetailedProfile())
)

func mustEngine(p Profile) *Engine {
	e, err := NewEngine(p)
	if err != nil {
		panic(err)
	}
	return e
}

// Score runs the aggregate profile over records.
func Score(records []Record) RiskScoreResult {
	return aggregateEngine.Score(records)
}

// ScanForPII runs the detailed profile over records.
func ScanForPII(ctx context.Context, records []Record) (DetectionResult, error) {
	return detailedEngine.Scan(ctx, records)
}
