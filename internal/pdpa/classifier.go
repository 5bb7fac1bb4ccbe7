package pdpa

import "context"

// Classifier is an optional pass that runs after the pattern scan and may
// report detections the patterns cannot see. Implementations must honour ctx;
// the engine abandons a classifier once its timeout expires.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, records []Record) ([]Detection, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc struct {
	ID string
	Fn func(ctx context.Context, records []Record) ([]Detection, error)
}

func (c ClassifierFunc) Name() string { return c.ID }

func (c ClassifierFunc) Classify(ctx context.Context, records []Record) ([]Detection, error) {
	return c.Fn(ctx, records)
}
