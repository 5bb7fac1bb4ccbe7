package graph

import (
	"context"
	"errors"
	"time"
)

// Client is the contract the dataset graph store needs from the graph database.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	// ExecuteWriteBatch runs all statements in a single write transaction and
	// returns the result of the last one.
	ExecuteWriteBatch(ctx context.Context, statements []Statement) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Statement is one parameterised cypher query.
type Statement struct {
	Cypher string
	Params map[string]any
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// First returns the first record, if any.
func (r Result) First() (Record, bool) {
	if len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// String returns the value under key as a string, or "" when absent.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Int returns the value under key as an int. Bolt integers arrive as int64.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Int64 is Int without narrowing.
func (r Record) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Time parses RFC3339 strings and passes native temporal values through.
func (r Record) Time(key string) *time.Time {
	switch v := r[key].(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		t := v.UTC()
		return &t
	case string:
		if v == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil
		}
		t = t.UTC()
		return &t
	default:
		return nil
	}
}

// Strings returns a list value as strings, skipping non-string elements.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
