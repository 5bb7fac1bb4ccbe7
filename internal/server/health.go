package server

import (
	"context"
	"fmt"
	"sort"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is anything with a cheap connectivity check: stores, caches.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyHealthService pings every registered dependency in name order
// and reports the first failure.
type DependencyHealthService struct {
	Checks map[string]Pinger
}

// Probe implements the HealthService interface.
func (s DependencyHealthService) Probe(ctx context.Context) error {
	names := make([]string, 0, len(s.Checks))
	for name := range s.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := s.Checks[name]
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
