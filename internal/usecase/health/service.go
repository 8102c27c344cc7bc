package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each individual check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type namedChecker struct {
	name    string
	checker Checker
}

// Service coordinates health checks.
type Service struct {
	checks  []namedChecker
	timeout time.Duration
}

// New creates a Service with no checks registered.
func New() *Service {
	return &Service{timeout: DefaultCheckTimeout}
}

// Register adds a named check. Nil checkers are ignored.
func (s *Service) Register(name string, c Checker) *Service {
	if c != nil {
		s.checks = append(s.checks, namedChecker{name: name, checker: c})
	}
	return s
}

// Names returns registered check names in sorted order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checks))
	for _, c := range s.checks {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}

// Check runs all checks concurrently. Status is Healthy when all pass,
// Unhealthy when all fail and Degraded otherwise.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.checks))

	var wg sync.WaitGroup
	for i, c := range s.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := c.checker.Check(cctx); err != nil {
				results[i] = CheckError
				return
			}
			results[i] = CheckOK
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(s.checks))
	failed := 0
	for i, c := range s.checks {
		checks[c.name] = results[i]
		if results[i] == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

// Ping adapts a store to Checker.
func Ping(p Pinger) Checker {
	return CheckerFunc(p.Ping)
}

// Embedding adapts an embedding provider to Checker.
func Embedding(e EmbeddingChecker) Checker {
	return CheckerFunc(e.HealthCheck)
}

// Index reports an error when the named index is missing.
func Index(inspector IndexInspector, name string) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		ok, err := inspector.IndexExists(ctx, name)
		if err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
		if !ok {
			return fmt.Errorf("index %s does not exist", name)
		}
		return nil
	})
}
