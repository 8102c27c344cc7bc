package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
	"github.com/kailas-cloud/vetsearch/internal/logger"
)

// DefaultBackendTimeout bounds a single backend call when no timeout is configured.
const DefaultBackendTimeout = 5 * time.Second

// StatusSuccess is the observer status for a backend call that returned documents.
const StatusSuccess = "success"

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the per-backend deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithObserver attaches a per-backend call observer (metrics).
func WithObserver(o BackendObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithRecorder attaches a recorder for combined search outcomes.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger used for degraded backend warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service dispatches a query to one or all retrieval backends.
type Service struct {
	adapters map[backend.Backend]Adapter
	timeout  time.Duration
	observer BackendObserver
	recorder Recorder
	logger   *zap.Logger
}

// New creates the orchestrator. Adapters are keyed by the backend they report;
// a backend without an adapter always fails as unavailable.
func New(adapters []Adapter, opts ...Option) *Service {
	s := &Service{
		adapters: make(map[backend.Backend]Adapter, len(adapters)),
		timeout:  DefaultBackendTimeout,
		logger:   zap.NewNop(),
	}
	for _, a := range adapters {
		s.adapters[a.Backend()] = a
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs exactly one backend. A failed call returns the errored ResultSet
// together with an error wrapping ErrBackendUnavailable or ErrBackendTimeout.
func (s *Service) Execute(ctx context.Context, q *query.Query, b backend.Backend) (result.ResultSet, error) {
	if !b.IsValid() {
		return result.ResultSet{}, fmt.Errorf("%w: %d", domain.ErrUnknownMethod, b)
	}
	rs := s.run(ctx, q, b)
	if rs.Failed() {
		s.warnDegraded(ctx, rs)
		return rs, fmt.Errorf("%s backend: %w", b, rs.Err)
	}
	return rs, nil
}

// ExecuteAll runs every backend concurrently, each under its own deadline.
// Failed backends contribute an empty errored ResultSet. The call returns once
// all backends have settled; if every one failed it also returns an error
// wrapping ErrAllBackendsFailed.
func (s *Service) ExecuteAll(ctx context.Context, q *query.Query) (*result.Outcome, error) {
	all := backend.All()
	sets := make([]result.ResultSet, len(all))

	var wg sync.WaitGroup
	for i, b := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sets[i] = s.run(ctx, q, b)
		}()
	}
	wg.Wait()

	outcome := &result.Outcome{
		Query:   *q,
		Results: make(map[backend.Backend]result.ResultSet, len(all)),
	}
	for _, rs := range sets {
		outcome.Results[rs.Backend] = rs
		if rs.Failed() {
			s.warnDegraded(ctx, rs)
		}
	}

	if failed := outcome.FailedBackends(); len(failed) == len(all) {
		return outcome, fmt.Errorf("%w: %d of %d backends failed", domain.ErrAllBackendsFailed, len(failed), len(all))
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, outcome)
	}
	return outcome, nil
}

// run calls one adapter under the per-backend deadline. When the deadline
// expires first the adapter is abandoned and a timeout is recorded.
func (s *Service) run(ctx context.Context, q *query.Query, b backend.Backend) result.ResultSet {
	start := time.Now()
	rs := s.call(ctx, q, b)
	rs.Backend = b
	if s.observer != nil {
		status := StatusSuccess
		if rs.Failed() {
			status = string(rs.Err.Kind)
		}
		s.observer.ObserveBackend(b, status, time.Since(start))
	}
	return rs
}

func (s *Service) call(ctx context.Context, q *query.Query, b backend.Backend) result.ResultSet {
	a, ok := s.adapters[b]
	if !ok {
		return result.Failure(b, fmt.Errorf("%w: %s backend not configured", domain.ErrBackendUnavailable, b))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan result.ResultSet, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result.Failure(b, fmt.Errorf("%w: panic: %v", domain.ErrBackendUnavailable, r))
			}
		}()
		done <- a.Search(callCtx, q)
	}()

	select {
	case rs := <-done:
		return rs
	case <-callCtx.Done():
		err := callCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: no response within %s", domain.ErrBackendTimeout, s.timeout)
		} else {
			err = fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
		}
		return result.Failure(b, err)
	}
}

func (s *Service) warnDegraded(ctx context.Context, rs result.ResultSet) {
	logger.FromContextOr(ctx, s.logger).Warn("Backend degraded",
		zap.String("backend", rs.Backend.String()),
		zap.String("kind", string(rs.Err.Kind)),
		zap.String("detail", rs.Err.Message),
		zap.Bool("client_gone", ctx.Err() != nil),
	)
}
