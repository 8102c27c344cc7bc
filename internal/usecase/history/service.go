package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

// Listing limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// DefaultWorkers is the write pool size when none is configured.
const DefaultWorkers = 4

const (
	saveTimeout  = 5 * time.Second
	drainTimeout = 10 * time.Second
)

// Service records combined searches in the background and serves them back.
// A nil *Service is a disabled history: Record is a no-op and reads return
// ErrHistoryDisabled.
type Service struct {
	repo   Repository
	pool   *ants.Pool
	logger *zap.Logger
	now    func() time.Time
}

// New creates the history service with a non-blocking write pool of the given size.
func New(repo Repository, workers int, logger *zap.Logger) (*Service, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create history pool: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, pool: pool, logger: logger, now: time.Now}, nil
}

// Record snapshots outcome and stores it asynchronously. It never blocks the
// caller; when the pool is saturated the record is dropped with a warning.
func (s *Service) Record(ctx context.Context, outcome *result.Outcome) {
	if s == nil || outcome == nil {
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		s.logger.Warn("History id generation failed", zap.Error(err))
		return
	}
	rec := dom.FromOutcome(id.String(), s.now(), outcome)

	// The request context ends with the response; the write outlives it.
	saveCtx := context.WithoutCancel(ctx)
	err = s.pool.Submit(func() {
		c, cancel := context.WithTimeout(saveCtx, saveTimeout)
		defer cancel()
		if err := s.repo.Save(c, &rec); err != nil {
			s.logger.Warn("History write failed", zap.String("record_id", rec.ID), zap.Error(err))
		}
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			s.logger.Warn("History pool saturated, record dropped", zap.String("record_id", rec.ID))
			return
		}
		s.logger.Warn("History submit failed", zap.String("record_id", rec.ID), zap.Error(err))
	}
}

// Recent returns up to limit records, newest first. limit <= 0 selects
// DefaultLimit; larger than MaxLimit is an invalid request.
func (s *Service) Recent(ctx context.Context, limit int) ([]dom.Record, error) {
	if s == nil {
		return nil, domain.ErrHistoryDisabled
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", domain.ErrInvalidRequest, MaxLimit, limit)
	}
	recs, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	return recs, nil
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id string) (dom.Record, error) {
	if s == nil {
		return dom.Record{}, domain.ErrHistoryDisabled
	}
	if _, err := uuid.Parse(id); err != nil {
		return dom.Record{}, fmt.Errorf("%w: malformed record id", domain.ErrInvalidRequest)
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return dom.Record{}, fmt.Errorf("get history: %w", err)
	}
	return rec, nil
}

// Close waits for pending writes and releases the pool.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	if err := s.pool.ReleaseTimeout(drainTimeout); err != nil {
		return fmt.Errorf("drain history pool: %w", err)
	}
	return nil
}
