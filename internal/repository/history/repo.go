package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/domain"
	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
)

const keyPrefix = "history:"

// store is the consumer interface over the embedded KV backend (ISP).
type store interface {
	Put(key, value []byte, ttl time.Duration) error
	Get(key []byte) ([]byte, error)
	ScanReverse(prefix []byte, limit int, fn func(key, value []byte) bool) error
}

// Repo persists search records. Record ids are time-ordered, so reverse key
// order is newest first.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a history repository. Records expire after ttl when ttl > 0.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save stores rec under its id.
func (r *Repo) Save(_ context.Context, rec *dom.Record) error {
	if rec.ID == "" {
		return errors.New("history record id is required")
	}
	data, err := json.Marshal(toDTO(rec))
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	if err := r.store.Put([]byte(keyPrefix+rec.ID), data, r.ttl); err != nil {
		return fmt.Errorf("save history record %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads one record.
func (r *Repo) Get(_ context.Context, id string) (dom.Record, error) {
	data, err := r.store.Get([]byte(keyPrefix + id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dom.Record{}, fmt.Errorf("history record %s: %w", id, domain.ErrRecordNotFound)
		}
		return dom.Record{}, fmt.Errorf("get history record %s: %w", id, err)
	}
	var d recordDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return dom.Record{}, fmt.Errorf("decode history record %s: %w", id, err)
	}
	return d.toDomain(), nil
}

// Recent returns up to limit records, newest first. Undecodable entries are skipped.
func (r *Repo) Recent(ctx context.Context, limit int) ([]dom.Record, error) {
	out := make([]dom.Record, 0, limit)
	err := r.store.ScanReverse([]byte(keyPrefix), 0, func(_, value []byte) bool {
		if ctx.Err() != nil {
			return false
		}
		var d recordDTO
		if err := json.Unmarshal(value, &d); err != nil {
			return true
		}
		out = append(out, d.toDomain())
		return len(out) < limit
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
