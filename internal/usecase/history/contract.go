package history

import (
	"context"

	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
)

// Repository persists and reads search records.
type Repository interface {
	Save(ctx context.Context, rec *dom.Record) error
	Get(ctx context.Context, id string) (dom.Record, error)
	Recent(ctx context.Context, limit int) ([]dom.Record, error)
}
