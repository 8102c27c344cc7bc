package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

// Adapter runs one retrieval backend. Failures are reported inside the
// returned ResultSet, never by panicking or returning partial documents.
type Adapter interface {
	Backend() backend.Backend
	Search(ctx context.Context, q *query.Query) result.ResultSet
}

// BackendObserver receives one observation per backend call.
type BackendObserver interface {
	ObserveBackend(b backend.Backend, status string, d time.Duration)
}

// Recorder persists combined search outcomes. Record must not block the caller.
type Recorder interface {
	Record(ctx context.Context, outcome *result.Outcome)
}
