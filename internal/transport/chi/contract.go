package chi

import (
	"context"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/vetsearch/internal/usecase/health"
)

// Searcher runs queries against one or all retrieval backends.
type Searcher interface {
	Execute(ctx context.Context, q *query.Query, b backend.Backend) (result.ResultSet, error)
	ExecuteAll(ctx context.Context, q *query.Query) (*result.Outcome, error)
}

// HistoryReader serves stored combined searches.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]dom.Record, error)
	Get(ctx context.Context, id string) (dom.Record, error)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
