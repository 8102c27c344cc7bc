package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	DefaultMaxTopK = 100
)

// Query is a validated, immutable search request shared by every backend.
type Query struct {
	text    string
	filters filter.Filter
	topK    int
}

// New validates search parameters. topK must lie in [1, maxTopK]; a non-positive
// maxTopK selects DefaultMaxTopK.
func New(text string, filters filter.Filter, topK, maxTopK int) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(text) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if maxTopK <= 0 {
		maxTopK = DefaultMaxTopK
	}
	if topK < 1 || topK > maxTopK {
		return Query{}, fmt.Errorf("%w: top_k must be between 1 and %d, got %d",
			domain.ErrInvalidRequest, maxTopK, topK)
	}
	return Query{text: text, filters: filters, topK: topK}, nil
}

// Text returns the free-text query.
func (q *Query) Text() string { return q.text }

// Filters returns the metadata filter.
func (q *Query) Filters() filter.Filter { return q.filters }

// TopK returns the per-backend result bound.
func (q *Query) TopK() int { return q.topK }
