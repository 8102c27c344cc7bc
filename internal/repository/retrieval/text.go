package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

// ImpactField is the TEXT field of the uniCOIL index. Each term is repeated
// in proportion to its quantized impact weight.
const ImpactField = "impacts"

// textStore is the consumer interface for full-text engines (ISP).
type textStore interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// TextAdapter queries a RediSearch TEXT index. It serves both the BM25 and the
// uniCOIL engine, which differ in the searched field and the scorer.
type TextAdapter struct {
	backend   backend.Backend
	store     textStore
	index     string
	keyPrefix string
	field     string
	scorer    db.Scorer
}

// NewLexical creates the BM25 adapter over the contents field.
func NewLexical(s textStore, index, keyPrefix string) *TextAdapter {
	return &TextAdapter{
		backend:   backend.Lexical,
		store:     s,
		index:     index,
		keyPrefix: keyPrefix,
		field:     FieldContents,
		scorer:    db.ScorerBM25,
	}
}

// NewSparseImpact creates the uniCOIL adapter. DISMAX sums matched term
// frequencies, which on the impact field equals the sum of term impacts.
func NewSparseImpact(s textStore, index, keyPrefix string) *TextAdapter {
	return &TextAdapter{
		backend:   backend.SparseImpact,
		store:     s,
		index:     index,
		keyPrefix: keyPrefix,
		field:     ImpactField,
		scorer:    db.ScorerDisMax,
	}
}

// Backend returns the engine this adapter serves.
func (a *TextAdapter) Backend() backend.Backend { return a.backend }

// Search runs q against the index. Failures are reported in the result set.
func (a *TextAdapter) Search(ctx context.Context, q *query.Query) result.ResultSet {
	text, err := TextQuery(a.field, q)
	if err != nil {
		return result.Failure(a.backend, err)
	}

	sr, err := a.store.SearchText(ctx, &db.TextQuery{
		IndexName:    a.index,
		Query:        text,
		Scorer:       a.scorer,
		TopK:         q.TopK(),
		ReturnFields: documentReturnFields(),
	})
	if err != nil {
		return result.Failure(a.backend, fmt.Errorf("%s search: %w", a.backend, err))
	}
	return result.Success(a.backend, normalize(sr, a.keyPrefix, q.TopK()))
}

// TextQuery renders the free text as a disjunction of escaped terms over field,
// followed by the filter clauses, which RediSearch intersects with the text part.
func TextQuery(field string, q *query.Query) (string, error) {
	terms := strings.Fields(q.Text())
	escaped := make([]string, 0, len(terms))
	for _, t := range terms {
		escaped = append(escaped, filter.EscapeText(t))
	}
	if len(escaped) == 0 {
		return "", fmt.Errorf("%w: query has no searchable terms", db.ErrInvalidQuery)
	}

	var sb strings.Builder
	sb.WriteString("@")
	sb.WriteString(field)
	sb.WriteString(":(")
	sb.WriteString(strings.Join(escaped, " | "))
	sb.WriteString(")")
	if clause := filter.ToLexicalQuery(q.Filters()); clause != "" {
		sb.WriteString(" ")
		sb.WriteString(clause)
	}
	return sb.String(), nil
}
