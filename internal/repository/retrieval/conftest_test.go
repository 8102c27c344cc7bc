package retrieval

import (
	"context"
	"testing"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
)

// mockStore implements both consumer interfaces for tests.
type mockStore struct {
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchKNNFn  func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	lastText     *db.TextQuery
	lastKNN      *db.KNNQuery
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.lastText = q
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
	text  string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.text = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

func mustQuery(t *testing.T, text string, filters map[string]string, topK int) *query.Query {
	t.Helper()
	f, err := filter.Parse(filters)
	if err != nil {
		t.Fatalf("filter.Parse: %v", err)
	}
	q, err := query.New(text, f, topK, 100)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return &q
}

func entry(key string, score float64, fields map[string]string) db.SearchEntry {
	return db.SearchEntry{Key: key, Score: score, Fields: fields}
}
