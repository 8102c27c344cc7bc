package db

import "github.com/kailas-cloud/vetsearch/internal/domain/search/filter"

// Scorer names an FT.SEARCH scoring function.
type Scorer string

const (
	// ScorerBM25 is Okapi BM25.
	ScorerBM25 Scorer = "BM25"
	// ScorerDisMax sums the frequencies of matched terms, which for an
	// impact-quantized field is the sum of term impacts.
	ScorerDisMax Scorer = "DISMAX"
)

// DefaultVectorField is the hash field holding the embedding.
const DefaultVectorField = "vector"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Where        *filter.Predicate
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for scored full-text search. Query is already in
// RediSearch syntax; callers escape user text.
type TextQuery struct {
	IndexName    string
	Query        string
	Scorer       Scorer
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
