package retrieval

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

// DefaultCandidateFactor is how many chunk hits per requested document the
// multi-vector adapter fetches before collapsing.
const DefaultCandidateFactor = 4

// vectorStore is the consumer interface for the vector store (ISP).
type vectorStore interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// DenseAdapter runs single-vector KNN over one embedding per document.
type DenseAdapter struct {
	store     vectorStore
	embedder  domain.Embedder
	index     string
	keyPrefix string
}

// NewDense creates the dense single-vector adapter.
func NewDense(s vectorStore, e domain.Embedder, index, keyPrefix string) *DenseAdapter {
	return &DenseAdapter{store: s, embedder: e, index: index, keyPrefix: keyPrefix}
}

// Backend returns backend.DenseVector.
func (a *DenseAdapter) Backend() backend.Backend { return backend.DenseVector }

// Search embeds the query text and returns the nearest documents.
func (a *DenseAdapter) Search(ctx context.Context, q *query.Query) result.ResultSet {
	vec, err := embedQuery(ctx, a.embedder, q)
	if err != nil {
		return result.Failure(backend.DenseVector, err)
	}

	sr, err := a.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    a.index,
		Where:        filter.ToVectorWhere(q.Filters()),
		Vector:       vec,
		K:            q.TopK(),
		ReturnFields: documentReturnFields(),
	})
	if err != nil {
		return result.Failure(backend.DenseVector, fmt.Errorf("dense search: %w", err))
	}
	return result.Success(backend.DenseVector, normalize(sr, a.keyPrefix, q.TopK()))
}

// MultiVectorAdapter runs KNN over chunk vectors, several per document, and
// scores each document by its best chunk.
type MultiVectorAdapter struct {
	store           vectorStore
	embedder        domain.Embedder
	index           string
	candidateFactor int
}

// NewMultiVector creates the multi-vector adapter. Chunk hashes carry the
// parent id in doc_id along with the parent's contents and metadata.
func NewMultiVector(s vectorStore, e domain.Embedder, index string, candidateFactor int) *MultiVectorAdapter {
	if candidateFactor < 1 {
		candidateFactor = DefaultCandidateFactor
	}
	return &MultiVectorAdapter{store: s, embedder: e, index: index, candidateFactor: candidateFactor}
}

// Backend returns backend.MultiVector.
func (a *MultiVectorAdapter) Backend() backend.Backend { return backend.MultiVector }

// Search embeds the query as a single vector, fetches topK*candidateFactor
// chunks and collapses them to at most topK documents.
func (a *MultiVectorAdapter) Search(ctx context.Context, q *query.Query) result.ResultSet {
	vec, err := embedQuery(ctx, a.embedder, q)
	if err != nil {
		return result.Failure(backend.MultiVector, err)
	}

	sr, err := a.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    a.index,
		Where:        filter.ToVectorWhere(q.Filters()),
		Vector:       vec,
		K:            q.TopK() * a.candidateFactor,
		ReturnFields: documentReturnFields(FieldDocID),
	})
	if err != nil {
		return result.Failure(backend.MultiVector, fmt.Errorf("multi-vector search: %w", err))
	}
	return result.Success(backend.MultiVector, collapseChunks(sr, q.TopK()))
}

// collapseChunks keeps the best-scoring chunk per parent document, ordered by
// that score (stable on first appearance), truncated to topK.
func collapseChunks(sr *db.SearchResult, topK int) []result.Document {
	if sr == nil || len(sr.Entries) == 0 {
		return []result.Document{}
	}

	pos := make(map[string]int, len(sr.Entries))
	docs := make([]result.Document, 0, len(sr.Entries))
	for i := range sr.Entries {
		e := &sr.Entries[i]
		parent := e.Fields[FieldDocID]
		if parent == "" {
			parent = e.Fields[FieldID]
		}
		if parent == "" {
			parent = e.Key
		}

		d := result.NewDocument(parent, e.Score, e.Fields[FieldContents], result.MetadataFromMap(e.Fields))
		if j, ok := pos[parent]; ok {
			if e.Score > docs[j].Score() {
				docs[j] = d
			}
			continue
		}
		pos[parent] = len(docs)
		docs = append(docs, d)
	}

	slices.SortStableFunc(docs, func(a, b result.Document) int {
		switch {
		case a.Score() > b.Score():
			return -1
		case a.Score() < b.Score():
			return 1
		default:
			return 0
		}
	})

	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs
}

func embedQuery(ctx context.Context, e domain.Embedder, q *query.Query) ([]float32, error) {
	res, err := e.Embed(ctx, q.Text())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("embed query: %w: empty embedding", domain.ErrEmbeddingProviderError)
	}
	return res.Embedding, nil
}
