package redis

import (
	"context"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/db/ftsearch"
)

// SearchKNN runs a KNN vector similarity search via FT.SEARCH.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	args, err := ftsearch.KNNArgs(q, true)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, s.searchErr(err)
	}

	return ftsearch.ParseKNN(raw)
}

// SearchText runs a scored full-text search via FT.SEARCH ... SCORER ... WITHSCORES.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	args, err := ftsearch.TextArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, s.searchErr(err)
	}

	return ftsearch.ParseText(raw)
}

func (s *Store) searchErr(err error) error {
	if ftsearch.IsRedisErr(err, "no such index") || ftsearch.IsRedisErr(err, "unknown index name") {
		return &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	return &db.Error{Op: db.OpSearch, Err: err}
}
