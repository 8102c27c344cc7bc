package valkey

import (
	"context"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/db/ftsearch"
)

// IndexExists probes index existence via FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(name).Build()).Error(); err != nil {
		if isMissingIndex(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// SupportsTextSearch returns false: valkey-search indexes only TAG, NUMERIC and VECTOR.
func (s *Store) SupportsTextSearch(_ context.Context) bool {
	return false
}

func isMissingIndex(err error) bool {
	return ftsearch.IsRedisErr(err, "not found") ||
		ftsearch.IsRedisErr(err, "unknown index name") ||
		ftsearch.IsRedisErr(err, "no such index")
}
