package redis

import (
	"context"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/db/ftsearch"
)

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if ftsearch.IsRedisErr(err, "unknown index name") || ftsearch.IsRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// SupportsTextSearch returns true: Redis 8+ supports TEXT fields and scorers.
func (s *Store) SupportsTextSearch(_ context.Context) bool {
	return true
}
