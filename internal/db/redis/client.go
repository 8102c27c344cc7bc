package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/db/conn"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const engine = "redis"

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements db.Store for Redis 8+ with the query engine. It serves the
// lexical and sparse-impact indexes, the embedding cache and, when configured,
// the KNN indexes.
type Store struct {
	*conn.Conn
}

// NewStore creates a Redis store.
func NewStore(cfg Config) (*Store, error) {
	c, err := conn.Dial(conn.Options{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		Engine:   engine,
	})
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return &Store{Conn: c}, nil
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.B()
}
