package valkey

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/db/conn"
)

var _ db.Store = (*Store)(nil)

const engine = "valkey"

// Config holds connection parameters for a Valkey store.
type Config struct {
	Addrs    []string
	Username string
	Password string
}

// Store implements db.Store for Valkey with the valkey-search module. Only
// vector search is available; text search is rejected.
type Store struct {
	*conn.Conn
}

// NewStore creates a Valkey store.
func NewStore(cfg Config) (*Store, error) {
	c, err := conn.Dial(conn.Options{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		Engine:   engine,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey store: %w", err)
	}
	return &Store{Conn: c}, nil
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.B()
}
