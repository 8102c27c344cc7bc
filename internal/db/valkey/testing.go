package valkey

import (
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vetsearch/internal/db/conn"
)

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{Conn: conn.Wrap(c, engine)}
}
