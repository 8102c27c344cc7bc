// Package embcache keeps query embeddings in the Redis/Valkey store that also
// serves the lexical indexes.
//
// Only query text passes through here. Documents are embedded offline when
// the indexes are built, so the cache never sees corpus text and every entry
// is one user query under one model.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/domain"
)

// Keys are vetsearch:qvec:<sha256 hex>; the raw query never appears in a key.
var cacheKeyPrefix = domain.KeyPrefix + "qvec:"

// store is the slice of the Redis store the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Set(ctx context.Context, key string, value []byte) error
}

// Options tune the cache.
type Options struct {
	// Namespace is hashed into every key. Use provider:model so a model
	// switch never serves vectors of the wrong dimension or space.
	Namespace string
	// TTL expires cached query vectors; zero keeps them forever.
	TTL time.Duration
}

// CachedEmbedder serves repeated queries from the store instead of the
// provider. It sits below the instruction decorator, so the text it hashes
// already carries the query instruction: changing the instruction changes
// every key.
//
// Store failures never fail a search. A broken read is a miss and a broken
// write is logged.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	opts    Options
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. lookups counts by label "result" ("hit" or "miss") and may be nil.
func New(
	inner domain.Embedder,
	s store,
	opts Options,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:   inner,
		store:   s,
		opts:    opts,
		lookups: lookups,
		logger:  logger,
	}
}

// Embed returns the vector for a query. A hit reports zero tokens, so the
// X-Embedding-Tokens header reflects provider spend only.
func (c *CachedEmbedder) Embed(ctx context.Context, query string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(query)

	if vec, ok := c.load(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	res, err := c.inner.Embed(ctx, query)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w", err)
	}
	c.save(ctx, key, res.Embedding)
	return res, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

func (c *CachedEmbedder) count(outcome string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(outcome).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(c.opts.Namespace + "\x00" + query))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) load(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Query vector cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case len(raw) == 0:
		return nil, false
	}

	vec, err := decodeVector(raw)
	if err != nil {
		c.logger.Warn("Dropping malformed cached query vector", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	raw := vectorToCacheBytes(vec)

	var err error
	if c.opts.TTL > 0 {
		err = c.store.SetWithTTL(ctx, key, raw, c.opts.TTL)
	} else {
		err = c.store.Set(ctx, key, raw)
	}
	if err != nil {
		c.logger.Warn("Query vector cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// vectorToCacheBytes packs float32s little-endian, the layout the vector
// indexes use for their BLOB params.
func vectorToCacheBytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v[i]))
	}
	return out
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("cached query vector has %d bytes, not a multiple of 4", len(raw))
	}
	v := make([]float32, len(raw)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return v, nil
}
