package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/config"
	"github.com/kailas-cloud/vetsearch/internal/db"
	dbBadger "github.com/kailas-cloud/vetsearch/internal/db/badger"
	dbRedis "github.com/kailas-cloud/vetsearch/internal/db/redis"
	dbValkey "github.com/kailas-cloud/vetsearch/internal/db/valkey"
	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/metrics"
	"github.com/kailas-cloud/vetsearch/internal/repository/embcache"
	historyrepo "github.com/kailas-cloud/vetsearch/internal/repository/history"
	"github.com/kailas-cloud/vetsearch/internal/repository/retrieval"
	ollamaEmb "github.com/kailas-cloud/vetsearch/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/vetsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/vetsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vetsearch/internal/usecase/health"
	historyuc "github.com/kailas-cloud/vetsearch/internal/usecase/history"
	searchuc "github.com/kailas-cloud/vetsearch/internal/usecase/search"
)

// app is the composition root: every process-wide client is created here once
// and released by Close in reverse order.
type app struct {
	search  *searchuc.Service
	history *historyuc.Service
	health  *healthuc.Service
	closers []func() error
	logger  *zap.Logger
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterBackendMetrics()
	metrics.RegisterHTTPMetrics()

	lexical, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create lexical store: %w", err)
	}
	a.onClose(func() error { lexical.Close(); return nil })

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := lexical.WaitForReady(ctx, readiness); err != nil {
		return nil, fmt.Errorf("lexical store not ready: %w", err)
	}
	logger.Info("Connected to lexical store", zap.Strings("addrs", cfg.Database.Addrs))

	vector, err := openVectorStore(ctx, cfg, lexical, readiness)
	if err != nil {
		return nil, err
	}
	if vector != db.Store(lexical) {
		a.onClose(func() error { vector.Close(); return nil })
	}
	logger.Info("Connected to vector store",
		zap.String("driver", cfg.VectorStore.Driver),
		zap.Strings("addrs", cfg.VectorStore.Addrs),
	)

	embedder, err := buildEmbedder(cfg, lexical, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("cache", cfg.Embedding.CacheEnabled),
	)

	idx := cfg.Indexes
	adapters := []searchuc.Adapter{
		retrieval.NewLexical(lexical, idx.BM25, idx.KeyPrefix),
		retrieval.NewSparseImpact(lexical, idx.UniCOIL, idx.KeyPrefix),
		retrieval.NewDense(vector, embedder, idx.Dense, idx.KeyPrefix),
		retrieval.NewMultiVector(vector, embedder, idx.MultiVector, cfg.Search.MultiVectorCandidateFactor),
	}

	opts := []searchuc.Option{
		searchuc.WithTimeout(cfg.Search.BackendTimeout()),
		searchuc.WithObserver(metrics.BackendObserver{}),
		searchuc.WithLogger(logger),
	}

	var historyStore *dbBadger.Backend
	if cfg.History.Enabled {
		historyStore, err = dbBadger.Open(dbBadger.Config{
			Path:     cfg.History.Path,
			InMemory: cfg.History.InMemory,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.onClose(historyStore.Close)

		a.history, err = historyuc.New(historyrepo.New(historyStore, cfg.History.Retention()), cfg.History.Workers, logger)
		if err != nil {
			return nil, err
		}
		a.onClose(a.history.Close)
		opts = append(opts, searchuc.WithRecorder(a.history))
		logger.Info("Search history enabled",
			zap.String("path", cfg.History.Path),
			zap.Bool("in_memory", cfg.History.InMemory),
			zap.Duration("retention", cfg.History.Retention()),
		)
	}

	a.search = searchuc.New(adapters, opts...)

	a.health = healthuc.New().
		Register("lexical_store", healthuc.Ping(lexical)).
		Register("vector_store", healthuc.Ping(vector)).
		Register("index:bm25", healthuc.Index(lexical, idx.BM25)).
		Register("index:unicoil", healthuc.Index(lexical, idx.UniCOIL)).
		Register("index:dense", healthuc.Index(vector, idx.Dense)).
		Register("index:multi_vector", healthuc.Index(vector, idx.MultiVector))
	if hc, ok := embedder.(domain.HealthChecker); ok {
		a.health.Register("embedding", healthuc.Embedding(hc))
	}
	if historyStore != nil {
		a.health.Register("history", healthuc.CheckerFunc(func(context.Context) error {
			return historyStore.Ping()
		}))
	}

	return a, nil
}

// openVectorStore connects the KNN store. A redis driver on the lexical
// store's addresses shares that client.
func openVectorStore(ctx context.Context, cfg *config.Config, lexical *dbRedis.Store, readiness time.Duration) (db.Store, error) {
	vc := cfg.VectorStore
	var (
		store db.Store
		err   error
	)
	switch vc.Driver {
	case config.DriverValkey:
		store, err = dbValkey.NewStore(dbValkey.Config{Addrs: vc.Addrs, Password: vc.Password})
	case config.DriverRedis:
		if slices.Equal(vc.Addrs, cfg.Database.Addrs) && vc.Password == cfg.Database.Password {
			return lexical, nil
		}
		store, err = dbRedis.NewStore(dbRedis.Config{Addrs: vc.Addrs, Password: vc.Password})
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", vc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("vector store not ready: %w", err)
	}
	return store, nil
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented -> instruction -> shared.
func buildEmbedder(cfg *config.Config, cache *dbRedis.Store, logger *zap.Logger) (domain.Embedder, error) {
	ec := cfg.Embedding

	var base domain.Embedder
	switch ec.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
	case config.ProviderOllama:
		emb, err := ollamaEmb.NewEmbedder(&ollamaEmb.Config{
			ServerURL: ec.BaseURL,
			Model:     ec.Model,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}
		base = emb
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}

	embedder := base
	if ec.CacheEnabled {
		embedder = embcache.New(base, cache, embcache.Options{
			Namespace: ec.Provider + ":" + ec.Model,
			TTL:       ec.CacheTTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)

	// Outermost, so the cache key includes the instruction.
	if ec.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, ec.QueryInstruction)
	}
	// Dense and multi-vector embed the same query concurrently.
	return embeddinguc.NewSharedEmbedder(embedder), nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse creation order.
func (a *app) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("Error during close", zap.Error(err))
	}
}
