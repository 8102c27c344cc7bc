// Package ollama embeds queries through a local Ollama server via langchaingo.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/metrics"
)

const provider = "ollama"

// Config holds the Ollama connection settings.
type Config struct {
	ServerURL string
	Model     string
	Logger    *zap.Logger
}

// Embedder implements domain.Embedder on top of a langchaingo embedder.
type Embedder struct {
	embedder  embeddings.Embedder
	serverURL string
	model     string
	http      *http.Client
	logger    *zap.Logger
}

// NewEmbedder creates an Ollama-backed embedder.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("ollama model is required")
	}
	opts := []lcollama.Option{lcollama.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, lcollama.WithServerURL(cfg.ServerURL))
	}
	client, err := lcollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		embedder:  emb,
		serverURL: cfg.ServerURL,
		model:     cfg.Model,
		http:      &http.Client{Timeout: 5 * time.Second},
		logger:    logger,
	}, nil
}

// Embed implements domain.Embedder. Ollama reports no token usage.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	vec, err := e.embedder.EmbedQuery(ctx, text)
	duration := time.Since(start)

	if err != nil {
		e.fail("api_error")
		e.logger.Debug("Ollama embedding failed", zap.String("model", e.model), zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("ollama embed: %w: %w", domain.ErrEmbeddingProviderError, ctxErr)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("ollama embed: %s: %w", err.Error(), domain.ErrEmbeddingProviderError)
	}
	if len(vec) == 0 {
		e.fail("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(duration.Seconds())
	return domain.EmbeddingResult{Embedding: vec}, nil
}

func (e *Embedder) fail(errorType string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, errorType).Inc()
}

// HealthCheck probes the server root, which answers 200 when Ollama is up.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	url := e.serverURL
	if url == "" {
		url = "http://localhost:11434"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build ollama probe: %w", err)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama probe: status %d", resp.StatusCode)
	}
	return nil
}
