package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/vetsearch/internal/domain"
)

// MaxSharedCall bounds one provider call made on behalf of several callers.
const MaxSharedCall = 30 * time.Second

// SharedEmbedder collapses concurrent embeddings of the same text into one
// provider call. A combined search embeds its query from the dense and the
// multi-vector backend at the same time.
//
// The provider call keeps the first caller's context values (token usage,
// logger) but not its cancellation, so joined callers are not failed by
// another caller's deadline. Every caller still stops waiting at its own.
type SharedEmbedder struct {
	inner domain.Embedder
	group singleflight.Group
}

// NewSharedEmbedder wraps inner.
func NewSharedEmbedder(inner domain.Embedder) *SharedEmbedder {
	return &SharedEmbedder{inner: inner}
}

// Embed returns the embedding of text, joining an in-flight call for the same
// text when there is one. Tokens are accounted once, on the request that
// started the call.
func (e *SharedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ch := e.group.DoChan(text, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), MaxSharedCall)
		defer cancel()
		return e.inner.Embed(callCtx, text)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("shared embed: %w", res.Err)
		}
		out, _ := res.Val.(domain.EmbeddingResult)
		if res.Shared {
			// Joined requests consumed no tokens but did use the embedder.
			domain.UsageFromContext(ctx).AddTokens(0)
		}
		return out, nil
	case <-ctx.Done():
		return domain.EmbeddingResult{}, fmt.Errorf("shared embed: %w", ctx.Err())
	}
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (e *SharedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
