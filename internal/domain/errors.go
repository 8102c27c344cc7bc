package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals malformed query text, an out-of-range top_k or a bad filter.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidFilterField signals a filter key outside the known metadata schema.
	ErrInvalidFilterField = fmt.Errorf("%w: invalid filter field", ErrInvalidRequest)
	// ErrUnknownMethod signals a search method outside the supported set.
	ErrUnknownMethod = fmt.Errorf("%w: unknown search method", ErrInvalidRequest)

	// ErrBackendUnavailable signals a connection or transport failure to a retrieval backend.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendTimeout signals a backend that did not answer before its deadline.
	ErrBackendTimeout = errors.New("backend timeout")
	// ErrAllBackendsFailed signals a combined search in which every backend failed.
	ErrAllBackendsFailed = errors.New("all backends failed")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrHistoryDisabled signals that search history recording is switched off.
	ErrHistoryDisabled = errors.New("search history disabled")
	// ErrRecordNotFound signals a search history record that does not exist or has expired.
	ErrRecordNotFound = errors.New("search record not found")
)
