package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/logger"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeBadRequest             = "bad_request"
	CodeValidationFailed       = "validation_failed"
	CodeInvalidFilterField     = "invalid_filter_field"
	CodeUnknownMethod          = "unknown_method"
	CodeUnauthorized           = "unauthorized"
	CodeRateLimited            = "rate_limited"
	CodeBackendUnavailable     = "backend_unavailable"
	CodeBackendTimeout         = "backend_timeout"
	CodeAllBackendsFailed      = "all_backends_failed"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeHistoryDisabled        = "history_disabled"
	CodeNotFound               = "not_found"
	CodeInternalError          = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// defaultErrorHandlers is ordered: narrower sentinels precede the ones they wrap.
func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidFilterField, http.StatusBadRequest, CodeInvalidFilterField),
		sentinelHandler(domain.ErrUnknownMethod, http.StatusBadRequest, CodeUnknownMethod),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrAllBackendsFailed, http.StatusInternalServerError, CodeAllBackendsFailed),
		sentinelHandler(domain.ErrBackendTimeout, http.StatusInternalServerError, CodeBackendTimeout),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusInternalServerError, CodeBackendUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusInternalServerError, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrHistoryDisabled, http.StatusNotImplemented, CodeHistoryDisabled),
	}
}

// clientSentinels carry a message safe to echo verbatim; the rest collapse to
// their sentinel text.
var clientSentinels = []error{
	domain.ErrInvalidFilterField,
	domain.ErrUnknownMethod,
	domain.ErrInvalidRequest,
}

var serverSentinels = []error{
	domain.ErrRateLimited,
	domain.ErrAllBackendsFailed,
	domain.ErrBackendTimeout,
	domain.ErrBackendUnavailable,
	domain.ErrEmbeddingProviderError,
	domain.ErrRecordNotFound,
	domain.ErrHistoryDisabled,
}

// safeDomainMessage returns an error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range clientSentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	for _, s := range serverSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Code: code, Detail: detail})
}
