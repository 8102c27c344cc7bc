package result

import (
	"context"
	"errors"

	"github.com/kailas-cloud/vetsearch/internal/domain"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
)

// ErrorKind classifies a backend failure.
type ErrorKind string

// Backend failure kinds.
const (
	KindUnavailable ErrorKind = "backend_unavailable"
	KindTimeout     ErrorKind = "backend_timeout"
)

// ErrorInfo describes why a backend produced no documents.
type ErrorInfo struct {
	Kind    ErrorKind
	Message string
}

func (e *ErrorInfo) Error() string { return string(e.Kind) + ": " + e.Message }

// Unwrap maps the kind onto the domain sentinel so errors.Is works on ErrorInfo.
func (e *ErrorInfo) Unwrap() error {
	if e.Kind == KindTimeout {
		return domain.ErrBackendTimeout
	}
	return domain.ErrBackendUnavailable
}

// NewErrorInfo classifies err. Deadline expiry becomes a timeout, anything else
// an unavailable backend.
func NewErrorInfo(err error) *ErrorInfo {
	kind := KindUnavailable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrBackendTimeout) {
		kind = KindTimeout
	}
	return &ErrorInfo{Kind: kind, Message: err.Error()}
}

// ResultSet is the outcome of one backend call: documents in native rank order,
// or an error with no documents.
type ResultSet struct {
	Backend   backend.Backend
	Documents []Document
	Err       *ErrorInfo
}

// Success wraps documents returned by a backend.
func Success(b backend.Backend, docs []Document) ResultSet {
	if docs == nil {
		docs = []Document{}
	}
	return ResultSet{Backend: b, Documents: docs}
}

// Failure records a failed backend call with an empty document list.
func Failure(b backend.Backend, err error) ResultSet {
	return ResultSet{Backend: b, Documents: []Document{}, Err: NewErrorInfo(err)}
}

// Failed reports whether the call errored.
func (r ResultSet) Failed() bool { return r.Err != nil }

// Outcome holds the per-backend results of one orchestration call.
type Outcome struct {
	Query   query.Query
	Results map[backend.Backend]ResultSet
}

// FailedBackends returns the backends whose result set carries an error, in
// combined-response order.
func (o *Outcome) FailedBackends() []backend.Backend {
	var failed []backend.Backend
	for _, b := range backend.All() {
		if rs, ok := o.Results[b]; ok && rs.Failed() {
			failed = append(failed, b)
		}
	}
	return failed
}
