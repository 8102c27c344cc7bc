// Package backend enumerates the retrieval engines a query can be dispatched to.
package backend

import (
	"fmt"

	"github.com/kailas-cloud/vetsearch/internal/domain"
)

// Backend is a closed enumeration of retrieval engines.
type Backend int

// Retrieval backends, in the order the combined endpoint reports them.
const (
	// Lexical is BM25 ranked keyword search.
	Lexical Backend = iota + 1
	// SparseImpact is learned term-impact search (uniCOIL).
	SparseImpact
	// DenseVector is single-vector nearest-neighbor search.
	DenseVector
	// MultiVector is nearest-neighbor search over several vectors per document.
	MultiVector
)

type descriptor struct {
	name   string // internal identifier, used in logs and metrics
	method string // URL path segment
	label  string // search_method echoed to clients
	field  string // key of the combined response payload
}

var descriptors = map[Backend]descriptor{
	Lexical:      {name: "lexical", method: "bm25", label: "BM25", field: "bm25_results"},
	SparseImpact: {name: "sparse_impact", method: "unicoil", label: "uniCOIL", field: "unicoil_results"},
	DenseVector:  {name: "dense_vector", method: "dense", label: "Dense BGE-M3", field: "dense_results"},
	MultiVector: {
		name: "multi_vector", method: "multivector", label: "Multi-vector BGE-M3", field: "multi_vector_results",
	},
}

// All returns every backend in combined-response order.
func All() []Backend {
	return []Backend{Lexical, SparseImpact, DenseVector, MultiVector}
}

// FromMethod resolves a URL method segment (bm25, unicoil, dense, multivector).
func FromMethod(method string) (Backend, error) {
	for _, b := range All() {
		if descriptors[b].method == method {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
}

// IsValid reports whether b is one of the four known backends.
func (b Backend) IsValid() bool {
	_, ok := descriptors[b]
	return ok
}

// String returns the internal identifier.
func (b Backend) String() string {
	if d, ok := descriptors[b]; ok {
		return d.name
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// Method returns the URL path segment.
func (b Backend) Method() string { return descriptors[b].method }

// Label returns the human-readable search_method label.
func (b Backend) Label() string { return descriptors[b].label }

// ResultField returns the key this backend occupies in the combined payload.
func (b Backend) ResultField() string { return descriptors[b].field }
