// Package history models the record kept for every combined search.
package history

import (
	"time"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

// Hit is a stored copy of one ranked document.
type Hit struct {
	ID       string
	Score    float64
	Contents string
	Metadata result.Metadata
}

// Record captures a combined search: the request and every backend's ranked list.
type Record struct {
	ID        string
	CreatedAt time.Time
	Query     string
	Filters   map[string]string
	TopK      int
	// Results and Errors are keyed by backend name. Errors holds the failure
	// kind only; the detail stays in the degraded-backend log.
	Results map[string][]Hit
	Errors  map[string]string
}

// FromOutcome builds a record from a finished orchestration.
func FromOutcome(id string, at time.Time, o *result.Outcome) Record {
	rec := Record{
		ID:        id,
		CreatedAt: at.UTC(),
		Query:     o.Query.Text(),
		Filters:   o.Query.Filters().Map(),
		TopK:      o.Query.TopK(),
		Results:   make(map[string][]Hit, len(o.Results)),
	}
	for _, b := range backend.All() {
		rs, ok := o.Results[b]
		if !ok {
			continue
		}
		hits := make([]Hit, 0, len(rs.Documents))
		for i := range rs.Documents {
			d := &rs.Documents[i]
			hits = append(hits, Hit{ID: d.ID(), Score: d.Score(), Contents: d.Contents(), Metadata: d.Metadata()})
		}
		rec.Results[b.String()] = hits
		if rs.Err != nil {
			if rec.Errors == nil {
				rec.Errors = make(map[string]string)
			}
			rec.Errors[b.String()] = string(rs.Err.Kind)
		}
	}
	return rec
}
