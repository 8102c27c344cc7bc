package history

import (
	"time"

	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

type recordDTO struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Query     string              `json:"query"`
	Filters   map[string]string   `json:"filters,omitempty"`
	TopK      int                 `json:"top_k"`
	Results   map[string][]hitDTO `json:"results"`
	Errors    map[string]string   `json:"errors,omitempty"`
}

type hitDTO struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Contents string            `json:"contents"`
	Metadata map[string]string `json:"metadata"`
}

func toDTO(r *dom.Record) recordDTO {
	out := recordDTO{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Query:     r.Query,
		Filters:   r.Filters,
		TopK:      r.TopK,
		Results:   make(map[string][]hitDTO, len(r.Results)),
		Errors:    r.Errors,
	}
	for name, hits := range r.Results {
		dh := make([]hitDTO, 0, len(hits))
		for _, h := range hits {
			dh = append(dh, hitDTO{ID: h.ID, Score: h.Score, Contents: h.Contents, Metadata: h.Metadata.AsMap()})
		}
		out.Results[name] = dh
	}
	return out
}

func (d *recordDTO) toDomain() dom.Record {
	rec := dom.Record{
		ID:        d.ID,
		CreatedAt: d.CreatedAt,
		Query:     d.Query,
		Filters:   d.Filters,
		TopK:      d.TopK,
		Results:   make(map[string][]dom.Hit, len(d.Results)),
		Errors:    d.Errors,
	}
	for name, hits := range d.Results {
		dh := make([]dom.Hit, 0, len(hits))
		for _, h := range hits {
			dh = append(dh, dom.Hit{
				ID:       h.ID,
				Score:    h.Score,
				Contents: h.Contents,
				Metadata: result.MetadataFromMap(h.Metadata),
			})
		}
		rec.Results[name] = dh
	}
	return rec
}
