// Package response shapes search outcomes into the public JSON payloads.
package response

import (
	"strings"
	"time"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/backend"
	dom "github.com/kailas-cloud/vetsearch/internal/domain/search/history"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/query"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

// Hit is one ranked document, flat on the wire.
type Hit struct {
	ID           string  `json:"id"`
	Score        float64 `json:"score"`
	Contents     string  `json:"contents"`
	CourseID     string  `json:"course_id"`
	ActivityID   string  `json:"activity_id"`
	CourseName   string  `json:"course_name"`
	ActivityName string  `json:"activity_name"`
	Strand       string  `json:"strand"`
}

// Metadata echoes the request. SearchMethod is set for single-method responses only.
type Metadata struct {
	SearchMethod string            `json:"search_method,omitempty"`
	Query        string            `json:"query"`
	Filters      map[string]string `json:"filters"`
	TopK         int               `json:"top_k"`
}

// Single is the payload of POST /search/{method}.
type Single struct {
	Results  []Hit    `json:"results"`
	Metadata Metadata `json:"metadata"`
}

// Combined is the payload of POST /search/all.
type Combined struct {
	BM25Results        []Hit             `json:"bm25_results"`
	UniCOILResults     []Hit             `json:"unicoil_results"`
	DenseResults       []Hit             `json:"dense_results"`
	MultiVectorResults []Hit             `json:"multi_vector_results"`
	Metadata           Metadata          `json:"metadata"`
	Errors             map[string]string `json:"errors,omitempty"`
}

// Record is one stored combined search.
type Record struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Query     string            `json:"query"`
	Filters   map[string]string `json:"filters"`
	TopK      int               `json:"top_k"`
	Results   map[string][]Hit  `json:"results"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// History is the payload of GET /search/history.
type History struct {
	Records []Record `json:"records"`
}

// NewSingle formats one backend's result set.
func NewSingle(q *query.Query, rs *result.ResultSet) Single {
	md := metadataFor(q)
	md.SearchMethod = rs.Backend.Label()
	return Single{Results: hits(rs.Documents), Metadata: md}
}

// NewCombined formats an all-backend outcome. Failed backends appear as empty
// lists plus an entry in Errors keyed by method name.
func NewCombined(o *result.Outcome) Combined {
	c := Combined{Metadata: metadataFor(&o.Query)}
	for _, b := range backend.All() {
		rs := o.Results[b]
		list := hits(rs.Documents)
		switch b {
		case backend.Lexical:
			c.BM25Results = list
		case backend.SparseImpact:
			c.UniCOILResults = list
		case backend.DenseVector:
			c.DenseResults = list
		case backend.MultiVector:
			c.MultiVectorResults = list
		}
		if rs.Err != nil {
			if c.Errors == nil {
				c.Errors = make(map[string]string)
			}
			c.Errors[b.Method()] = string(rs.Err.Kind)
		}
	}
	return c
}

// NewHistory formats stored records. Result lists are keyed by response field.
func NewHistory(recs []dom.Record) History {
	out := History{Records: make([]Record, 0, len(recs))}
	for i := range recs {
		out.Records = append(out.Records, NewRecord(&recs[i]))
	}
	return out
}

// NewRecord formats one stored record.
func NewRecord(rec *dom.Record) Record {
	r := Record{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Query:     rec.Query,
		Filters:   rec.Filters,
		TopK:      rec.TopK,
		Results:   make(map[string][]Hit, len(rec.Results)),
	}
	for _, b := range backend.All() {
		stored, ok := rec.Results[b.String()]
		if !ok {
			continue
		}
		list := make([]Hit, 0, len(stored))
		for _, h := range stored {
			list = append(list, hit(h.ID, h.Score, h.Contents, h.Metadata))
		}
		r.Results[b.ResultField()] = list
		if msg, ok := rec.Errors[b.String()]; ok {
			if r.Errors == nil {
				r.Errors = make(map[string]string)
			}
			r.Errors[b.Method()] = errorKind(msg)
		}
	}
	return r
}

// errorKind reduces a stored backend error to its kind, so records written with
// a free-form message never expose store addresses or driver errors.
func errorKind(stored string) string {
	if strings.HasPrefix(stored, string(result.KindTimeout)) {
		return string(result.KindTimeout)
	}
	return string(result.KindUnavailable)
}

func metadataFor(q *query.Query) Metadata {
	return Metadata{
		Query:   q.Text(),
		Filters: q.Filters().Map(),
		TopK:    q.TopK(),
	}
}

func hits(docs []result.Document) []Hit {
	out := make([]Hit, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		out = append(out, hit(d.ID(), d.Score(), d.Contents(), d.Metadata()))
	}
	return out
}

func hit(id string, score float64, contents string, md result.Metadata) Hit {
	return Hit{
		ID:           id,
		Score:        score,
		Contents:     contents,
		CourseID:     md.CourseID,
		ActivityID:   md.ActivityID,
		CourseName:   md.CourseName,
		ActivityName: md.ActivityName,
		Strand:       md.Strand,
	}
}
