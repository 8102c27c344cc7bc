package retrieval

import (
	"testing"

	"github.com/kailas-cloud/vetsearch/internal/db"
)

func TestNormalize_FullMetadataSchema(t *testing.T) {
	sr := &db.SearchResult{Entries: []db.SearchEntry{
		entry("p:doc-1", 1.5, map[string]string{"contents": "c", "strand": "Surgery", "extra": "dropped"}),
	}}
	docs := normalize(sr, "p:", 10)
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	m := docs[0].Metadata().AsMap()
	for _, k := range []string{"course_id", "activity_id", "course_name", "activity_name", "strand"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing metadata key %s", k)
		}
	}
	if _, ok := m["extra"]; ok {
		t.Error("unknown fields must not leak into metadata")
	}
	if docs[0].ID() != "doc-1" {
		t.Errorf("expected prefix trimmed from key, got %q", docs[0].ID())
	}
}

func TestNormalize_NilResult(t *testing.T) {
	if docs := normalize(nil, "", 3); docs == nil || len(docs) != 0 {
		t.Errorf("expected empty slice, got %v", docs)
	}
}

func TestDocumentReturnFields(t *testing.T) {
	fields := documentReturnFields(FieldDocID)
	if fields[0] != FieldID || fields[1] != FieldContents || fields[len(fields)-1] != FieldDocID {
		t.Errorf("unexpected return fields %v", fields)
	}
	if len(fields) != 8 {
		t.Errorf("expected 8 fields, got %d", len(fields))
	}
}
