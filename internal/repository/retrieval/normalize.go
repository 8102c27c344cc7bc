package retrieval

import (
	"strings"

	"github.com/kailas-cloud/vetsearch/internal/db"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vetsearch/internal/domain/search/result"
)

// Stored hash fields shared by every index.
const (
	FieldID       = "id"
	FieldContents = "contents"
	// FieldDocID links a multi-vector chunk to its parent document.
	FieldDocID = "doc_id"
)

func documentReturnFields(extra ...string) []string {
	fields := make([]string, 0, 2+len(filter.KnownFields())+len(extra))
	fields = append(fields, FieldID, FieldContents)
	fields = append(fields, filter.KnownFields()...)
	return append(fields, extra...)
}

// normalize maps raw hits into scored documents in the order given, keeping at
// most topK. Scores pass through untouched.
func normalize(sr *db.SearchResult, keyPrefix string, topK int) []result.Document {
	if sr == nil || len(sr.Entries) == 0 {
		return []result.Document{}
	}
	n := min(len(sr.Entries), topK)
	docs := make([]result.Document, 0, n)
	for i := range sr.Entries[:n] {
		docs = append(docs, normalizeEntry(&sr.Entries[i], keyPrefix))
	}
	return docs
}

func normalizeEntry(e *db.SearchEntry, keyPrefix string) result.Document {
	return result.NewDocument(
		entryID(e, keyPrefix),
		e.Score,
		e.Fields[FieldContents],
		result.MetadataFromMap(e.Fields),
	)
}

// entryID prefers the stored id field and falls back to the key without its prefix.
func entryID(e *db.SearchEntry, keyPrefix string) string {
	if id := e.Fields[FieldID]; id != "" {
		return id
	}
	return strings.TrimPrefix(e.Key, keyPrefix)
}
