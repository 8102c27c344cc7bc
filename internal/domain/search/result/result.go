package result

import (
	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
)

// Metadata is the fixed metadata schema carried by every document. Absent
// values are the empty string, never missing keys.
type Metadata struct {
	CourseID     string
	ActivityID   string
	CourseName   string
	ActivityName string
	Strand       string
}

// MetadataFromMap picks the schema fields out of a raw field map.
func MetadataFromMap(m map[string]string) Metadata {
	return Metadata{
		CourseID:     m[filter.FieldCourseID],
		ActivityID:   m[filter.FieldActivityID],
		CourseName:   m[filter.FieldCourseName],
		ActivityName: m[filter.FieldActivityName],
		Strand:       m[filter.FieldStrand],
	}
}

// Get returns the value of a schema field, "" for unknown names.
func (m Metadata) Get(field string) string {
	switch field {
	case filter.FieldCourseID:
		return m.CourseID
	case filter.FieldActivityID:
		return m.ActivityID
	case filter.FieldCourseName:
		return m.CourseName
	case filter.FieldActivityName:
		return m.ActivityName
	case filter.FieldStrand:
		return m.Strand
	default:
		return ""
	}
}

// AsMap returns all schema fields, including empty ones.
func (m Metadata) AsMap() map[string]string {
	out := make(map[string]string, 5)
	for _, f := range filter.KnownFields() {
		out[f] = m.Get(f)
	}
	return out
}

// Document is a single ranked hit. The score is on the backend's native scale.
type Document struct {
	id       string
	score    float64
	contents string
	metadata Metadata
}

// NewDocument creates a scored document.
func NewDocument(id string, score float64, contents string, metadata Metadata) Document {
	return Document{id: id, score: score, contents: contents, metadata: metadata}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Score returns the backend-native relevance score.
func (d *Document) Score() float64 { return d.score }

// Contents returns the document text.
func (d *Document) Contents() string { return d.contents }

// Metadata returns the document metadata.
func (d *Document) Metadata() Metadata { return d.metadata }
