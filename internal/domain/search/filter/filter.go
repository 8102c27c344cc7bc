package filter

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/vetsearch/internal/domain"
)

// Metadata field names shared by every index.
const (
	FieldCourseID     = "course_id"
	FieldActivityID   = "activity_id"
	FieldCourseName   = "course_name"
	FieldActivityName = "activity_name"
	FieldStrand       = "strand"
)

// MaxValueLength bounds a single filter value.
const MaxValueLength = 256

var knownFields = []string{
	FieldCourseID, FieldActivityID, FieldCourseName, FieldActivityName, FieldStrand,
}

// KnownFields returns the metadata schema in canonical order.
func KnownFields() []string {
	return slices.Clone(knownFields)
}

// IsKnownField reports whether name belongs to the metadata schema.
func IsKnownField(name string) bool {
	return slices.Contains(knownFields, name)
}

// Op is a comparison operator. Only equality is supported by every backend.
type Op string

// Equality matches a field value exactly.
const Equality Op = "eq"

// Clause is a single equality constraint on a metadata field.
type Clause struct {
	field string
	value string
	op    Op
}

// NewEqual creates an equality clause over a known metadata field.
func NewEqual(field, value string) (Clause, error) {
	if !IsKnownField(field) {
		return Clause{}, fmt.Errorf("%w: %q", domain.ErrInvalidFilterField, field)
	}
	if value == "" {
		return Clause{}, fmt.Errorf("%w: empty value for filter %q", domain.ErrInvalidRequest, field)
	}
	if len(value) > MaxValueLength {
		return Clause{}, fmt.Errorf("%w: filter %q value too long (max %d)",
			domain.ErrInvalidRequest, field, MaxValueLength)
	}
	return Clause{field: field, value: value, op: Equality}, nil
}

// Field returns the metadata field name.
func (c Clause) Field() string { return c.field }

// Value returns the value to match.
func (c Clause) Value() string { return c.value }

// Op returns the comparison operator.
func (c Clause) Op() Op { return c.op }

// Filter is an ordered set of clauses combined with logical AND.
type Filter struct {
	clauses []Clause
}

// Parse validates raw request filters. Clauses are ordered by field name so that
// translation is deterministic regardless of map iteration order.
func Parse(raw map[string]string) (Filter, error) {
	if len(raw) == 0 {
		return Filter{}, nil
	}

	fields := make([]string, 0, len(raw))
	for k := range raw {
		fields = append(fields, k)
	}
	slices.Sort(fields)

	clauses := make([]Clause, 0, len(fields))
	for _, f := range fields {
		c, err := NewEqual(f, raw[f])
		if err != nil {
			return Filter{}, err
		}
		clauses = append(clauses, c)
	}
	return Filter{clauses: clauses}, nil
}

// Clauses returns a copy of the clauses in order.
func (f Filter) Clauses() []Clause { return slices.Clone(f.clauses) }

// IsEmpty reports whether the filter has no clauses.
func (f Filter) IsEmpty() bool { return len(f.clauses) == 0 }

// Len returns the number of clauses.
func (f Filter) Len() int { return len(f.clauses) }

// Fields returns the constrained field names in clause order.
func (f Filter) Fields() []string {
	out := make([]string, len(f.clauses))
	for i, c := range f.clauses {
		out[i] = c.field
	}
	return out
}

// Map returns the filter as field -> value, nil when empty.
func (f Filter) Map() map[string]string {
	if f.IsEmpty() {
		return nil
	}
	m := make(map[string]string, len(f.clauses))
	for _, c := range f.clauses {
		m[c.field] = c.value
	}
	return m
}
