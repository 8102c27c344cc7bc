package db

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
)

func TestRenderPredicate(t *testing.T) {
	tests := []struct {
		name string
		p    *filter.Predicate
		want string
	}{
		{"nil", nil, ""},
		{
			"leaf",
			&filter.Predicate{Operator: filter.OperatorEqual, Path: []string{"strand"}, ValueString: "Surgery"},
			"@strand:{Surgery}",
		},
		{
			"single operand and",
			&filter.Predicate{Operator: filter.OperatorAnd, Operands: []filter.Predicate{
				{Operator: filter.OperatorEqual, Path: []string{"course_id"}, ValueString: "VET101"},
			}},
			"@course_id:{VET101}",
		},
		{
			"two operands",
			&filter.Predicate{Operator: filter.OperatorAnd, Operands: []filter.Predicate{
				{Operator: filter.OperatorEqual, Path: []string{"course_id"}, ValueString: "VET101"},
				{Operator: filter.OperatorEqual, Path: []string{"strand"}, ValueString: "Internal Medicine"},
			}},
			`@course_id:{VET101} @strand:{Internal\ Medicine}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderPredicate(tc.p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderPredicate_FromFilter(t *testing.T) {
	f, err := filter.Parse(map[string]string{"strand": "Surgery", "activity_id": "A1"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := RenderPredicate(filter.ToVectorWhere(f))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "@activity_id:{A1} @strand:{Surgery}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderPredicate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    *filter.Predicate
	}{
		{"empty and", &filter.Predicate{Operator: filter.OperatorAnd}},
		{"leaf without path", &filter.Predicate{Operator: filter.OperatorEqual, ValueString: "x"}},
		{"unknown operator", &filter.Predicate{Operator: "Or"}},
		{"nested invalid", &filter.Predicate{Operator: filter.OperatorAnd, Operands: []filter.Predicate{{Operator: "Like"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RenderPredicate(tc.p)
			if !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}
