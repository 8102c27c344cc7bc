package db

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vetsearch/internal/domain/search/filter"
)

// RenderPredicate turns a vector-store predicate tree into an FT.SEARCH
// pre-filter expression. An And renders as whitespace-joined operands, which
// the engine intersects; callers parenthesize the whole expression before
// attaching a KNN clause. A nil predicate renders as "".
func RenderPredicate(p *filter.Predicate) (string, error) {
	if p == nil {
		return "", nil
	}
	switch p.Operator {
	case filter.OperatorEqual:
		if len(p.Path) != 1 || p.Path[0] == "" {
			return "", fmt.Errorf("%w: equal predicate needs one path element", ErrInvalidQuery)
		}
		return filter.TagClause(p.Path[0], p.ValueString), nil
	case filter.OperatorAnd:
		if len(p.Operands) == 0 {
			return "", fmt.Errorf("%w: empty and predicate", ErrInvalidQuery)
		}
		parts := make([]string, 0, len(p.Operands))
		for i := range p.Operands {
			s, err := RenderPredicate(&p.Operands[i])
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	default:
		return "", fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, p.Operator)
	}
}
