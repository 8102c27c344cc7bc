package filter

// Predicate operators understood by vector stores.
const (
	OperatorAnd   = "And"
	OperatorEqual = "Equal"
)

// Predicate is a node of a vector-store where clause. Branch nodes carry
// Operands; Equal leaves carry Path and ValueString.
type Predicate struct {
	Operator    string      `json:"operator"`
	Path        []string    `json:"path,omitempty"`
	ValueString string      `json:"valueString,omitempty"`
	Operands    []Predicate `json:"operands,omitempty"`
}

// IsLeaf reports whether p is an Equal leaf.
func (p *Predicate) IsLeaf() bool { return p.Operator == OperatorEqual }

// ToVectorWhere builds an And of Equal leaves, one per clause. Returns nil for an
// empty filter, meaning unfiltered similarity search.
func ToVectorWhere(f Filter) *Predicate {
	if f.IsEmpty() {
		return nil
	}
	operands := make([]Predicate, 0, f.Len())
	for _, c := range f.clauses {
		operands = append(operands, Predicate{
			Operator:    OperatorEqual,
			Path:        []string{c.field},
			ValueString: c.value,
		})
	}
	return &Predicate{Operator: OperatorAnd, Operands: operands}
}
