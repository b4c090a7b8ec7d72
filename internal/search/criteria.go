package search

// Operator names a predicate shape a filter supports.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpRange    Operator = "range"
	OpContains Operator = "contains"
	OpInSet    Operator = "in-set"
)

// SourceKind distinguishes what a filter projects over.
type SourceKind string

const (
	SourceField      SourceKind = "field"
	SourceTaxonomy   SourceKind = "taxonomy"
	SourceStructural SourceKind = "structural"
)

// Structural references understood by the content-item store.
const (
	StructuralStatus    = "status"
	StructuralTitle     = "title"
	StructuralCreatedAt = "created_at"
)

// FilterDefinition declares one searchable projection. Field-sourced filters
// reference a registered field; taxonomy filters reference a taxonomy kind;
// structural filters reference a structural column.
type FilterDefinition struct {
	Name      string     `json:"name"`
	Source    SourceKind `json:"source"`
	Ref       string     `json:"ref"`
	Operators []Operator `json:"operators"`
	Priority  int        `json:"priority"`
	Active    bool       `json:"active"`
}

func (d FilterDefinition) supports(op Operator) bool {
	for _, o := range d.Operators {
		if o == op {
			return true
		}
	}
	return false
}

// Criteria is a transient per-request search description: requested filter
// values keyed by filter name, a named sort, and pagination.
type Criteria struct {
	Filters  map[string][]string
	Sort     string
	Page     int
	PageSize int
}

// Combinator tags how a predicate joins its siblings in a plan.
type Combinator string

const (
	CombineAnd Combinator = "AND"
	CombineOr  Combinator = "OR"
)

// Predicate is one compiled clause. Values carries the OR-set for membership
// operators; for OpRange it holds the [low, high] bounds, either of which may
// be empty for a half-open range.
type Predicate struct {
	Filter   string
	Source   SourceKind
	Ref      string
	Operator Operator
	Values   []string
	Combine  Combinator
	// Multi marks field predicates over list-encoded storage values, which
	// match elements inside the encoding rather than the whole value.
	Multi bool
	// Numeric marks field predicates whose range bounds compare numerically.
	Numeric bool
}

// SortSpec resolves a named sort key to an executable ordering.
type SortSpec struct {
	Key        string
	Structural string // structural column, when not field-backed
	Field      string // field name, for field-backed ordering
	Numeric    bool   // field-backed orderings over number fields cast before comparing
	Desc       bool
	Random     bool
}

// Plan is the compiled, executable form of a Criteria: ordered predicates,
// a sort specification, and clamped pagination bounds.
type Plan struct {
	Predicates []Predicate
	Sort       SortSpec
	Offset     int
	Limit      int
	Page       int
}
