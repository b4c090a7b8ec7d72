package search

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/openlistr/listings-api/internal/fields"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

// operatorsByType is what each field type's storage representation can answer.
// Free-text types cannot serve numeric ranges; choice types compare by
// membership only.
var operatorsByType = map[fields.Type][]Operator{
	fields.TypeText:        {OpEquals, OpContains, OpInSet},
	fields.TypeTextarea:    {OpContains},
	fields.TypeNumber:      {OpEquals, OpRange, OpInSet},
	fields.TypeDate:        {OpEquals, OpRange, OpInSet},
	fields.TypeURL:         {OpEquals, OpContains},
	fields.TypePhone:       {OpEquals, OpContains},
	fields.TypeSelect:      {OpEquals, OpInSet},
	fields.TypeMultiSelect: {OpContains, OpInSet},
	fields.TypeCheckbox:    {OpContains, OpInSet},
	fields.TypeRadio:       {OpEquals, OpInSet},
	fields.TypeFile:        {OpEquals},
}

// Registry catalogs what can be searched and how. Like the field registry it
// is written during bootstrap only and read-safe afterwards.
type Registry struct {
	mu      sync.RWMutex
	fields  *fields.Registry
	logger  *zap.Logger
	filters map[string]FilterDefinition
}

// NewRegistry constructs a filter registry bound to the field registry it
// checks operator compatibility against.
func NewRegistry(fieldReg *fields.Registry, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		fields:  fieldReg,
		logger:  logger,
		filters: make(map[string]FilterDefinition),
	}
}

// Register adds a filter definition. A field-sourced filter's operator set
// must be a subset of what the referenced field's type supports; otherwise
// the filter is rejected and not added.
func (r *Registry) Register(def FilterDefinition) error {
	if def.Name == "" {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "filter requires a name")
	}
	if len(def.Operators) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "filter "+def.Name+" requires at least one operator")
	}
	if def.Source == SourceField {
		fieldDef, ok := r.fields.Field(def.Ref)
		if !ok {
			return appErrors.Clone(appErrors.ErrInvalidConfig, "filter "+def.Name+" references unregistered field "+def.Ref)
		}
		supported := operatorsByType[fieldDef.Type]
		for _, op := range def.Operators {
			if !operatorIn(supported, op) {
				return appErrors.Clone(appErrors.ErrUnsupportedOperator,
					"filter "+def.Name+": operator "+string(op)+" is not supported by "+string(fieldDef.Type)+" fields")
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.filters[def.Name]; exists {
		return appErrors.Clone(appErrors.ErrDuplicateName, "filter "+def.Name+" is already registered")
	}
	r.filters[def.Name] = def
	return nil
}

// Get looks up a filter by name.
func (r *Registry) Get(name string) (FilterDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.filters[name]
	return def, ok
}

// ListArgs narrows and orders Filters results.
type ListArgs struct {
	Source     SourceKind
	ActiveOnly bool
	OrderBy    string // "priority" (default) or "name"
}

// Filters returns matching filter definitions in a stable order.
func (r *Registry) Filters(args ListArgs) []FilterDefinition {
	r.mu.RLock()
	out := make([]FilterDefinition, 0, len(r.filters))
	for _, def := range r.filters {
		if args.Source != "" && def.Source != args.Source {
			continue
		}
		if args.ActiveOnly && !def.Active {
			continue
		}
		out = append(out, def)
	}
	r.mu.RUnlock()

	if args.OrderBy == "name" {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	} else {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Priority != out[j].Priority {
				return out[i].Priority < out[j].Priority
			}
			return out[i].Name < out[j].Name
		})
	}
	return out
}

func operatorIn(set []Operator, op Operator) bool {
	for _, o := range set {
		if o == op {
			return true
		}
	}
	return false
}
