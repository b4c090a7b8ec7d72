package fields

import (
	"regexp"
	"sort"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

// Registry is the single source of truth for field and field-type metadata.
//
// Registration is a bootstrap-phase activity: all RegisterHandler and
// RegisterField calls must complete before the first request is served.
// Reads are safe for unbounded concurrent readers.
type Registry struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	handlers map[Type]Handler
	fields   map[string]Definition
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:   logger,
		handlers: make(map[Type]Handler),
		fields:   make(map[string]Definition),
	}
}

// RegisterHandler binds a handler to its type name. Re-registering a type
// replaces the previous handler; last registration wins with a warning.
func (r *Registry) RegisterHandler(h Handler) error {
	if h == nil || h.Type() == "" {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "handler requires a type name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[h.Type()]; exists {
		r.logger.Warn("field type handler replaced", zap.String("type", string(h.Type())))
	}
	r.handlers[h.Type()] = h
	return nil
}

// Handler returns the handler bound to the given type.
func (r *Registry) Handler(t Type) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// RegisterField adds a field definition. Duplicate names are rejected unless
// replace is set; the declared type must reference a registered handler.
func (r *Registry) RegisterField(def Definition, replace bool) error {
	if err := r.checkConfig(def); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[def.Type]; !ok {
		return appErrors.Clone(appErrors.ErrUnknownType, "no handler registered for type "+string(def.Type))
	}
	if _, exists := r.fields[def.Name]; exists && !replace {
		return appErrors.Clone(appErrors.ErrDuplicateName, "field "+def.Name+" is already registered")
	}
	r.fields[def.Name] = def
	return nil
}

// UnregisterField removes a field definition by name.
func (r *Registry) UnregisterField(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fields[name]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "field "+name+" is not registered")
	}
	delete(r.fields, name)
	return nil
}

// Field looks up a definition by name.
func (r *Registry) Field(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.fields[name]
	return def, ok
}

// HandlerFor resolves a field's definition together with its type handler.
func (r *Registry) HandlerFor(name string) (Definition, Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.fields[name]
	if !ok {
		return Definition{}, nil, false
	}
	h, ok := r.handlers[def.Type]
	if !ok {
		return Definition{}, nil, false
	}
	return def, h, true
}

// Ordering keys accepted by ListFilter.OrderBy.
const (
	OrderByPriority = "priority"
	OrderByName     = "name"
)

// ListFilter narrows and orders ListFields results. Nil members mean
// "no constraint".
type ListFilter struct {
	Type       Type
	Searchable *bool
	Filterable *bool
	AdminOnly  *bool
	OrderBy    string
}

// ListFields returns matching definitions ordered by priority or name.
func (r *Registry) ListFields(filter ListFilter) []Definition {
	r.mu.RLock()
	out := make([]Definition, 0, len(r.fields))
	for _, def := range r.fields {
		if filter.Type != "" && def.Type != filter.Type {
			continue
		}
		if filter.Searchable != nil && def.Searchable != *filter.Searchable {
			continue
		}
		if filter.Filterable != nil && def.Filterable != *filter.Filterable {
			continue
		}
		if filter.AdminOnly != nil && def.AdminOnly != *filter.AdminOnly {
			continue
		}
		out = append(out, def)
	}
	r.mu.RUnlock()

	switch filter.OrderBy {
	case OrderByName:
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	default:
		sort.Slice(out, func(i, j int) bool {
			if out[i].Priority != out[j].Priority {
				return out[i].Priority < out[j].Priority
			}
			return out[i].Name < out[j].Name
		})
	}
	return out
}

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func (r *Registry) checkConfig(def Definition) error {
	if def.Name == "" || !fieldNamePattern.MatchString(def.Name) {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "field name must be snake_case and non-empty")
	}
	if def.Type == "" {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "field "+def.Name+" requires a type")
	}
	if def.isChoice() && len(def.Options) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "field "+def.Name+" requires an option set")
	}
	if def.Rules.Pattern != "" {
		if _, err := regexp.Compile(def.Rules.Pattern); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInvalidConfig.Code, appErrors.ErrInvalidConfig.Status, "field "+def.Name+" has an invalid pattern")
		}
	}
	return nil
}
