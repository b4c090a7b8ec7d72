package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/models"
)

// ContentStore executes a compiled plan against the listing store, returning
// the matching page plus the unclamped total count.
type ContentStore interface {
	Search(ctx context.Context, plan Plan) ([]models.Listing, int, error)
}

// Config bounds compiled plans.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	DefaultSort     string
}

// Engine compiles SearchCriteria into executable query plans and runs them
// against the content-item store. It holds no per-request state.
type Engine struct {
	filters *Registry
	fields  *fields.Registry
	store   ContentStore
	cfg     Config
	logger  *zap.Logger
}

// NewEngine constructs a search engine.
func NewEngine(filters *Registry, fieldReg *fields.Registry, store ContentStore, cfg Config, logger *zap.Logger) *Engine {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{filters: filters, fields: fieldReg, store: store, cfg: cfg, logger: logger}
}

// Compile resolves each criteria entry against the filter registry and emits
// a plan. Unrecognized filter names are ignored so partial or garbage query
// parameters degrade gracefully instead of failing the whole search. Values
// for a single filter combine with OR; predicates across filters with AND.
func (e *Engine) Compile(c Criteria) Plan {
	plan := Plan{
		Sort: e.resolveSort(c.Sort),
	}

	// Iterate registered filters in priority order so plans are deterministic
	// regardless of request parameter order.
	for _, def := range e.filters.Filters(ListArgs{ActiveOnly: true}) {
		raw, ok := c.Filters[def.Name]
		if !ok {
			continue
		}
		if pred, ok := e.compilePredicate(def, raw); ok {
			plan.Predicates = append(plan.Predicates, pred)
		}
	}
	for name := range c.Filters {
		if _, ok := e.filters.Get(name); !ok {
			e.logger.Debug("ignoring unknown filter", zap.String("filter", name))
		}
	}

	page := c.Page
	if page < 1 {
		page = 1
	}
	size := c.PageSize
	if size <= 0 {
		size = e.cfg.DefaultPageSize
	}
	if size > e.cfg.MaxPageSize {
		size = e.cfg.MaxPageSize
	}
	plan.Page = page
	plan.Limit = size
	plan.Offset = (page - 1) * size
	return plan
}

// Search compiles and executes in one step, returning page metadata alongside
// the result set.
func (e *Engine) Search(ctx context.Context, c Criteria) ([]models.Listing, models.Pagination, error) {
	plan := e.Compile(c)
	items, total, err := e.store.Search(ctx, plan)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return items, models.Pagination{Page: plan.Page, PageSize: plan.Limit, TotalCount: total}, nil
}

// SearchCapped executes the criteria as one page with an explicit row budget,
// ignoring requested pagination and the request page-size clamp. Operator
// exports use this path; request-facing searches never do.
func (e *Engine) SearchCapped(ctx context.Context, c Criteria, limit int) ([]models.Listing, models.Pagination, error) {
	if limit <= 0 {
		limit = e.cfg.DefaultPageSize
	}
	plan := e.Compile(c)
	plan.Page = 1
	plan.Offset = 0
	plan.Limit = limit
	items, total, err := e.store.Search(ctx, plan)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return items, models.Pagination{Page: 1, PageSize: limit, TotalCount: total}, nil
}

func (e *Engine) compilePredicate(def FilterDefinition, raw []string) (Predicate, bool) {
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Predicate{}, false
	}

	pred := Predicate{
		Filter:  def.Name,
		Source:  def.Source,
		Ref:     def.Ref,
		Combine: CombineAnd,
	}
	if def.Source == SourceField {
		if fieldDef, h, ok := e.fields.HandlerFor(def.Ref); ok {
			pred.Multi = fields.IsMultiValued(h)
			pred.Numeric = fieldDef.Type == fields.TypeNumber
		}
	}

	// A single "low..high" value compiles to a range clause when supported.
	if def.supports(OpRange) && len(values) == 1 && strings.Contains(values[0], "..") {
		parts := strings.SplitN(values[0], "..", 2)
		pred.Operator = OpRange
		pred.Values = []string{e.encodeFieldValue(def, parts[0]), e.encodeFieldValue(def, parts[1])}
		return pred, true
	}

	switch {
	case len(values) > 1 && def.supports(OpInSet):
		pred.Operator = OpInSet
	case def.supports(OpEquals):
		pred.Operator = OpEquals
	case def.supports(OpContains):
		pred.Operator = OpContains
	case def.supports(OpInSet):
		pred.Operator = OpInSet
	default:
		pred.Operator = def.Operators[0]
	}

	encoded := make([]string, 0, len(values))
	for _, v := range values {
		encoded = append(encoded, e.encodeFieldValue(def, v))
	}
	pred.Values = encoded
	return pred, true
}

// encodeFieldValue converts a requested value into the representation the
// store compares against. Field-sourced filters must match how values were
// written, so the field's own sanitize + ToStorage pipeline is applied;
// multi-valued fields compare raw elements inside their encoded list.
func (e *Engine) encodeFieldValue(def FilterDefinition, value string) string {
	value = strings.TrimSpace(value)
	if def.Source != SourceField || value == "" {
		return value
	}
	_, h, ok := e.fields.HandlerFor(def.Ref)
	if !ok {
		return value
	}
	if fields.IsMultiValued(h) {
		return value
	}
	clean := h.Sanitize(value)
	stored, err := h.ToStorage(clean)
	if err != nil {
		return value
	}
	return stored
}

func (e *Engine) resolveSort(key string) SortSpec {
	if key == "" {
		key = e.cfg.DefaultSort
	}
	switch key {
	case "newest", "":
		return SortSpec{Key: "newest", Structural: StructuralCreatedAt, Desc: true}
	case "oldest":
		return SortSpec{Key: "oldest", Structural: StructuralCreatedAt}
	case "title":
		return SortSpec{Key: "title", Structural: StructuralTitle}
	case "random":
		return SortSpec{Key: "random", Random: true}
	}
	if name, ok := strings.CutPrefix(key, "field:"); ok {
		if def, _, found := e.fields.HandlerFor(name); found {
			return SortSpec{Key: key, Field: name, Numeric: def.Type == fields.TypeNumber}
		}
	}
	e.logger.Debug("unknown sort key, using newest-first", zap.String("sort", key))
	return SortSpec{Key: "newest", Structural: StructuralCreatedAt, Desc: true}
}
