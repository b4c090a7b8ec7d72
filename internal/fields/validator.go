package fields

import (
	"sort"

	"go.uber.org/zap"
)

// Options narrows which keys a multi-field pass touches.
type Options struct {
	// Fields, when non-empty, restricts processing to the named keys.
	Fields []string
	// Exclude removes the named keys from processing.
	Exclude []string
	// SkipSanitize runs validation on raw values as-is. The default path
	// sanitizes first so both entry points share identical semantics.
	SkipSanitize bool
	// SkipRequired suppresses required-field omission checks; used for
	// admin-entered partial drafts where sanitization alone is wanted.
	SkipRequired bool
}

// Result is the outcome of ProcessFields.
type Result struct {
	Valid  bool
	Values map[string]any
	Errors *AggregateError
}

// Validator orchestrates sanitize and validate across one or many fields.
// It is stateless and safe for concurrent use once the registry's bootstrap
// phase is over.
type Validator struct {
	reg    *Registry
	logger *zap.Logger
	// strict logs unregistered keys at warn level. Pass-through behaviour is
	// unchanged; this is a development diagnostic for catching typos.
	strict bool
}

// NewValidator constructs a validator over the given registry.
func NewValidator(reg *Registry, logger *zap.Logger, strict bool) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{reg: reg, logger: logger, strict: strict}
}

// SanitizeField applies only the sanitize step. Unknown field names pass the
// raw value through untouched.
func (v *Validator) SanitizeField(name string, raw any) any {
	_, h, ok := v.reg.HandlerFor(name)
	if !ok {
		v.noteUnregistered(name)
		return raw
	}
	return h.Sanitize(raw)
}

// ValidateField validates a single value, sanitizing first unless told not
// to. Unknown field names do not error: the value is treated as opaque
// ad-hoc metadata and passes through unvalidated.
func (v *Validator) ValidateField(name string, raw any, sanitizeFirst bool) *ValidationError {
	def, h, ok := v.reg.HandlerFor(name)
	if !ok {
		v.noteUnregistered(name)
		return nil
	}
	clean := raw
	if sanitizeFirst {
		clean = h.Sanitize(raw)
	}
	if def.Required && isEmpty(clean) {
		return newValidationError(name, CodeRequired, def.Label+" is required")
	}
	return h.Validate(clean, def)
}

// SanitizeFields sanitizes every selected key in values.
func (v *Validator) SanitizeFields(values map[string]any, opts Options) map[string]any {
	out := make(map[string]any, len(values))
	for _, name := range selectKeys(values, opts) {
		out[name] = v.SanitizeField(name, values[name])
	}
	return out
}

// ValidateFields runs per-field validation for every selected key, collecting
// every failure rather than short-circuiting. Required registered fields that
// are absent from values are reported too, unless opts.SkipRequired is set.
func (v *Validator) ValidateFields(values map[string]any, opts Options) *AggregateError {
	agg := &AggregateError{}
	selected := selectKeys(values, opts)
	for _, name := range selected {
		agg.Add(v.ValidateField(name, values[name], !opts.SkipSanitize))
	}
	if !opts.SkipRequired {
		present := make(map[string]struct{}, len(selected))
		for _, name := range selected {
			present[name] = struct{}{}
		}
		for _, def := range v.reg.ListFields(ListFilter{OrderBy: OrderByPriority}) {
			if !def.Required {
				continue
			}
			if _, ok := present[def.Name]; ok {
				continue
			}
			if !keySelectable(def.Name, opts) {
				continue
			}
			agg.Add(newValidationError(def.Name, CodeRequired, def.Label+" is required"))
		}
	}
	if agg.Empty() {
		return nil
	}
	return agg
}

// ProcessFields is the single entry point combining sanitize, validate, and
// the sanitized value set. The admin save path, the public submission path,
// and programmatic ingestion all call this, guaranteeing identical semantics.
func (v *Validator) ProcessFields(values map[string]any, opts Options) Result {
	sanitized := make(map[string]any, len(values))
	for _, name := range selectKeys(values, opts) {
		if opts.SkipSanitize {
			sanitized[name] = values[name]
		} else {
			sanitized[name] = v.SanitizeField(name, values[name])
		}
	}
	validateOpts := opts
	validateOpts.SkipSanitize = true // already sanitized above
	errs := v.ValidateFields(sanitized, validateOpts)
	if errs != nil {
		return Result{Valid: false, Values: sanitized, Errors: errs}
	}
	return Result{Valid: true, Values: sanitized}
}

func (v *Validator) noteUnregistered(name string) {
	if v.strict {
		v.logger.Warn("unregistered field passed through", zap.String("field", name))
	}
}

// selectKeys applies Fields/Exclude and returns keys in a stable order so
// aggregate error output is deterministic.
func selectKeys(values map[string]any, opts Options) []string {
	keys := make([]string, 0, len(values))
	for name := range values {
		if keySelectable(name, opts) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys
}

func keySelectable(name string, opts Options) bool {
	for _, ex := range opts.Exclude {
		if ex == name {
			return false
		}
	}
	if len(opts.Fields) == 0 {
		return true
	}
	for _, f := range opts.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// IsEmptyValue reports whether a clean value counts as unset; storage and
// display layers use it to skip absent attributes.
func IsEmptyValue(clean any) bool {
	return isEmpty(clean)
}

// isEmpty reports whether a clean value counts as unset for required checks.
func isEmpty(clean any) bool {
	switch v := clean.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return coerceString(clean) == ""
	}
}
