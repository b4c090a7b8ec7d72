package fields

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/openlistr/listings-api/pkg/csrf"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

// RenderArgs narrows which fields a multi-field render emits.
type RenderArgs struct {
	Fields  []string
	Exclude []string
}

// Renderer turns field definitions plus current values into markup fragments
// for a requested context. Group registration is bootstrap-phase; SetErrors
// and ClearErrors mutate per-instance redisplay state, so request handlers
// that need inline errors should work on a fresh instance per request.
type Renderer struct {
	reg *Registry

	mu     sync.RWMutex
	groups map[string]Group
	errors map[string]string
}

// NewRenderer constructs a renderer over the given registry.
func NewRenderer(reg *Registry) *Renderer {
	return &Renderer{
		reg:    reg,
		groups: make(map[string]Group),
	}
}

// WithErrors returns a request-scoped copy carrying the given per-field
// errors, leaving the shared instance untouched.
func (r *Renderer) WithErrors(errs map[string]string) *Renderer {
	clone := &Renderer{reg: r.reg, groups: make(map[string]Group)}
	r.mu.RLock()
	for id, g := range r.groups {
		clone.groups[id] = g
	}
	r.mu.RUnlock()
	clone.errors = errs
	return clone
}

// SetErrors attaches previously computed validation failures to the next
// render call so a failed submission can be redisplayed with inline messages
// without re-running validation.
func (r *Renderer) SetErrors(errsByField map[string]string) {
	r.mu.Lock()
	r.errors = errsByField
	r.mu.Unlock()
}

// ClearErrors drops any attached redisplay state.
func (r *Renderer) ClearErrors() {
	r.mu.Lock()
	r.errors = nil
	r.mu.Unlock()
}

// RegisterGroup adds or replaces a named section used for form layout.
// Grouping affects rendering only, never validation.
func (r *Renderer) RegisterGroup(g Group) error {
	if g.ID == "" {
		return appErrors.Clone(appErrors.ErrInvalidConfig, "group requires an id")
	}
	r.mu.Lock()
	r.groups[g.ID] = g
	r.mu.Unlock()
	return nil
}

// UnregisterGroup removes a section by id.
func (r *Renderer) UnregisterGroup(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "group "+id+" is not registered")
	}
	delete(r.groups, id)
	return nil
}

// RenderField renders one field for the requested context. Unknown fields
// are skipped, not fatal. Admin-only fields are withheld from the public
// form; display renders only non-empty values.
func (r *Renderer) RenderField(name string, value any, ctx RenderContext, itemID string) string {
	def, h, ok := r.reg.HandlerFor(name)
	if !ok {
		return ""
	}
	if ctx == ContextPublicForm && def.AdminOnly {
		return ""
	}
	if ctx == ContextDisplay && isEmpty(value) {
		return ""
	}
	if value == nil && def.Default != "" && ctx != ContextDisplay {
		value = def.Default
	}

	control := h.Render(def, value, ctx)
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="field field-%s" data-field-type="%s" data-item-id="%s">`,
		html.EscapeString(name), html.EscapeString(string(def.Type)), html.EscapeString(itemID))
	if ctx == ContextDisplay {
		fmt.Fprintf(&b, `<span class="field-label">%s</span><span class="field-value">%s</span>`,
			html.EscapeString(def.Label), control)
	} else {
		fmt.Fprintf(&b, `<label for="field-%s">%s%s</label>`,
			html.EscapeString(name), html.EscapeString(def.Label), requiredMarker(def, ctx))
		b.WriteString(control)
		if def.Help != "" {
			fmt.Fprintf(&b, `<p class="field-help">%s</p>`, html.EscapeString(def.Help))
		}
		if msg := r.errorFor(name); msg != "" {
			fmt.Fprintf(&b, `<p class="field-error">%s</p>`, html.EscapeString(msg))
		}
	}
	b.WriteString("</div>")
	return b.String()
}

// RenderFields renders the selected fields section by section: registered
// groups in priority order first, then any ungrouped fields ordered by field
// priority. Group members that reference unregistered fields are skipped.
func (r *Renderer) RenderFields(values map[string]any, args RenderArgs, ctx RenderContext, itemID string) string {
	var b strings.Builder
	rendered := make(map[string]struct{})

	for _, g := range r.orderedGroups() {
		var section strings.Builder
		for _, name := range g.Fields {
			if !keySelectable(name, Options{Fields: args.Fields, Exclude: args.Exclude}) {
				continue
			}
			frag := r.RenderField(name, values[name], ctx, itemID)
			rendered[name] = struct{}{}
			section.WriteString(frag)
		}
		if section.Len() == 0 {
			continue
		}
		classes := "field-group"
		if g.Collapsible {
			classes += " collapsible"
		}
		fmt.Fprintf(&b, `<fieldset class="%s" id="group-%s"><legend>%s</legend>`,
			classes, html.EscapeString(g.ID), html.EscapeString(g.Title))
		if g.Description != "" {
			fmt.Fprintf(&b, `<p class="group-description">%s</p>`, html.EscapeString(g.Description))
		}
		b.WriteString(section.String())
		b.WriteString("</fieldset>")
	}

	for _, def := range r.reg.ListFields(ListFilter{OrderBy: OrderByPriority}) {
		if _, done := rendered[def.Name]; done {
			continue
		}
		if !keySelectable(def.Name, Options{Fields: args.Fields, Exclude: args.Exclude}) {
			continue
		}
		b.WriteString(r.RenderField(def.Name, values[def.Name], ctx, itemID))
	}
	return b.String()
}

// RenderAdminFields renders the full editor form, admin-only fields included.
// The token pair is embedded verbatim; validating it at submission time is
// the caller's job.
func (r *Renderer) RenderAdminFields(values map[string]any, args RenderArgs, itemID string, token csrf.TokenPair) string {
	return r.RenderFields(values, args, ContextAdmin, itemID) + tokenInput(token)
}

// RenderFrontendFields renders the public submission form.
func (r *Renderer) RenderFrontendFields(values map[string]any, args RenderArgs, itemID string, token csrf.TokenPair) string {
	return r.RenderFields(values, args, ContextPublicForm, itemID) + tokenInput(token)
}

// RenderDisplayFields renders populated fields read-only for the public
// display surface.
func (r *Renderer) RenderDisplayFields(values map[string]any, args RenderArgs, itemID string) string {
	return r.RenderFields(values, args, ContextDisplay, itemID)
}

// Groups returns the registered sections in render order.
func (r *Renderer) Groups() []Group {
	return r.orderedGroups()
}

func (r *Renderer) orderedGroups() []Group {
	r.mu.RLock()
	out := make([]Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Renderer) errorFor(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errors[name]
}

func requiredMarker(def Definition, ctx RenderContext) string {
	if def.Required && ctx == ContextPublicForm {
		return `<span class="required-marker">*</span>`
	}
	return ""
}

func tokenInput(token csrf.TokenPair) string {
	if token.Field == "" {
		return ""
	}
	return fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`,
		html.EscapeString(token.Field), html.EscapeString(token.Token))
}
