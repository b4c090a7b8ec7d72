package fields

import (
	"fmt"
	"html"
	"strings"
)

// SelectHandler backs single-choice dropdowns. Unknown values are a
// validation error, not a silent drop, so stale option sets surface as
// data-quality signals.
type SelectHandler struct{}

func (SelectHandler) Type() Type { return TypeSelect }

func (SelectHandler) Sanitize(raw any) any { return cleanScalar(raw) }

func (SelectHandler) Validate(clean any, def Definition) *ValidationError {
	return validateMembership(coerceString(clean), def)
}

func (SelectHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (SelectHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (SelectHandler) Render(def Definition, value any, ctx RenderContext) string {
	selected := coerceString(value)
	if ctx == ContextDisplay {
		return html.EscapeString(optionLabel(def, selected))
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<select id="field-%s" name="%s"%s>`,
		html.EscapeString(def.Name), html.EscapeString(def.Name), requiredAttr(def, ctx))
	b.WriteString(`<option value=""></option>`)
	for _, opt := range def.Options {
		mark := ""
		if opt.Value == selected {
			mark = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
			html.EscapeString(opt.Value), mark, html.EscapeString(opt.Label))
	}
	b.WriteString("</select>")
	return b.String()
}

// RadioHandler backs single-choice radio groups with select semantics.
type RadioHandler struct{}

func (RadioHandler) Type() Type { return TypeRadio }

func (RadioHandler) Sanitize(raw any) any { return cleanScalar(raw) }

func (RadioHandler) Validate(clean any, def Definition) *ValidationError {
	return validateMembership(coerceString(clean), def)
}

func (RadioHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (RadioHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (RadioHandler) Render(def Definition, value any, ctx RenderContext) string {
	selected := coerceString(value)
	if ctx == ContextDisplay {
		return html.EscapeString(optionLabel(def, selected))
	}
	var b strings.Builder
	for i, opt := range def.Options {
		mark := ""
		if opt.Value == selected {
			mark = " checked"
		}
		fmt.Fprintf(&b, `<label><input type="radio" id="field-%s-%d" name="%s" value="%s"%s%s> %s</label>`,
			html.EscapeString(def.Name), i, html.EscapeString(def.Name),
			html.EscapeString(opt.Value), mark, requiredAttr(def, ctx), html.EscapeString(opt.Label))
	}
	return b.String()
}

// MultiSelectHandler backs multi-choice dropdowns. The clean value is an
// ordered, de-duplicated list.
type MultiSelectHandler struct{}

func (MultiSelectHandler) Type() Type { return TypeMultiSelect }

func (MultiSelectHandler) MultiValued() bool { return true }

func (MultiSelectHandler) Sanitize(raw any) any { return sanitizeList(raw) }

func (MultiSelectHandler) Validate(clean any, def Definition) *ValidationError {
	return validateListMembership(coerceStrings(clean), def)
}

func (MultiSelectHandler) ToStorage(clean any) (string, error) {
	return encodeList(coerceStrings(clean))
}

func (MultiSelectHandler) FromStorage(stored string) (any, error) {
	values, err := decodeList(stored)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (MultiSelectHandler) Render(def Definition, value any, ctx RenderContext) string {
	selected := coerceStrings(value)
	if ctx == ContextDisplay {
		return renderListDisplay(def, selected)
	}
	chosen := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		chosen[v] = struct{}{}
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<select id="field-%s" name="%s" multiple>`,
		html.EscapeString(def.Name), html.EscapeString(def.Name))
	for _, opt := range def.Options {
		mark := ""
		if _, ok := chosen[opt.Value]; ok {
			mark = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`,
			html.EscapeString(opt.Value), mark, html.EscapeString(opt.Label))
	}
	b.WriteString("</select>")
	return b.String()
}

// CheckboxHandler backs checkbox groups, the other multi-valued choice type.
type CheckboxHandler struct{}

func (CheckboxHandler) Type() Type { return TypeCheckbox }

func (CheckboxHandler) MultiValued() bool { return true }

func (CheckboxHandler) Sanitize(raw any) any { return sanitizeList(raw) }

func (CheckboxHandler) Validate(clean any, def Definition) *ValidationError {
	return validateListMembership(coerceStrings(clean), def)
}

func (CheckboxHandler) ToStorage(clean any) (string, error) {
	return encodeList(coerceStrings(clean))
}

func (CheckboxHandler) FromStorage(stored string) (any, error) {
	values, err := decodeList(stored)
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (CheckboxHandler) Render(def Definition, value any, ctx RenderContext) string {
	selected := coerceStrings(value)
	if ctx == ContextDisplay {
		return renderListDisplay(def, selected)
	}
	chosen := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		chosen[v] = struct{}{}
	}
	var b strings.Builder
	for i, opt := range def.Options {
		mark := ""
		if _, ok := chosen[opt.Value]; ok {
			mark = " checked"
		}
		fmt.Fprintf(&b, `<label><input type="checkbox" id="field-%s-%d" name="%s" value="%s"%s> %s</label>`,
			html.EscapeString(def.Name), i, html.EscapeString(def.Name),
			html.EscapeString(opt.Value), mark, html.EscapeString(opt.Label))
	}
	return b.String()
}

func sanitizeList(raw any) []string {
	values := coerceStrings(raw)
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = cleanScalar(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return dedupe(out)
}

func validateMembership(value string, def Definition) *ValidationError {
	if value == "" {
		return nil
	}
	if !def.hasOption(value) {
		return newValidationError(def.Name, CodeUnknownOption, fmt.Sprintf("%q is not a valid choice for %s", value, def.Name))
	}
	return validateCustom(def.Name, value, def.Rules)
}

func validateListMembership(values []string, def Definition) *ValidationError {
	for _, v := range values {
		if !def.hasOption(v) {
			return newValidationError(def.Name, CodeUnknownOption, fmt.Sprintf("%q is not a valid choice for %s", v, def.Name))
		}
	}
	if len(values) > 0 {
		return validateCustom(def.Name, values, def.Rules)
	}
	return nil
}

func optionLabel(def Definition, value string) string {
	for _, opt := range def.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func renderListDisplay(def Definition, values []string) string {
	if len(values) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<ul>")
	for _, v := range values {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(optionLabel(def, v)))
	}
	b.WriteString("</ul>")
	return b.String()
}
