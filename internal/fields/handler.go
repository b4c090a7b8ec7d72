package fields

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RenderContext selects which audience a fragment is rendered for. The three
// behaviours are deliberately threaded as an explicit parameter so they stay
// auditable side by side.
type RenderContext string

const (
	ContextAdmin      RenderContext = "admin"
	ContextPublicForm RenderContext = "public-form"
	ContextDisplay    RenderContext = "display"
)

// Handler is the pluggable capability contract for one field type. Handlers
// are stateless; the registry holds one instance per type name.
//
// Sanitize coerces arbitrary raw input into the type's clean canonical form
// (string for scalars, []string for multi-valued types) and is idempotent.
// Validate checks a clean value against the definition's rule set. ToStorage
// and FromStorage are exact inverses over sanitized valid values. Render
// produces the field-level markup fragment for the requested context.
type Handler interface {
	Type() Type
	Sanitize(raw any) any
	Validate(clean any, def Definition) *ValidationError
	ToStorage(clean any) (string, error)
	FromStorage(stored string) (any, error)
	Render(def Definition, value any, ctx RenderContext) string
}

// Multi is implemented by handlers whose clean value is an ordered list.
type Multi interface {
	MultiValued() bool
}

// IsMultiValued reports whether the handler carries list-shaped values.
func IsMultiValued(h Handler) bool {
	if m, ok := h.(Multi); ok {
		return m.MultiValued()
	}
	return false
}

// coerceString flattens raw input of any JSON-ish shape into a single string.
func coerceString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	case []any:
		if len(v) > 0 {
			return coerceString(v[0])
		}
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// coerceStrings flattens raw input into an ordered list of strings.
func coerceStrings(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, coerceString(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		s := coerceString(v)
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

// dedupe removes repeated values while preserving first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// validatePattern applies the rule-set regex, if any, to a scalar value.
func validatePattern(field, value string, rules Rules) *ValidationError {
	if rules.Pattern == "" || value == "" {
		return nil
	}
	re, err := regexp.Compile(rules.Pattern)
	if err != nil {
		// Broken patterns are a registration defect; never fail live values on them.
		return nil
	}
	if !re.MatchString(value) {
		return newValidationError(field, CodePattern, fmt.Sprintf("%s does not match the expected format", field))
	}
	return nil
}

// validateCustom invokes the definition's callback rule, if any.
func validateCustom(field string, value any, rules Rules) *ValidationError {
	if rules.Custom == nil {
		return nil
	}
	if err := rules.Custom(value); err != nil {
		return newValidationError(field, CodeCustom, err.Error())
	}
	return nil
}

// encodeList serializes a multi-valued clean value to its flat storage form.
// JSON arrays keep ordering and survive any value bytes, which makes the
// FromStorage inverse exact.
func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(raw), nil
}

// decodeList is the exact inverse of encodeList.
func decodeList(stored string) ([]string, error) {
	if strings.TrimSpace(stored) == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(stored), &values); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return values, nil
}
