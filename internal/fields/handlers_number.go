package fields

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

// NumberHandler backs locale-independent decimal fields. Non-numeric input is
// kept verbatim by Sanitize and rejected by Validate; it is never silently
// coerced to zero.
type NumberHandler struct{}

func (NumberHandler) Type() Type { return TypeNumber }

func (NumberHandler) Sanitize(raw any) any {
	value := cleanScalar(raw)
	if value == "" {
		return ""
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (NumberHandler) Validate(clean any, def Definition) *ValidationError {
	value := coerceString(clean)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return newValidationError(def.Name, CodeTypeMismatch, fmt.Sprintf("%s must be a number", def.Name))
	}
	if def.Rules.Min != nil && f < *def.Rules.Min {
		return newValidationError(def.Name, CodeOutOfRange, fmt.Sprintf("%s must be at least %s", def.Name, strconv.FormatFloat(*def.Rules.Min, 'f', -1, 64)))
	}
	if def.Rules.Max != nil && f > *def.Rules.Max {
		return newValidationError(def.Name, CodeOutOfRange, fmt.Sprintf("%s must be at most %s", def.Name, strconv.FormatFloat(*def.Rules.Max, 'f', -1, 64)))
	}
	return validateCustom(def.Name, value, def.Rules)
}

func (NumberHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (NumberHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (NumberHandler) Render(def Definition, value any, ctx RenderContext) string {
	raw := coerceString(value)
	if ctx == ContextDisplay {
		return html.EscapeString(formatDecimal(raw))
	}
	return renderInput("number", def, raw, ctx)
}

// formatDecimal groups the integer part with thin separators for display.
func formatDecimal(value string) string {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	canonical := strconv.FormatFloat(f, 'f', -1, 64)
	intPart := canonical
	fracPart := ""
	if i := strings.IndexByte(canonical, '.'); i >= 0 {
		intPart, fracPart = canonical[:i], canonical[i:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)
	return sign + strings.Join(groups, ",") + fracPart
}

const dateLayout = "2006-01-02"

// DateHandler backs calendar-date fields stored as ISO-8601 dates, which keep
// lexicographic and chronological order aligned for range predicates.
type DateHandler struct{}

func (DateHandler) Type() Type { return TypeDate }

func (DateHandler) Sanitize(raw any) any {
	value := cleanScalar(raw)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.Format(dateLayout)
	}
	return value
}

func (DateHandler) Validate(clean any, def Definition) *ValidationError {
	value := coerceString(clean)
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return newValidationError(def.Name, CodeTypeMismatch, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", def.Name))
	}
	return validateCustom(def.Name, value, def.Rules)
}

func (DateHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (DateHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (DateHandler) Render(def Definition, value any, ctx RenderContext) string {
	raw := coerceString(value)
	if ctx == ContextDisplay {
		if t, err := time.Parse(dateLayout, raw); err == nil {
			return html.EscapeString(t.Format("January 2, 2006"))
		}
		return html.EscapeString(raw)
	}
	return renderInput("date", def, raw, ctx)
}
