package fields

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// collapseSpaces also strips control characters that occasionally arrive from
// copy-pasted submissions.
var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{5,24}$`)

func cleanScalar(raw any) string {
	s := coerceString(raw)
	s = controlChars.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TextHandler backs the single-line text type.
type TextHandler struct{}

func (TextHandler) Type() Type { return TypeText }

func (TextHandler) Sanitize(raw any) any { return cleanScalar(raw) }

func (TextHandler) Validate(clean any, def Definition) *ValidationError {
	value := coerceString(clean)
	if value == "" {
		return nil
	}
	if err := validatePattern(def.Name, value, def.Rules); err != nil {
		return err
	}
	return validateCustom(def.Name, value, def.Rules)
}

func (TextHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (TextHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (TextHandler) Render(def Definition, value any, ctx RenderContext) string {
	if ctx == ContextDisplay {
		return html.EscapeString(coerceString(value))
	}
	return renderInput("text", def, coerceString(value), ctx)
}

// TextareaHandler backs multi-line text.
type TextareaHandler struct{}

func (TextareaHandler) Type() Type { return TypeTextarea }

func (TextareaHandler) Sanitize(raw any) any {
	s := controlChars.ReplaceAllString(coerceString(raw), "")
	// Preserve interior newlines, trim the edges only.
	return strings.TrimSpace(s)
}

func (TextareaHandler) Validate(clean any, def Definition) *ValidationError {
	value := coerceString(clean)
	if value == "" {
		return nil
	}
	if err := validatePattern(def.Name, value, def.Rules); err != nil {
		return err
	}
	return validateCustom(def.Name, value, def.Rules)
}

func (TextareaHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (TextareaHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (TextareaHandler) Render(def Definition, value any, ctx RenderContext) string {
	escaped := html.EscapeString(coerceString(value))
	if ctx == ContextDisplay {
		return strings.ReplaceAll(escaped, "\n", "<br>")
	}
	return fmt.Sprintf(`<textarea id="field-%s" name="%s"%s%s>%s</textarea>`,
		html.EscapeString(def.Name), html.EscapeString(def.Name),
		placeholderAttr(def), requiredAttr(def, ctx), escaped)
}

// URLHandler backs link fields.
type URLHandler struct{}

func (URLHandler) Type() Type { return TypeURL }

func (URLHandler) Sanitize(raw any) any { return cleanScalar(raw) }

func (URLHandler) Validate(clean any, def Definition) *ValidationError {
	value := coerceString(clean)
	if value == "" {
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return newValidationError(def.Name, CodeTypeMismatch, fmt.Sprintf("%s must be a valid http(s) URL", def.Name))
	}
	if perr := validatePattern(def.Name, value, def.Rules); perr != nil {
		return perr
	}
	return validateCustom(def.Name, value, def.Rules)
}

func (URLHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (URLHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (URLHandler) Render(def Definition, value any, ctx RenderContext) string {
	raw := coerceString(value)
	if ctx == ContextDisplay {
		escaped := html.EscapeString(raw)
		return fmt.Sprintf(`<a href="%s" rel="nofollow">%s</a>`, escaped, escaped)
	}
	return renderInput("url", def, raw, ctx)
}

// PhoneHandler backs telephone fields.
type PhoneHandler struct{}

func (PhoneHandler) Type() Type { return TypePhone }

func (PhoneHandler) Sanitize(raw any) any { return cleanScalar(raw) }

func (PhoneHandler) Validate(clean any, def Definition) *ValidationError {
	value := coerceString(clean)
	if value == "" {
		return nil
	}
	if !phonePattern.MatchString(value) {
		return newValidationError(def.Name, CodeTypeMismatch, fmt.Sprintf("%s must be a valid phone number", def.Name))
	}
	if perr := validatePattern(def.Name, value, def.Rules); perr != nil {
		return perr
	}
	return validateCustom(def.Name, value, def.Rules)
}

func (PhoneHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (PhoneHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (PhoneHandler) Render(def Definition, value any, ctx RenderContext) string {
	raw := coerceString(value)
	if ctx == ContextDisplay {
		escaped := html.EscapeString(raw)
		return fmt.Sprintf(`<a href="tel:%s">%s</a>`, escaped, escaped)
	}
	return renderInput("tel", def, raw, ctx)
}

// FileHandler backs file/image fields. The clean value is the uploaded asset's
// URL or path; upload handling itself lives with the storage collaborator.
type FileHandler struct{}

func (FileHandler) Type() Type { return TypeFile }

func (FileHandler) Sanitize(raw any) any { return cleanScalar(raw) }

func (FileHandler) Validate(clean any, def Definition) *ValidationError {
	value := coerceString(clean)
	if value == "" {
		return nil
	}
	if strings.ContainsAny(value, "<>\"") {
		return newValidationError(def.Name, CodeTypeMismatch, fmt.Sprintf("%s must be a valid file reference", def.Name))
	}
	if perr := validatePattern(def.Name, value, def.Rules); perr != nil {
		return perr
	}
	return validateCustom(def.Name, value, def.Rules)
}

func (FileHandler) ToStorage(clean any) (string, error) {
	return coerceString(clean), nil
}

func (FileHandler) FromStorage(stored string) (any, error) {
	return stored, nil
}

func (FileHandler) Render(def Definition, value any, ctx RenderContext) string {
	raw := coerceString(value)
	if ctx == ContextDisplay {
		escaped := html.EscapeString(raw)
		if isImagePath(raw) {
			return fmt.Sprintf(`<img src="%s" alt="%s">`, escaped, html.EscapeString(def.Label))
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, escaped, escaped)
	}
	return renderInput("file", def, raw, ctx)
}

func isImagePath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// renderInput emits a plain <input> control shared by the scalar handlers.
func renderInput(inputType string, def Definition, value string, ctx RenderContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<input type="%s" id="field-%s" name="%s" value="%s"`,
		inputType, html.EscapeString(def.Name), html.EscapeString(def.Name), html.EscapeString(value))
	b.WriteString(placeholderAttr(def))
	b.WriteString(requiredAttr(def, ctx))
	b.WriteString(">")
	return b.String()
}

func placeholderAttr(def Definition) string {
	if def.Placeholder == "" {
		return ""
	}
	return fmt.Sprintf(` placeholder="%s"`, html.EscapeString(def.Placeholder))
}

// requiredAttr marks required controls on the public form only; the admin
// editor may save partial drafts.
func requiredAttr(def Definition, ctx RenderContext) string {
	if def.Required && ctx == ContextPublicForm {
		return " required"
	}
	return ""
}
