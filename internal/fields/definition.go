package fields

// Type discriminates which registered handler owns a field's behaviour.
type Type string

const (
	TypeText        Type = "text"
	TypeTextarea    Type = "textarea"
	TypeNumber      Type = "number"
	TypeDate        Type = "date"
	TypeURL         Type = "url"
	TypePhone       Type = "phone"
	TypeSelect      Type = "select"
	TypeMultiSelect Type = "multiselect"
	TypeCheckbox    Type = "checkbox"
	TypeRadio       Type = "radio"
	TypeFile        Type = "file"
)

// Option is one selectable value for choice-typed fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Rules carries the per-field validation constraints evaluated by handlers.
// Custom, when set, runs after the built-in checks and may veto the value.
type Rules struct {
	Pattern string                `json:"pattern,omitempty"`
	Min     *float64              `json:"min,omitempty"`
	Max     *float64              `json:"max,omitempty"`
	Custom  func(value any) error `json:"-"`
}

// Definition describes a single runtime-registered field. It is schema, not
// data: definitions live in the registry for the process lifetime and are
// never persisted.
type Definition struct {
	Name        string   `json:"name"`
	Type        Type     `json:"type"`
	Label       string   `json:"label"`
	Help        string   `json:"help,omitempty"`
	Required    bool     `json:"required"`
	Default     string   `json:"default,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Rules       Rules    `json:"rules,omitempty"`
	Searchable  bool     `json:"searchable"`
	Filterable  bool     `json:"filterable"`
	AdminOnly   bool     `json:"admin_only"`
	Priority    int      `json:"priority"`
	Group       string   `json:"group,omitempty"`
}

// Group names an ordered section of fields for form layout.
type Group struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority"`
	Collapsible bool     `json:"collapsible"`
	Fields      []string `json:"fields"`
}

// hasOption reports whether value is a member of the declared option set.
func (d Definition) hasOption(value string) bool {
	for _, opt := range d.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// isChoice reports whether the definition's type selects from an option set.
func (d Definition) isChoice() bool {
	switch d.Type {
	case TypeSelect, TypeMultiSelect, TypeCheckbox, TypeRadio:
		return true
	}
	return false
}
