package bootstrap

import (
	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/search"
)

// Run wires the built-in type handlers, the default field set, the form
// groups and the search filters. It must complete before the router starts
// serving; registry writes are not expected afterwards.
func Run(reg *fields.Registry, renderer *fields.Renderer, filters *search.Registry) error {
	if err := registerHandlers(reg); err != nil {
		return err
	}
	if err := registerFields(reg); err != nil {
		return err
	}
	if err := registerGroups(renderer); err != nil {
		return err
	}
	return registerFilters(filters)
}

func registerHandlers(reg *fields.Registry) error {
	handlers := []fields.Handler{
		fields.TextHandler{},
		fields.TextareaHandler{},
		fields.NumberHandler{},
		fields.DateHandler{},
		fields.URLHandler{},
		fields.PhoneHandler{},
		fields.SelectHandler{},
		fields.MultiSelectHandler{},
		fields.CheckboxHandler{},
		fields.RadioHandler{},
		fields.FileHandler{},
	}
	for _, h := range handlers {
		if err := reg.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

func registerFields(reg *fields.Registry) error {
	defs := []fields.Definition{
		{
			Name:        "tagline",
			Type:        fields.TypeText,
			Label:       "Tagline",
			Help:        "A short line shown under the title.",
			Placeholder: "One sentence about this listing",
			Searchable:  true,
			Priority:    10,
			Group:       "basics",
		},
		{
			Name:       "price",
			Type:       fields.TypeNumber,
			Label:      "Price",
			Rules:      fields.Rules{Min: f(0)},
			Searchable: true,
			Filterable: true,
			Priority:   20,
			Group:      "basics",
		},
		{
			Name:     "condition",
			Type:     fields.TypeSelect,
			Label:    "Condition",
			Required: true,
			Options: []fields.Option{
				{Value: "new", Label: "New"},
				{Value: "used", Label: "Used"},
				{Value: "refurbished", Label: "Refurbished"},
			},
			Filterable: true,
			Priority:   30,
			Group:      "basics",
		},
		{
			Name:       "amenities",
			Type:       fields.TypeCheckbox,
			Label:      "Amenities",
			Options:    amenityOptions(),
			Filterable: true,
			Priority:   40,
			Group:      "details",
		},
		{
			Name:       "opening_date",
			Type:       fields.TypeDate,
			Label:      "Opening date",
			Filterable: true,
			Priority:   50,
			Group:      "details",
		},
		{
			Name:       "long_description",
			Type:       fields.TypeTextarea,
			Label:      "Full description",
			Searchable: true,
			Priority:   60,
			Group:      "details",
		},
		{
			Name:        "website",
			Type:        fields.TypeURL,
			Label:       "Website",
			Placeholder: "https://example.com",
			Priority:    70,
			Group:       "contact",
		},
		{
			Name:     "phone",
			Type:     fields.TypePhone,
			Label:    "Phone",
			Priority: 80,
			Group:    "contact",
		},
		{
			Name:     "cover_image",
			Type:     fields.TypeFile,
			Label:    "Cover image",
			Priority: 90,
			Group:    "details",
		},
		{
			Name:      "review_notes",
			Type:      fields.TypeTextarea,
			Label:     "Review notes",
			Help:      "Internal moderation notes, never shown publicly.",
			AdminOnly: true,
			Priority:  100,
		},
	}
	for _, def := range defs {
		if err := reg.RegisterField(def, false); err != nil {
			return err
		}
	}
	return nil
}

func registerGroups(renderer *fields.Renderer) error {
	groups := []fields.Group{
		{
			ID:       "basics",
			Title:    "Basics",
			Priority: 10,
			Fields:   []string{"tagline", "price", "condition"},
		},
		{
			ID:          "details",
			Title:       "Details",
			Priority:    20,
			Collapsible: true,
			Fields:      []string{"amenities", "opening_date", "long_description", "cover_image"},
		},
		{
			ID:          "contact",
			Title:       "Contact",
			Priority:    30,
			Collapsible: true,
			Fields:      []string{"website", "phone"},
		},
	}
	for _, g := range groups {
		if err := renderer.RegisterGroup(g); err != nil {
			return err
		}
	}
	return nil
}

func registerFilters(filters *search.Registry) error {
	defs := []search.FilterDefinition{
		{
			Name:      "status",
			Source:    search.SourceStructural,
			Ref:       search.StructuralStatus,
			Operators: []search.Operator{search.OpEquals, search.OpInSet},
			Priority:  10,
			Active:    true,
		},
		{
			Name:      "q",
			Source:    search.SourceStructural,
			Ref:       search.StructuralTitle,
			Operators: []search.Operator{search.OpContains},
			Priority:  20,
			Active:    true,
		},
		{
			Name:      "created",
			Source:    search.SourceStructural,
			Ref:       search.StructuralCreatedAt,
			Operators: []search.Operator{search.OpRange},
			Priority:  30,
			Active:    true,
		},
		{
			Name:      "category",
			Source:    search.SourceTaxonomy,
			Ref:       "category",
			Operators: []search.Operator{search.OpEquals, search.OpInSet},
			Priority:  40,
			Active:    true,
		},
		{
			Name:      "tag",
			Source:    search.SourceTaxonomy,
			Ref:       "tag",
			Operators: []search.Operator{search.OpEquals, search.OpInSet},
			Priority:  50,
			Active:    true,
		},
		{
			Name:      "price",
			Source:    search.SourceField,
			Ref:       "price",
			Operators: []search.Operator{search.OpEquals, search.OpRange, search.OpInSet},
			Priority:  60,
			Active:    true,
		},
		{
			Name:      "condition",
			Source:    search.SourceField,
			Ref:       "condition",
			Operators: []search.Operator{search.OpEquals, search.OpInSet},
			Priority:  70,
			Active:    true,
		},
		{
			Name:      "amenities",
			Source:    search.SourceField,
			Ref:       "amenities",
			Operators: []search.Operator{search.OpContains, search.OpInSet},
			Priority:  80,
			Active:    true,
		},
		{
			Name:      "opened",
			Source:    search.SourceField,
			Ref:       "opening_date",
			Operators: []search.Operator{search.OpEquals, search.OpRange},
			Priority:  90,
			Active:    true,
		},
	}
	for _, def := range defs {
		if err := filters.Register(def); err != nil {
			return err
		}
	}
	return nil
}

func amenityOptions() []fields.Option {
	return []fields.Option{
		{Value: "parking", Label: "Parking"},
		{Value: "wifi", Label: "Wi-Fi"},
		{Value: "delivery", Label: "Delivery"},
		{Value: "wheelchair", Label: "Wheelchair access"},
		{Value: "outdoor", Label: "Outdoor seating"},
	}
}

func f(v float64) *float64 { return &v }
