package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(nil)
	for _, h := range []Handler{
		TextHandler{}, TextareaHandler{}, NumberHandler{}, DateHandler{},
		URLHandler{}, PhoneHandler{}, SelectHandler{}, MultiSelectHandler{},
		CheckboxHandler{}, RadioHandler{}, FileHandler{},
	} {
		require.NoError(t, reg.RegisterHandler(h))
	}
	return reg
}

func sampleOptions() []Option {
	return []Option{
		{Value: "open", Label: "Open"},
		{Value: "closed", Label: "Closed"},
	}
}

func TestRegistryHandlerReplacementWins(t *testing.T) {
	reg := newTestRegistry(t)

	// Second registration for the same type wins.
	require.NoError(t, reg.RegisterHandler(TextHandler{}))
	h, ok := reg.Handler(TypeText)
	require.True(t, ok)
	assert.Equal(t, TypeText, h.Type())
}

func TestRegistryRejectsNilHandler(t *testing.T) {
	reg := NewRegistry(nil)
	err := reg.RegisterHandler(nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidConfig.Code, appErrors.FromError(err).Code)
}

func TestRegisterFieldDuplicateName(t *testing.T) {
	reg := newTestRegistry(t)
	def := Definition{Name: "city", Type: TypeText, Label: "City"}
	require.NoError(t, reg.RegisterField(def, false))

	err := reg.RegisterField(def, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateName.Code, appErrors.FromError(err).Code)

	def.Label = "Town"
	require.NoError(t, reg.RegisterField(def, true))
	got, ok := reg.Field("city")
	require.True(t, ok)
	assert.Equal(t, "Town", got.Label)
}

func TestRegisterFieldUnknownType(t *testing.T) {
	reg := newTestRegistry(t)
	err := reg.RegisterField(Definition{Name: "oddball", Type: Type("hologram")}, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownType.Code, appErrors.FromError(err).Code)
}

func TestRegisterFieldConfigChecks(t *testing.T) {
	reg := newTestRegistry(t)

	cases := []struct {
		name string
		def  Definition
	}{
		{"empty name", Definition{Type: TypeText}},
		{"non snake_case", Definition{Name: "City Name", Type: TypeText}},
		{"choice without options", Definition{Name: "status", Type: TypeSelect}},
		{"broken pattern", Definition{Name: "code", Type: TypeText, Rules: Rules{Pattern: "[unterminated"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := reg.RegisterField(tc.def, false)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidConfig.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestUnregisterField(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RegisterField(Definition{Name: "city", Type: TypeText}, false))
	require.NoError(t, reg.UnregisterField("city"))

	_, ok := reg.Field("city")
	assert.False(t, ok)

	err := reg.UnregisterField("city")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListFieldsFilterAndOrder(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RegisterField(Definition{Name: "zeta", Type: TypeText, Priority: 30, Filterable: true}, false))
	require.NoError(t, reg.RegisterField(Definition{Name: "alpha", Type: TypeText, Priority: 10}, false))
	require.NoError(t, reg.RegisterField(Definition{Name: "midway", Type: TypeNumber, Priority: 20, Filterable: true, AdminOnly: true}, false))

	byPriority := reg.ListFields(ListFilter{OrderBy: OrderByPriority})
	require.Len(t, byPriority, 3)
	assert.Equal(t, []string{"alpha", "midway", "zeta"}, names(byPriority))

	byName := reg.ListFields(ListFilter{OrderBy: OrderByName})
	assert.Equal(t, []string{"alpha", "midway", "zeta"}, names(byName))

	filterable := true
	assert.Equal(t, []string{"midway", "zeta"}, names(reg.ListFields(ListFilter{Filterable: &filterable, OrderBy: OrderByPriority})))

	adminOnly := false
	assert.Equal(t, []string{"alpha", "zeta"}, names(reg.ListFields(ListFilter{AdminOnly: &adminOnly, OrderBy: OrderByPriority})))

	assert.Equal(t, []string{"midway"}, names(reg.ListFields(ListFilter{Type: TypeNumber})))
}

func names(defs []Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

func TestHandlerForResolvesDefinitionAndHandler(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RegisterField(Definition{Name: "status", Type: TypeSelect, Options: sampleOptions()}, false))

	def, h, ok := reg.HandlerFor("status")
	require.True(t, ok)
	assert.Equal(t, "status", def.Name)
	assert.Equal(t, TypeSelect, h.Type())

	_, _, ok = reg.HandlerFor("missing")
	assert.False(t, ok)
}
