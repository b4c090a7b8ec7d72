package fields

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlistr/listings-api/pkg/csrf"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	_, reg := newTestValidator(t)
	r := NewRenderer(reg)
	require.NoError(t, r.RegisterGroup(Group{
		ID:       "basics",
		Title:    "Basics",
		Priority: 10,
		Fields:   []string{"tagline", "price"},
	}))
	require.NoError(t, r.RegisterGroup(Group{
		ID:          "extras",
		Title:       "Extras",
		Priority:    20,
		Collapsible: true,
		Fields:      []string{"amenities"},
	}))
	return r
}

func TestRenderFieldWrapsControl(t *testing.T) {
	r := newTestRenderer(t)

	out := r.RenderField("tagline", "hello", ContextAdmin, "item-1")
	assert.Contains(t, out, `class="field field-tagline"`)
	assert.Contains(t, out, `data-field-type="text"`)
	assert.Contains(t, out, `data-item-id="item-1"`)
	assert.Contains(t, out, `<label for="field-tagline">Tagline</label>`)
	assert.Contains(t, out, `value="hello"`)
}

func TestRenderFieldUnknownIsSkipped(t *testing.T) {
	r := newTestRenderer(t)
	assert.Empty(t, r.RenderField("not_registered", "x", ContextAdmin, ""))
}

func TestAdminOnlyHiddenFromPublicForm(t *testing.T) {
	r := newTestRenderer(t)

	assert.Empty(t, r.RenderField("review_notes", "internal", ContextPublicForm, ""))
	assert.Contains(t, r.RenderField("review_notes", "internal", ContextAdmin, ""), "field-review_notes")
}

func TestDisplaySkipsEmptyValues(t *testing.T) {
	r := newTestRenderer(t)

	assert.Empty(t, r.RenderField("tagline", "", ContextDisplay, ""))
	assert.Empty(t, r.RenderField("amenities", []string{}, ContextDisplay, ""))
	assert.Contains(t, r.RenderField("tagline", "set", ContextDisplay, ""), "field-value")
}

func TestRenderFieldsGroupOrdering(t *testing.T) {
	r := newTestRenderer(t)

	out := r.RenderFields(map[string]any{
		"tagline":   "hi",
		"amenities": []string{"wifi"},
		"status":    "open",
	}, RenderArgs{}, ContextAdmin, "")

	basics := strings.Index(out, `id="group-basics"`)
	extras := strings.Index(out, `id="group-extras"`)
	ungroupedStatus := strings.Index(out, "field-status")
	require.GreaterOrEqual(t, basics, 0)
	require.Greater(t, extras, basics)
	// Ungrouped fields trail the grouped sections.
	require.Greater(t, ungroupedStatus, extras)
	assert.Contains(t, out, `class="field-group collapsible" id="group-extras"`)
}

func TestRenderFrontendFieldsEmbedsToken(t *testing.T) {
	r := newTestRenderer(t)
	token := csrf.TokenPair{Field: "_token_listing-submit", Token: "abc123"}

	out := r.RenderFrontendFields(nil, RenderArgs{}, "", token)
	assert.Contains(t, out, `name="_token_listing-submit"`)
	assert.Contains(t, out, `value="abc123"`)
	assert.NotContains(t, out, "review_notes")
}

func TestRenderDisplayFieldsOmitsToken(t *testing.T) {
	r := newTestRenderer(t)
	out := r.RenderDisplayFields(map[string]any{"tagline": "hi"}, RenderArgs{}, "")
	assert.NotContains(t, out, "_token_")
	assert.NotContains(t, out, "<input")
}

func TestWithErrorsAnnotatesFields(t *testing.T) {
	r := newTestRenderer(t)
	scoped := r.WithErrors(map[string]string{"price": "Price must be at least 0"})

	out := scoped.RenderField("price", "-5", ContextPublicForm, "")
	assert.Contains(t, out, `<p class="field-error">Price must be at least 0</p>`)

	// The shared instance stays clean.
	assert.NotContains(t, r.RenderField("price", "-5", ContextPublicForm, ""), "field-error")
}

func TestSetAndClearErrors(t *testing.T) {
	r := newTestRenderer(t)
	r.SetErrors(map[string]string{"tagline": "too short"})
	assert.Contains(t, r.RenderField("tagline", "x", ContextAdmin, ""), "too short")

	r.ClearErrors()
	assert.NotContains(t, r.RenderField("tagline", "x", ContextAdmin, ""), "too short")
}

func TestRequiredMarkerOnPublicFormOnly(t *testing.T) {
	r := newTestRenderer(t)

	public := r.RenderField("status", "open", ContextPublicForm, "")
	assert.Contains(t, public, `<span class="required-marker">*</span>`)

	admin := r.RenderField("status", "open", ContextAdmin, "")
	assert.NotContains(t, admin, "required-marker")
}

func TestRenderArgsNarrowSelection(t *testing.T) {
	r := newTestRenderer(t)

	out := r.RenderFields(map[string]any{
		"tagline": "hi",
		"price":   "5",
	}, RenderArgs{Fields: []string{"price"}}, ContextAdmin, "")

	assert.Contains(t, out, "field-price")
	assert.NotContains(t, out, "field-tagline")
}

func TestGroupsReturnsRenderOrder(t *testing.T) {
	r := newTestRenderer(t)
	groups := r.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "basics", groups[0].ID)
	assert.Equal(t, "extras", groups[1].ID)
}

func TestUnregisterGroup(t *testing.T) {
	r := newTestRenderer(t)
	require.NoError(t, r.UnregisterGroup("extras"))
	require.Error(t, r.UnregisterGroup("extras"))
	assert.Len(t, r.Groups(), 1)
}
