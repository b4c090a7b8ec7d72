package fields

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeIdempotence(t *testing.T) {
	handlers := []Handler{
		TextHandler{}, TextareaHandler{}, NumberHandler{}, DateHandler{},
		URLHandler{}, PhoneHandler{}, SelectHandler{}, MultiSelectHandler{},
		CheckboxHandler{}, RadioHandler{}, FileHandler{},
	}
	inputs := []any{
		"  padded  ", "plain", "", nil, "3.50", "2024-02-29",
		[]string{" a ", "b", "a"}, []any{"x", 7}, 42, true,
	}
	for _, h := range handlers {
		for _, raw := range inputs {
			once := h.Sanitize(raw)
			twice := h.Sanitize(once)
			assert.Equal(t, once, twice, "sanitize not idempotent for %s on %v", h.Type(), raw)
		}
	}
}

func TestScalarStorageRoundTrip(t *testing.T) {
	cases := []struct {
		h     Handler
		clean string
	}{
		{TextHandler{}, "Corner Cafe"},
		{TextareaHandler{}, "line one\nline two"},
		{NumberHandler{}, "199.99"},
		{DateHandler{}, "2024-06-01"},
		{URLHandler{}, "https://example.com/a?b=c"},
		{PhoneHandler{}, "+1 (555) 010-2030"},
		{SelectHandler{}, "open"},
		{RadioHandler{}, "closed"},
		{FileHandler{}, "/uploads/photo.jpg"},
	}
	for _, tc := range cases {
		stored, err := tc.h.ToStorage(tc.clean)
		require.NoError(t, err)
		back, err := tc.h.FromStorage(stored)
		require.NoError(t, err)
		assert.Equal(t, tc.clean, back, "round trip for %s", tc.h.Type())
	}
}

func TestMultiValueStorageRoundTrip(t *testing.T) {
	for _, h := range []Handler{MultiSelectHandler{}, CheckboxHandler{}} {
		clean := []string{"wifi", "parking", `odd "quoted" value`}
		stored, err := h.ToStorage(clean)
		require.NoError(t, err)
		back, err := h.FromStorage(stored)
		require.NoError(t, err)
		assert.Equal(t, clean, back, "round trip for %s", h.Type())

		empty, err := h.FromStorage("")
		require.NoError(t, err)
		assert.Equal(t, []string{}, empty)
	}
}

func TestNumberSanitizeCanonicalises(t *testing.T) {
	h := NumberHandler{}
	assert.Equal(t, "3.5", h.Sanitize("3.50"))
	assert.Equal(t, "100", h.Sanitize(" 100 "))
	assert.Equal(t, "-0.25", h.Sanitize("-0.250"))
	// Unparseable input is kept verbatim so validation can report it.
	assert.Equal(t, "abc", h.Sanitize("abc"))
	assert.Equal(t, "", h.Sanitize(nil))
}

func TestNumberValidateRangeAndMismatch(t *testing.T) {
	h := NumberHandler{}
	def := Definition{Name: "price", Type: TypeNumber, Rules: Rules{Min: fptr(10), Max: fptr(100)}}

	assert.Nil(t, h.Validate("10", def))
	assert.Nil(t, h.Validate("100", def))
	assert.Nil(t, h.Validate("", def))

	if err := h.Validate("9.99", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeOutOfRange, err.Code)
	}
	if err := h.Validate("100.01", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeOutOfRange, err.Code)
	}
	if err := h.Validate("not-a-number", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeTypeMismatch, err.Code)
	}
}

func TestDateValidate(t *testing.T) {
	h := DateHandler{}
	def := Definition{Name: "opened", Type: TypeDate}

	assert.Nil(t, h.Validate("2024-02-29", def))
	if err := h.Validate("2023-02-29", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeTypeMismatch, err.Code)
	}
	if err := h.Validate("01/02/2024", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeTypeMismatch, err.Code)
	}
}

func TestURLValidate(t *testing.T) {
	h := URLHandler{}
	def := Definition{Name: "website", Type: TypeURL}

	assert.Nil(t, h.Validate("https://example.com", def))
	assert.Nil(t, h.Validate("http://example.com/path", def))

	for _, bad := range []string{"example.com", "ftp://example.com", "https://", "not a url"} {
		err := h.Validate(bad, def)
		require.NotNil(t, err, "expected rejection of %q", bad)
		assert.Equal(t, CodeTypeMismatch, err.Code)
	}
}

func TestPhoneValidate(t *testing.T) {
	h := PhoneHandler{}
	def := Definition{Name: "phone", Type: TypePhone}

	assert.Nil(t, h.Validate("+62 812-3456-7890", def))
	assert.Nil(t, h.Validate("(555) 010 2030", def))

	if err := h.Validate("call me", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeTypeMismatch, err.Code)
	}
}

func TestChoiceMembership(t *testing.T) {
	def := Definition{Name: "status", Type: TypeSelect, Options: sampleOptions()}

	assert.Nil(t, SelectHandler{}.Validate("open", def))
	if err := (SelectHandler{}).Validate("archived", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeUnknownOption, err.Code)
	}

	radioDef := def
	radioDef.Type = TypeRadio
	assert.Nil(t, RadioHandler{}.Validate("closed", radioDef))
	if err := (RadioHandler{}).Validate("paused", radioDef); assert.NotNil(t, err) {
		assert.Equal(t, CodeUnknownOption, err.Code)
	}
}

func TestMultiChoiceMembershipAndDedupe(t *testing.T) {
	def := Definition{Name: "amenities", Type: TypeCheckbox, Options: []Option{
		{Value: "wifi", Label: "Wi-Fi"},
		{Value: "parking", Label: "Parking"},
	}}
	h := CheckboxHandler{}

	clean := h.Sanitize([]string{" wifi ", "parking", "wifi", ""})
	assert.Equal(t, []string{"wifi", "parking"}, clean)

	assert.Nil(t, h.Validate(clean, def))
	if err := h.Validate([]string{"wifi", "pool"}, def); assert.NotNil(t, err) {
		assert.Equal(t, CodeUnknownOption, err.Code)
	}
}

func TestCustomRuleRuns(t *testing.T) {
	def := Definition{Name: "code", Type: TypeText, Rules: Rules{
		Custom: func(value any) error {
			if strings.HasPrefix(value.(string), "x") {
				return fmt.Errorf("codes may not start with x")
			}
			return nil
		},
	}}

	assert.Nil(t, TextHandler{}.Validate("abc", def))
	if err := (TextHandler{}).Validate("xyz", def); assert.NotNil(t, err) {
		assert.Equal(t, CodeCustom, err.Code)
		assert.Contains(t, err.Message, "may not start")
	}
}

func TestRenderContexts(t *testing.T) {
	def := Definition{Name: "tagline", Type: TypeText, Label: "Tagline", Required: true}
	h := TextHandler{}

	public := h.Render(def, "hello", ContextPublicForm)
	assert.Contains(t, public, ` required`)
	assert.Contains(t, public, `value="hello"`)

	// Admin can save partial drafts, so the control is never marked required.
	admin := h.Render(def, "hello", ContextAdmin)
	assert.NotContains(t, admin, ` required`)

	display := h.Render(def, `<b>bold</b>`, ContextDisplay)
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt;", display)
}

func TestFileRenderDisplay(t *testing.T) {
	def := Definition{Name: "cover_image", Type: TypeFile, Label: "Cover"}
	h := FileHandler{}

	img := h.Render(def, "/uploads/shot.PNG", ContextDisplay)
	assert.Contains(t, img, "<img src=")

	link := h.Render(def, "/uploads/spec.pdf", ContextDisplay)
	assert.Contains(t, link, "<a href=")
}

func TestNumberDisplayGrouping(t *testing.T) {
	def := Definition{Name: "price", Type: TypeNumber, Label: "Price"}
	h := NumberHandler{}

	assert.Equal(t, "1,234,567.5", h.Render(def, "1234567.50", ContextDisplay))
	assert.Equal(t, "-4,200", h.Render(def, "-4200", ContextDisplay))
	assert.Equal(t, "950", h.Render(def, "950", ContextDisplay))
}

func TestDateDisplayFormatting(t *testing.T) {
	def := Definition{Name: "opened", Type: TypeDate, Label: "Opened"}
	assert.Equal(t, "June 1, 2024", DateHandler{}.Render(def, "2024-06-01", ContextDisplay))
}

func TestSelectRenderMarksSelection(t *testing.T) {
	def := Definition{Name: "status", Type: TypeSelect, Options: sampleOptions()}
	out := SelectHandler{}.Render(def, "closed", ContextAdmin)
	assert.Contains(t, out, `<option value="closed" selected>`)
	assert.Contains(t, out, `<option value="open">`)

	assert.Equal(t, "Closed", SelectHandler{}.Render(def, "closed", ContextDisplay))
}

func fptr(v float64) *float64 { return &v }
