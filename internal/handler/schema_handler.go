package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/search"
	"github.com/openlistr/listings-api/pkg/response"
)

// SchemaHandler publishes the runtime field and filter schema so clients can
// build forms and search UIs without hardcoding the configuration.
type SchemaHandler struct {
	fields   *fields.Registry
	filters  *search.Registry
	renderer *fields.Renderer
}

// NewSchemaHandler builds a new handler.
func NewSchemaHandler(fieldReg *fields.Registry, filterReg *search.Registry, renderer *fields.Renderer) *SchemaHandler {
	return &SchemaHandler{fields: fieldReg, filters: filterReg, renderer: renderer}
}

// Fields godoc
// @Summary List registered field definitions
// @Tags Schema
// @Produce json
// @Param type query string false "Restrict to one field type"
// @Success 200 {object} response.Envelope
// @Router /schema/fields [get]
func (h *SchemaHandler) Fields(c *gin.Context) {
	filter := fields.ListFilter{
		Type:    fields.Type(c.Query("type")),
		OrderBy: fields.OrderByPriority,
	}
	if c.Query("order_by") == fields.OrderByName {
		filter.OrderBy = fields.OrderByName
	}
	response.JSON(c, http.StatusOK, h.fields.ListFields(filter), nil)
}

// Groups godoc
// @Summary List form layout groups in render order
// @Tags Schema
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schema/groups [get]
func (h *SchemaHandler) Groups(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.renderer.Groups(), nil)
}

// Filters godoc
// @Summary List active search filters
// @Tags Schema
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schema/filters [get]
func (h *SchemaHandler) Filters(c *gin.Context) {
	defs := h.filters.Filters(search.ListArgs{ActiveOnly: true})
	response.JSON(c, http.StatusOK, defs, nil)
}
