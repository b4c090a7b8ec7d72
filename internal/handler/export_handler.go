package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlistr/listings-api/internal/search"
	"github.com/openlistr/listings-api/internal/service"
	"github.com/openlistr/listings-api/pkg/response"
)

type exporter interface {
	SearchCSV(ctx context.Context, criteria search.Criteria) ([]byte, error)
	ListingPDF(ctx context.Context, id string) ([]byte, error)
}

// ExportHandler serves operator downloads: search results as CSV and single
// listings as PDF sheets.
type ExportHandler struct {
	exports exporter
}

// NewExportHandler builds a new handler.
func NewExportHandler(exports exporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// SearchCSV godoc
// @Summary Export search results as CSV
// @Tags Export
// @Produce text/csv
// @Param sort query string false "Sort key"
// @Success 200 {string} string "CSV payload"
// @Router /admin/export/listings [get]
func (h *ExportHandler) SearchCSV(c *gin.Context) {
	criteria := service.CriteriaFromParams(c.Request.URL.Query())
	data, err := h.exports.SearchCSV(c.Request.Context(), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("listings-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ListingPDF godoc
// @Summary Export one listing as a PDF sheet
// @Tags Export
// @Produce application/pdf
// @Param id path string true "Listing ID"
// @Success 200 {string} string "PDF payload"
// @Router /admin/export/listings/{id} [get]
func (h *ExportHandler) ListingPDF(c *gin.Context) {
	id := c.Param("id")
	data, err := h.exports.ListingPDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "listing-"+id+".pdf"))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", data)
}
