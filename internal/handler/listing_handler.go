package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlistr/listings-api/internal/dto"
	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/internal/search"
	"github.com/openlistr/listings-api/internal/service"
	"github.com/openlistr/listings-api/pkg/response"
)

type listingReader interface {
	GetPublished(ctx context.Context, id string) (*models.ListingDetail, error)
}

type listingSearcher interface {
	Search(ctx context.Context, criteria search.Criteria) (*dto.SearchResult, error)
}

type taxonomyLister interface {
	TermsWithCounts(ctx context.Context, kind models.TaxonomyKind) ([]models.TermCount, error)
}

// ListingHandler exposes the public display and search surface.
type ListingHandler struct {
	listings listingReader
	search   listingSearcher
	taxonomy taxonomyLister
	renderer *fields.Renderer
}

// NewListingHandler builds a new handler.
func NewListingHandler(listings listingReader, searchSvc listingSearcher, taxonomy taxonomyLister, renderer *fields.Renderer) *ListingHandler {
	return &ListingHandler{listings: listings, search: searchSvc, taxonomy: taxonomy, renderer: renderer}
}

// Search godoc
// @Summary Search published listings
// @Tags Listings
// @Produce json
// @Param sort query string false "Sort key"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /listings [get]
func (h *ListingHandler) Search(c *gin.Context) {
	criteria := service.PublishedOnly(service.CriteriaFromParams(c.Request.URL.Query()))
	result, err := h.search.Search(c.Request.Context(), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Items, &result.Pagination)
}

// Get godoc
// @Summary Get a published listing with its display fragment
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /listings/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	detail, err := h.listings.GetPublished(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	fragment := h.renderer.RenderDisplayFields(detail.Attributes, fields.RenderArgs{}, detail.ID)
	response.JSON(c, http.StatusOK, dto.ListingResponse{ListingDetail: *detail, Fragment: fragment}, nil)
}

// Categories godoc
// @Summary List categories with published listing counts
// @Tags Taxonomy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *ListingHandler) Categories(c *gin.Context) {
	counts, err := h.taxonomy.TermsWithCounts(c.Request.Context(), models.TaxonomyCategory)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Tags godoc
// @Summary List tags with published listing counts
// @Tags Taxonomy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tags [get]
func (h *ListingHandler) Tags(c *gin.Context) {
	counts, err := h.taxonomy.TermsWithCounts(c.Request.Context(), models.TaxonomyTag)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
