package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlistr/listings-api/internal/dto"
	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/pkg/csrf"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
	"github.com/openlistr/listings-api/pkg/response"
)

// adminFormID scopes anti-forgery tokens to the admin editing form.
const adminFormID = "listing-admin"

type listingManager interface {
	Create(ctx context.Context, req dto.CreateListingRequest) (*models.ListingDetail, error)
	Update(ctx context.Context, id string, req dto.UpdateListingRequest) (*models.ListingDetail, error)
	Get(ctx context.Context, id string) (*models.ListingDetail, error)
	Delete(ctx context.Context, id string) error
}

// AdminListingHandler exposes the management surface: full CRUD over
// listings plus the admin-context form fragment.
type AdminListingHandler struct {
	listings listingManager
	renderer *fields.Renderer
	signer   *csrf.Signer
}

// NewAdminListingHandler builds a new handler.
func NewAdminListingHandler(listings listingManager, renderer *fields.Renderer, signer *csrf.Signer) *AdminListingHandler {
	return &AdminListingHandler{listings: listings, renderer: renderer, signer: signer}
}

// Create godoc
// @Summary Create a listing
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateListingRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Router /admin/listings [post]
func (h *AdminListingHandler) Create(c *gin.Context) {
	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}

	detail, err := h.listings.Create(c.Request.Context(), req)
	if err != nil {
		respondFieldErrors(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update a listing
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Listing ID"
// @Param payload body dto.UpdateListingRequest true "Listing payload"
// @Success 200 {object} response.Envelope
// @Router /admin/listings/{id} [put]
func (h *AdminListingHandler) Update(c *gin.Context) {
	var req dto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}

	detail, err := h.listings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondFieldErrors(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Get godoc
// @Summary Get a listing with all attributes, drafts included
// @Tags Admin
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /admin/listings/{id} [get]
func (h *AdminListingHandler) Get(c *gin.Context) {
	detail, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete a listing and its attributes
// @Tags Admin
// @Param id path string true "Listing ID"
// @Success 204 "No Content"
// @Router /admin/listings/{id} [delete]
func (h *AdminListingHandler) Delete(c *gin.Context) {
	if err := h.listings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Form godoc
// @Summary Render the admin editing form fragment
// @Tags Admin
// @Produce json
// @Param id path string false "Listing ID to pre-fill; omit for a blank form"
// @Success 200 {object} response.Envelope
// @Router /admin/listings/{id}/form [get]
func (h *AdminListingHandler) Form(c *gin.Context) {
	token, err := h.signer.Issue(adminFormID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var values map[string]any
	itemID := ""
	if id := c.Param("id"); id != "" {
		detail, err := h.listings.Get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		values = detail.Attributes
		itemID = detail.ID
	}

	fragment := h.renderer.RenderAdminFields(values, fields.RenderArgs{}, itemID, token)
	response.JSON(c, http.StatusOK, dto.FormResponse{Fragment: fragment, Token: token}, nil)
}
