package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlistr/listings-api/internal/dto"
	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/pkg/csrf"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
	"github.com/openlistr/listings-api/pkg/response"
)

// submissionFormID scopes anti-forgery tokens to the public submission form.
const submissionFormID = "listing-submit"

type submitter interface {
	Submit(ctx context.Context, req dto.SubmissionRequest) (*models.ListingDetail, error)
}

// SubmissionHandler exposes the public submission form and its save path.
type SubmissionHandler struct {
	listings submitter
	renderer *fields.Renderer
	signer   *csrf.Signer
}

// NewSubmissionHandler builds a new handler.
func NewSubmissionHandler(listings submitter, renderer *fields.Renderer, signer *csrf.Signer) *SubmissionHandler {
	return &SubmissionHandler{listings: listings, renderer: renderer, signer: signer}
}

// Form godoc
// @Summary Render the public submission form fragment
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submissions/form [get]
func (h *SubmissionHandler) Form(c *gin.Context) {
	token, err := h.signer.Issue(submissionFormID)
	if err != nil {
		response.Error(c, err)
		return
	}
	fragment := h.renderer.RenderFrontendFields(nil, fields.RenderArgs{}, "", token)
	response.JSON(c, http.StatusOK, dto.FormResponse{Fragment: fragment, Token: token}, nil)
}

// Submit godoc
// @Summary Submit a new listing
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body dto.SubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req dto.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	if err := h.signer.Verify(submissionFormID, req.Token); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidToken, "submission token rejected"))
		return
	}

	detail, err := h.listings.Submit(c.Request.Context(), req)
	if err != nil {
		respondFieldErrors(c, err)
		return
	}
	response.Created(c, detail)
}

// respondFieldErrors renders an aggregate validation failure as a complete
// per-field error report; anything else falls back to the standard envelope.
func respondFieldErrors(c *gin.Context, err error) {
	var agg *fields.AggregateError
	if errors.As(err, &agg) {
		response.ValidationFailed(c, agg.ByField())
		return
	}
	response.Error(c, err)
}
