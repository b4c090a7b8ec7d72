package dto

import (
	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/pkg/csrf"
)

// CreateListingRequest is the admin create payload. Attributes carries the
// raw dynamic field values keyed by field name.
type CreateListingRequest struct {
	Title       string         `json:"title" validate:"required,min=3,max=200"`
	Description string         `json:"description" validate:"max=10000"`
	Status      string         `json:"status" validate:"omitempty,oneof=draft pending published archived"`
	CategoryID  *string        `json:"category_id"`
	Tags        []string       `json:"tags"`
	Attributes  map[string]any `json:"attributes"`
}

// UpdateListingRequest is the admin update payload.
type UpdateListingRequest struct {
	Title       string         `json:"title" validate:"required,min=3,max=200"`
	Description string         `json:"description" validate:"max=10000"`
	Status      string         `json:"status" validate:"omitempty,oneof=draft pending published archived"`
	CategoryID  *string        `json:"category_id"`
	Tags        []string       `json:"tags"`
	Attributes  map[string]any `json:"attributes"`
}

// SubmissionRequest is the public submission payload. Token is the
// anti-forgery value issued with the rendered form.
type SubmissionRequest struct {
	Title       string         `json:"title" validate:"required,min=3,max=200"`
	Description string         `json:"description" validate:"max=10000"`
	CategoryID  *string        `json:"category_id"`
	Attributes  map[string]any `json:"attributes"`
	Token       string         `json:"token" validate:"required"`
}

// ListingResponse is a listing with decoded attributes and, when requested,
// the display-context markup fragment.
type ListingResponse struct {
	models.ListingDetail
	Fragment string `json:"fragment,omitempty"`
}

// FormResponse carries a rendered form fragment plus the token pair embedded
// in it, for clients that assemble their own markup.
type FormResponse struct {
	Fragment string         `json:"fragment"`
	Token    csrf.TokenPair `json:"token"`
}

// FieldErrorsMeta is attached to validation failure responses so clients can
// show every field error at once.
type FieldErrorsMeta struct {
	Fields map[string]string `json:"fields"`
}
