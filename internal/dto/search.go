package dto

import "github.com/openlistr/listings-api/internal/models"

// SearchResult is one page of listing search output.
type SearchResult struct {
	Items      []SearchItem      `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// SearchItem is a matched listing with its decoded attribute values.
type SearchItem struct {
	models.Listing
	Attributes map[string]any `json:"attributes,omitempty"`
}
