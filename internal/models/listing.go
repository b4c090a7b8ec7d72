package models

import "time"

// ListingStatus enumerates the publication states of a listing.
type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "draft"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusPublished ListingStatus = "published"
	ListingStatusArchived  ListingStatus = "archived"
)

// Listing is the primary content item attribute values attach to.
type Listing struct {
	ID          string        `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Slug        string        `db:"slug" json:"slug"`
	Description string        `db:"description" json:"description"`
	Status      ListingStatus `db:"status" json:"status"`
	CategoryID  *string       `db:"category_id" json:"category_id,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// ListingDetail bundles a listing with its decoded attribute values and tags.
type ListingDetail struct {
	Listing
	Attributes map[string]any `json:"attributes"`
	Tags       []string       `json:"tags"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
