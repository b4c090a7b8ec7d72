package models

// TaxonomyKind distinguishes the structural relations listings participate in.
type TaxonomyKind string

const (
	TaxonomyCategory TaxonomyKind = "category"
	TaxonomyTag      TaxonomyKind = "tag"
)

// Term is a single category or tag.
type Term struct {
	ID   string       `db:"id" json:"id"`
	Kind TaxonomyKind `db:"kind" json:"kind"`
	Name string       `db:"name" json:"name"`
	Slug string       `db:"slug" json:"slug"`
}

// TermCount pairs a term with the number of published listings attached to it.
type TermCount struct {
	Term
	ListingCount int `db:"listing_count" json:"listing_count"`
}
