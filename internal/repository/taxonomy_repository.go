package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/openlistr/listings-api/internal/models"
)

// TaxonomyRepository resolves category/tag terms and their listing relations.
type TaxonomyRepository struct {
	db *sqlx.DB
}

// NewTaxonomyRepository constructs a TaxonomyRepository.
func NewTaxonomyRepository(db *sqlx.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ListTerms returns all terms of one kind ordered by name.
func (r *TaxonomyRepository) ListTerms(ctx context.Context, kind models.TaxonomyKind) ([]models.Term, error) {
	var terms []models.Term
	query := "SELECT id, kind, name, slug FROM terms WHERE kind = $1 ORDER BY name ASC"
	if err := r.db.SelectContext(ctx, &terms, query, kind); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// TermCounts returns terms of one kind with the number of published listings
// attached to each.
func (r *TaxonomyRepository) TermCounts(ctx context.Context, kind models.TaxonomyKind) ([]models.TermCount, error) {
	var counts []models.TermCount
	query := `SELECT t.id, t.kind, t.name, t.slug, COUNT(l.id) AS listing_count
        FROM terms t
        LEFT JOIN listing_terms lt ON lt.term_id = t.id
        LEFT JOIN listings l ON l.id = lt.listing_id AND l.status = $2
        WHERE t.kind = $1
        GROUP BY t.id, t.kind, t.name, t.slug
        ORDER BY t.name ASC`
	if err := r.db.SelectContext(ctx, &counts, query, kind, models.ListingStatusPublished); err != nil {
		return nil, fmt.Errorf("term counts: %w", err)
	}
	return counts, nil
}

// FindTermBySlug resolves one term.
func (r *TaxonomyRepository) FindTermBySlug(ctx context.Context, kind models.TaxonomyKind, slug string) (*models.Term, error) {
	var term models.Term
	query := "SELECT id, kind, name, slug FROM terms WHERE kind = $1 AND slug = $2"
	if err := r.db.GetContext(ctx, &term, query, kind, slug); err != nil {
		return nil, err
	}
	return &term, nil
}

// ListingTerms returns the terms attached to one listing.
func (r *TaxonomyRepository) ListingTerms(ctx context.Context, listingID string) ([]models.Term, error) {
	var terms []models.Term
	query := `SELECT t.id, t.kind, t.name, t.slug FROM terms t
        JOIN listing_terms lt ON lt.term_id = t.id
        WHERE lt.listing_id = $1 ORDER BY t.name ASC`
	if err := r.db.SelectContext(ctx, &terms, query, listingID); err != nil {
		return nil, fmt.Errorf("listing terms: %w", err)
	}
	return terms, nil
}

// SetListingTerms replaces a listing's term attachments of one kind.
func (r *TaxonomyRepository) SetListingTerms(ctx context.Context, listingID string, kind models.TaxonomyKind, termIDs []string) error {
	clear := `DELETE FROM listing_terms lt USING terms t
        WHERE lt.term_id = t.id AND lt.listing_id = $1 AND t.kind = $2`
	if _, err := r.db.ExecContext(ctx, clear, listingID, kind); err != nil {
		return fmt.Errorf("clear listing terms: %w", err)
	}
	if len(termIDs) == 0 {
		return nil
	}
	values := make([]string, 0, len(termIDs))
	args := []interface{}{listingID}
	for _, id := range termIDs {
		args = append(args, id)
		values = append(values, fmt.Sprintf("($1, $%d)", len(args)))
	}
	insert := fmt.Sprintf("INSERT INTO listing_terms (listing_id, term_id) VALUES %s ON CONFLICT DO NOTHING",
		strings.Join(values, ", "))
	if _, err := r.db.ExecContext(ctx, insert, args...); err != nil {
		return fmt.Errorf("attach listing terms: %w", err)
	}
	return nil
}

// DeleteListingTerms removes every term attachment for a listing.
func (r *TaxonomyRepository) DeleteListingTerms(ctx context.Context, listingID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM listing_terms WHERE listing_id = $1", listingID); err != nil {
		return fmt.Errorf("delete listing terms: %w", err)
	}
	return nil
}
