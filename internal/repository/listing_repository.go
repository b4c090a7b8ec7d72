package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/internal/search"
)

const listingColumns = "l.id, l.title, l.slug, l.description, l.status, l.category_id, l.created_at, l.updated_at"

// ListingRepository manages persistence for listings and executes compiled
// search plans against them. It implements search.ContentStore.
type ListingRepository struct {
	db *sqlx.DB
}

// NewListingRepository constructs a ListingRepository.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Insert stores a new listing.
func (r *ListingRepository) Insert(ctx context.Context, listing *models.Listing) error {
	query := `INSERT INTO listings (id, title, slug, description, status, category_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.Title, listing.Slug, listing.Description, listing.Status, listing.CategoryID); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// Update rewrites the mutable listing columns.
func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	query := `UPDATE listings SET title = $2, slug = $3, description = $4, status = $5, category_id = $6, updated_at = NOW()
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.Title, listing.Slug, listing.Description, listing.Status, listing.CategoryID)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID fetches one listing.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings l WHERE l.id = $1", listingColumns)
	var listing models.Listing
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Delete removes a listing row. Attribute and term cascade is handled by the
// owning service.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Search executes a compiled plan: WHERE from the predicate clauses, ORDER BY
// from the sort spec, LIMIT/OFFSET from the pagination bounds, plus a total
// count over the same predicates.
func (r *ListingRepository) Search(ctx context.Context, plan search.Plan) ([]models.Listing, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	for _, pred := range plan.Predicates {
		clause, ok := buildClause(pred, &args)
		if !ok {
			continue
		}
		conditions = append(conditions, clause)
	}

	where := strings.Join(conditions, " AND ")
	orderBy := buildOrder(plan.Sort, &args)

	query := fmt.Sprintf("SELECT %s FROM listings l WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		listingColumns, where, orderBy, plan.Limit, plan.Offset)

	var listings []models.Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search listings: %w", err)
	}

	countArgs := args
	if plan.Sort.Field != "" {
		// The order-by subquery appended one arg that the count must not see.
		countArgs = args[:len(args)-1]
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM listings l WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}
	return listings, total, nil
}

// buildClause turns one predicate into SQL, appending its bind values.
func buildClause(pred search.Predicate, args *[]interface{}) (string, bool) {
	switch pred.Source {
	case search.SourceField:
		return buildFieldClause(pred, args)
	case search.SourceTaxonomy:
		return buildTaxonomyClause(pred, args)
	case search.SourceStructural:
		return buildStructuralClause(pred, args)
	}
	return "", false
}

func buildFieldClause(pred search.Predicate, args *[]interface{}) (string, bool) {
	if len(pred.Values) == 0 {
		return "", false
	}
	*args = append(*args, pred.Ref)
	fieldArg := len(*args)
	base := fmt.Sprintf("SELECT 1 FROM listing_attributes a WHERE a.listing_id = l.id AND a.field_name = $%d AND ", fieldArg)

	var match string
	switch pred.Operator {
	case search.OpRange:
		low, high := pred.Values[0], ""
		if len(pred.Values) > 1 {
			high = pred.Values[1]
		}
		var bounds []string
		expr := "a.value"
		if pred.Numeric {
			expr = "(a.value)::numeric"
		}
		if low != "" {
			*args = append(*args, low)
			cast := fmt.Sprintf("$%d", len(*args))
			if pred.Numeric {
				cast = fmt.Sprintf("($%d)::numeric", len(*args))
			}
			bounds = append(bounds, fmt.Sprintf("%s >= %s", expr, cast))
		}
		if high != "" {
			*args = append(*args, high)
			cast := fmt.Sprintf("$%d", len(*args))
			if pred.Numeric {
				cast = fmt.Sprintf("($%d)::numeric", len(*args))
			}
			bounds = append(bounds, fmt.Sprintf("%s <= %s", expr, cast))
		}
		if len(bounds) == 0 {
			return "", false
		}
		match = strings.Join(bounds, " AND ")
	case search.OpContains:
		if pred.Multi {
			// List encodings are matched element-wise inside the stored JSON array.
			ors := make([]string, 0, len(pred.Values))
			for _, v := range pred.Values {
				*args = append(*args, listElementPattern(v))
				ors = append(ors, fmt.Sprintf(`a.value LIKE '%%' || $%d || '%%'`, len(*args)))
			}
			match = "(" + strings.Join(ors, " OR ") + ")"
		} else {
			ors := make([]string, 0, len(pred.Values))
			for _, v := range pred.Values {
				*args = append(*args, v)
				ors = append(ors, fmt.Sprintf("a.value ILIKE '%%' || $%d || '%%'", len(*args)))
			}
			match = "(" + strings.Join(ors, " OR ") + ")"
		}
	default: // equals / in-set membership
		if pred.Multi {
			ors := make([]string, 0, len(pred.Values))
			for _, v := range pred.Values {
				*args = append(*args, listElementPattern(v))
				ors = append(ors, fmt.Sprintf(`a.value LIKE '%%' || $%d || '%%'`, len(*args)))
			}
			match = "(" + strings.Join(ors, " OR ") + ")"
		} else {
			placeholders := make([]string, 0, len(pred.Values))
			for _, v := range pred.Values {
				*args = append(*args, v)
				placeholders = append(placeholders, fmt.Sprintf("$%d", len(*args)))
			}
			match = fmt.Sprintf("a.value IN (%s)", strings.Join(placeholders, ", "))
		}
	}
	return fmt.Sprintf("EXISTS (%s%s)", base, match), true
}

// listElementPattern builds the LIKE argument that matches one element inside
// a JSON-array encoded value: the element in its stored JSON-escaped form,
// with LIKE metacharacters neutralized so requested values never act as
// wildcards.
func listElementPattern(value string) string {
	encoded, _ := json.Marshal(value)
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(string(encoded))
}

func buildTaxonomyClause(pred search.Predicate, args *[]interface{}) (string, bool) {
	if len(pred.Values) == 0 {
		return "", false
	}
	*args = append(*args, pred.Ref)
	kindArg := len(*args)
	placeholders := make([]string, 0, len(pred.Values))
	for _, v := range pred.Values {
		*args = append(*args, v)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(*args)))
	}
	return fmt.Sprintf(`EXISTS (SELECT 1 FROM listing_terms lt JOIN terms t ON t.id = lt.term_id
        WHERE lt.listing_id = l.id AND t.kind = $%d AND t.slug IN (%s))`,
		kindArg, strings.Join(placeholders, ", ")), true
}

func buildStructuralClause(pred search.Predicate, args *[]interface{}) (string, bool) {
	if len(pred.Values) == 0 {
		return "", false
	}
	switch pred.Ref {
	case search.StructuralStatus:
		placeholders := make([]string, 0, len(pred.Values))
		for _, v := range pred.Values {
			*args = append(*args, v)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(*args)))
		}
		return fmt.Sprintf("l.status IN (%s)", strings.Join(placeholders, ", ")), true
	case search.StructuralTitle:
		ors := make([]string, 0, len(pred.Values))
		for _, v := range pred.Values {
			*args = append(*args, v)
			ors = append(ors, fmt.Sprintf("l.title ILIKE '%%' || $%d || '%%'", len(*args)))
		}
		return "(" + strings.Join(ors, " OR ") + ")", true
	case search.StructuralCreatedAt:
		low, high := pred.Values[0], ""
		if len(pred.Values) > 1 {
			high = pred.Values[1]
		}
		var bounds []string
		if low != "" {
			*args = append(*args, low)
			bounds = append(bounds, fmt.Sprintf("l.created_at >= ($%d)::timestamptz", len(*args)))
		}
		if high != "" {
			*args = append(*args, high)
			bounds = append(bounds, fmt.Sprintf("l.created_at <= ($%d)::timestamptz", len(*args)))
		}
		if len(bounds) == 0 {
			return "", false
		}
		return "(" + strings.Join(bounds, " AND ") + ")", true
	}
	return "", false
}

func buildOrder(sort search.SortSpec, args *[]interface{}) string {
	if sort.Random {
		return "RANDOM()"
	}
	if sort.Field != "" {
		*args = append(*args, sort.Field)
		expr := fmt.Sprintf("(SELECT a.value FROM listing_attributes a WHERE a.listing_id = l.id AND a.field_name = $%d)", len(*args))
		if sort.Numeric {
			expr = fmt.Sprintf("(%s)::numeric", expr)
		}
		if sort.Desc {
			return expr + " DESC NULLS LAST"
		}
		return expr + " ASC NULLS LAST"
	}
	column := map[string]string{
		search.StructuralCreatedAt: "l.created_at",
		search.StructuralTitle:     "l.title",
	}[sort.Structural]
	if column == "" {
		column = "l.created_at"
	}
	if sort.Desc {
		return column + " DESC"
	}
	return column + " ASC"
}
