package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/internal/search"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func listingRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "slug", "description", "status", "category_id", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "Listing "+id, "listing-"+id, "", "published", nil, time.Now(), time.Now())
	}
	return rows
}

func TestListingRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT l.id, l.title, l.slug, l.description, l.status, l.category_id, l.created_at, l.updated_at FROM listings l WHERE l.id = $1")).
		WithArgs("l1").
		WillReturnRows(listingRows("l1"))

	listing, err := repo.FindByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "l1", listing.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectExec("UPDATE listings SET").
		WithArgs("ghost", "Title", "title", "", models.ListingStatusDraft, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Listing{
		ID: "ghost", Title: "Title", Slug: "title", Status: models.ListingStatusDraft,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listings WHERE id = $1")).
		WithArgs("l1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "l1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listings WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositorySearchNoPredicates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	plan := search.Plan{
		Sort:  search.SortSpec{Structural: search.StructuralCreatedAt, Desc: true},
		Limit: 20, Page: 1,
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM listings l WHERE 1=1 ORDER BY l.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(listingRows("l1", "l2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM listings l WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	items, total, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositorySearchPredicateClauses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	plan := search.Plan{
		Predicates: []search.Predicate{
			{Source: search.SourceStructural, Ref: search.StructuralStatus, Operator: search.OpEquals, Values: []string{"published"}},
			{Source: search.SourceTaxonomy, Ref: "category", Operator: search.OpEquals, Values: []string{"cafes"}},
			{Source: search.SourceField, Ref: "price", Operator: search.OpRange, Values: []string{"10", "250"}, Numeric: true},
			{Source: search.SourceField, Ref: "amenities", Operator: search.OpContains, Values: []string{"wifi"}, Multi: true},
		},
		Sort:  search.SortSpec{Structural: search.StructuralCreatedAt, Desc: true},
		Limit: 20, Page: 1,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`l.status IN ($1)`)).
		WithArgs("published", "category", "cafes", "price", "10", "250", "amenities", `"wifi"`).
		WillReturnRows(listingRows("l1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("published", "category", "cafes", "price", "10", "250", "amenities", `"wifi"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListElementPattern(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"wifi", `"wifi"`},
		{`say "hi"`, `"say \\"hi\\""`},
		{"100%", `"100\%"`},
		{"wheel_chair", `"wheel\_chair"`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, listElementPattern(tc.value), tc.value)
	}
}

func TestListingRepositorySearchEscapesListElements(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	plan := search.Plan{
		Predicates: []search.Predicate{
			{Source: search.SourceField, Ref: "amenities", Operator: search.OpInSet, Values: []string{`say "hi"`, "100%"}, Multi: true},
		},
		Sort:  search.SortSpec{Structural: search.StructuralCreatedAt, Desc: true},
		Limit: 20, Page: 1,
	}

	// Elements match in their stored JSON-escaped form with LIKE wildcards
	// neutralized, so quoted values find themselves and % stays literal.
	mock.ExpectQuery(regexp.QuoteMeta(`(a.value LIKE '%' || $2 || '%' OR a.value LIKE '%' || $3 || '%')`)).
		WithArgs("amenities", `"say \\"hi\\""`, `"100\%"`).
		WillReturnRows(listingRows("l1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("amenities", `"say \\"hi\\""`, `"100\%"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, total, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositorySearchTitleCombinesValues(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	plan := search.Plan{
		Predicates: []search.Predicate{
			{Source: search.SourceStructural, Ref: search.StructuralTitle, Operator: search.OpContains, Values: []string{"cafe", "bar"}},
		},
		Sort:  search.SortSpec{Structural: search.StructuralCreatedAt, Desc: true},
		Limit: 20, Page: 1,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`(l.title ILIKE '%' || $1 || '%' OR l.title ILIKE '%' || $2 || '%')`)).
		WithArgs("cafe", "bar").
		WillReturnRows(listingRows("l1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("cafe", "bar").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, total, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositorySearchFieldSortTrimsCountArgs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	plan := search.Plan{
		Predicates: []search.Predicate{
			{Source: search.SourceStructural, Ref: search.StructuralStatus, Operator: search.OpEquals, Values: []string{"published"}},
		},
		Sort:  search.SortSpec{Field: "price", Numeric: true, Desc: true},
		Limit: 10, Page: 1,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`((SELECT a.value FROM listing_attributes a WHERE a.listing_id = l.id AND a.field_name = $2))::numeric DESC NULLS LAST`)).
		WithArgs("published", "price").
		WillReturnRows(listingRows("l1"))
	// The count query reuses the same WHERE but must not see the sort arg.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("published").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, total, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepositorySearchRandomOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewListingRepository(db)

	plan := search.Plan{Sort: search.SortSpec{Random: true}, Limit: 5, Page: 1}

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY RANDOM() LIMIT 5 OFFSET 0")).
		WillReturnRows(listingRows("l3"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, _, err := repo.Search(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
