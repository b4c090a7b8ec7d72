package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

func TestAttachmentRepositoryGetMiss(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttachmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM listing_attributes WHERE listing_id = $1 AND field_name = $2")).
		WithArgs("l1", "price").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := repo.Get(context.Background(), "l1", "price")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryGetAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttachmentRepository(db)

	rows := sqlmock.NewRows([]string{"field_name", "value"}).
		AddRow("price", "12.5").
		AddRow("amenities", `["wifi","parking"]`)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT field_name, value FROM listing_attributes WHERE listing_id = $1")).
		WithArgs("l1").
		WillReturnRows(rows)

	values, err := repo.GetAll(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"price":     "12.5",
		"amenities": `["wifi","parking"]`,
	}, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryGetAllBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttachmentRepository(db)

	rows := sqlmock.NewRows([]string{"listing_id", "field_name", "value"}).
		AddRow("l1", "price", "10").
		AddRow("l2", "price", "20").
		AddRow("l2", "tagline", "hello")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT listing_id, field_name, value FROM listing_attributes WHERE listing_id IN ($1, $2)")).
		WithArgs("l1", "l2").
		WillReturnRows(rows)

	out, err := repo.GetAllBatch(context.Background(), []string{"l1", "l2"})
	require.NoError(t, err)
	assert.Equal(t, "10", out["l1"]["price"])
	assert.Equal(t, "hello", out["l2"]["tagline"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryGetAllBatchEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttachmentRepository(db)

	out, err := repo.GetAllBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAttachmentRepositorySetUpserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttachmentRepository(db)

	mock.ExpectExec("INSERT INTO listing_attributes").
		WithArgs("l1", "price", "12.5").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Set(context.Background(), "l1", "price", "12.5"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentRepositoryDeleteAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttachmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listing_attributes WHERE listing_id = $1")).
		WithArgs("l1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteAll(context.Background(), "l1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
