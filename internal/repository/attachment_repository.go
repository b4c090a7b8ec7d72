package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

// AttachmentRepository persists per-listing attribute values keyed by
// (listing_id, field_name). Values are the handlers' storage encoding and are
// treated as opaque strings here.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs an AttachmentRepository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Get returns the stored value for one field of one listing.
func (r *AttachmentRepository) Get(ctx context.Context, listingID, fieldName string) (string, error) {
	var value string
	query := "SELECT value FROM listing_attributes WHERE listing_id = $1 AND field_name = $2"
	if err := r.db.GetContext(ctx, &value, query, listingID, fieldName); err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "attribute not found")
		}
		return "", fmt.Errorf("get attribute %s: %w", fieldName, err)
	}
	return value, nil
}

// GetAll returns every stored field value for a listing.
func (r *AttachmentRepository) GetAll(ctx context.Context, listingID string) (map[string]string, error) {
	rows := []struct {
		FieldName string `db:"field_name"`
		Value     string `db:"value"`
	}{}
	query := "SELECT field_name, value FROM listing_attributes WHERE listing_id = $1"
	if err := r.db.SelectContext(ctx, &rows, query, listingID); err != nil {
		return nil, fmt.Errorf("get attributes: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.FieldName] = row.Value
	}
	return out, nil
}

// GetAllBatch returns stored field values for many listings in one query.
func (r *AttachmentRepository) GetAllBatch(ctx context.Context, listingIDs []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(listingIDs))
	if len(listingIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(listingIDs))
	args := make([]interface{}, len(listingIDs))
	for i, id := range listingIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows := []struct {
		ListingID string `db:"listing_id"`
		FieldName string `db:"field_name"`
		Value     string `db:"value"`
	}{}
	query := fmt.Sprintf("SELECT listing_id, field_name, value FROM listing_attributes WHERE listing_id IN (%s)",
		strings.Join(placeholders, ", "))
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("batch get attributes: %w", err)
	}
	for _, row := range rows {
		if out[row.ListingID] == nil {
			out[row.ListingID] = make(map[string]string)
		}
		out[row.ListingID][row.FieldName] = row.Value
	}
	return out, nil
}

// Set upserts one field value.
func (r *AttachmentRepository) Set(ctx context.Context, listingID, fieldName, value string) error {
	query := `INSERT INTO listing_attributes (listing_id, field_name, value, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (listing_id, field_name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, listingID, fieldName, value); err != nil {
		return fmt.Errorf("set attribute %s: %w", fieldName, err)
	}
	return nil
}

// SetAll upserts many field values for one listing.
func (r *AttachmentRepository) SetAll(ctx context.Context, listingID string, values map[string]string) error {
	for fieldName, value := range values {
		if err := r.Set(ctx, listingID, fieldName, value); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one field value.
func (r *AttachmentRepository) Delete(ctx context.Context, listingID, fieldName string) error {
	query := "DELETE FROM listing_attributes WHERE listing_id = $1 AND field_name = $2"
	if _, err := r.db.ExecContext(ctx, query, listingID, fieldName); err != nil {
		return fmt.Errorf("delete attribute %s: %w", fieldName, err)
	}
	return nil
}

// DeleteAll removes every field value owned by a listing; called when the
// owning listing is deleted.
func (r *AttachmentRepository) DeleteAll(ctx context.Context, listingID string) error {
	query := "DELETE FROM listing_attributes WHERE listing_id = $1"
	if _, err := r.db.ExecContext(ctx, query, listingID); err != nil {
		return fmt.Errorf("delete attributes: %w", err)
	}
	return nil
}
