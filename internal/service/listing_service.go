package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openlistr/listings-api/internal/dto"
	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/models"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

type listingRepository interface {
	Insert(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	Delete(ctx context.Context, id string) error
}

type attachmentStore interface {
	GetAll(ctx context.Context, listingID string) (map[string]string, error)
	SetAll(ctx context.Context, listingID string, values map[string]string) error
	Delete(ctx context.Context, listingID, fieldName string) error
	DeleteAll(ctx context.Context, listingID string) error
}

type taxonomyStore interface {
	FindTermBySlug(ctx context.Context, kind models.TaxonomyKind, slug string) (*models.Term, error)
	SetListingTerms(ctx context.Context, listingID string, kind models.TaxonomyKind, termIDs []string) error
	ListingTerms(ctx context.Context, listingID string) ([]models.Term, error)
	DeleteListingTerms(ctx context.Context, listingID string) error
}

// ListingService orchestrates listing CRUD. Every attribute write passes
// through the field validator's ProcessFields; nothing is persisted around it.
type ListingService struct {
	repo        listingRepository
	attachments attachmentStore
	taxonomy    taxonomyStore
	registry    *fields.Registry
	validator   *fields.Validator
	structs     *validator.Validate
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewListingService constructs a ListingService.
func NewListingService(repo listingRepository, attachments attachmentStore, taxonomy taxonomyStore,
	registry *fields.Registry, fieldValidator *fields.Validator, structs *validator.Validate,
	cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ListingService {
	if structs == nil {
		structs = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{
		repo:        repo,
		attachments: attachments,
		taxonomy:    taxonomy,
		registry:    registry,
		validator:   fieldValidator,
		structs:     structs,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// Create stores a new listing from the admin path. Admin-only fields are
// accepted here.
func (s *ListingService) Create(ctx context.Context, req dto.CreateListingRequest) (*models.ListingDetail, error) {
	if err := s.structs.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	return s.create(ctx, req.Title, req.Description, listingStatus(req.Status, models.ListingStatusDraft),
		req.CategoryID, req.Tags, req.Attributes, fields.Options{})
}

// Submit stores a new listing from the public submission path. Admin-only
// fields are stripped before processing and the listing lands as pending.
func (s *ListingService) Submit(ctx context.Context, req dto.SubmissionRequest) (*models.ListingDetail, error) {
	if err := s.structs.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	opts := fields.Options{Exclude: s.adminOnlyFieldNames()}
	return s.create(ctx, req.Title, req.Description, models.ListingStatusPending,
		req.CategoryID, nil, req.Attributes, opts)
}

func (s *ListingService) create(ctx context.Context, title, description string, status models.ListingStatus,
	categoryID *string, tags []string, attributes map[string]any, opts fields.Options) (*models.ListingDetail, error) {

	result := s.validator.ProcessFields(attributes, opts)
	if !result.Valid {
		s.recordFailures(result.Errors)
		return nil, result.Errors
	}

	listing := &models.Listing{
		ID:          uuid.NewString(),
		Title:       title,
		Slug:        slugify(title),
		Description: description,
		Status:      status,
		CategoryID:  categoryID,
	}
	if err := s.repo.Insert(ctx, listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}

	encoded, err := s.encodeAttributes(result.Values)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode attributes")
	}
	if err := s.attachments.SetAll(ctx, listing.ID, encoded); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attributes")
	}

	if err := s.applyTags(ctx, listing.ID, tags); err != nil {
		return nil, err
	}
	s.invalidateDerived(ctx)

	return s.detail(ctx, listing)
}

// Update rewrites a listing and its attributes from the admin path.
func (s *ListingService) Update(ctx context.Context, id string, req dto.UpdateListingRequest) (*models.ListingDetail, error) {
	if err := s.structs.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}

	result := s.validator.ProcessFields(req.Attributes, fields.Options{})
	if !result.Valid {
		s.recordFailures(result.Errors)
		return nil, result.Errors
	}

	listing.Title = req.Title
	listing.Slug = slugify(req.Title)
	listing.Description = req.Description
	listing.Status = listingStatus(req.Status, listing.Status)
	listing.CategoryID = req.CategoryID
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update listing")
	}

	encoded, err := s.encodeAttributes(result.Values)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode attributes")
	}
	if err := s.attachments.SetAll(ctx, id, encoded); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attributes")
	}
	for name, value := range result.Values {
		if fields.IsEmptyValue(value) {
			if err := s.attachments.Delete(ctx, id, name); err != nil {
				s.logger.Warn("failed to clear empty attribute", zap.String("field", name), zap.Error(err))
			}
		}
	}

	if err := s.applyTags(ctx, id, req.Tags); err != nil {
		return nil, err
	}
	s.invalidateDerived(ctx)

	return s.detail(ctx, listing)
}

// Get returns one listing with decoded attributes.
func (s *ListingService) Get(ctx context.Context, id string) (*models.ListingDetail, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	return s.detail(ctx, listing)
}

// GetPublished loads a listing for the public display surface. Anything not
// published reads as missing, and admin-only attribute values are withheld
// so knowing a UUID never exposes more than the published page shows.
func (s *ListingService) GetPublished(ctx context.Context, id string) (*models.ListingDetail, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail.Status != models.ListingStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
	}

	public := make(map[string]any, len(detail.Attributes))
	for name, value := range detail.Attributes {
		if def, ok := s.registry.Field(name); ok && def.AdminOnly {
			continue
		}
		public[name] = value
	}
	detail.Attributes = public
	return detail, nil
}

// Delete removes a listing and cascades its attribute and term attachments.
func (s *ListingService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete listing")
	}
	if err := s.attachments.DeleteAll(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attributes")
	}
	if err := s.taxonomy.DeleteListingTerms(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach terms")
	}
	s.invalidateDerived(ctx)
	return nil
}

// DecodeAttributes converts stored attribute values back to their clean form.
// Values whose field is no longer registered, or whose stored form no longer
// decodes, pass through as raw strings: schema drift degrades, never crashes.
func (s *ListingService) DecodeAttributes(stored map[string]string) map[string]any {
	out := make(map[string]any, len(stored))
	for name, raw := range stored {
		_, h, ok := s.registry.HandlerFor(name)
		if !ok {
			out[name] = raw
			continue
		}
		decoded, err := h.FromStorage(raw)
		if err != nil {
			s.logger.Warn("stored attribute no longer decodes", zap.String("field", name), zap.Error(err))
			out[name] = raw
			continue
		}
		out[name] = decoded
	}
	return out
}

func (s *ListingService) detail(ctx context.Context, listing *models.Listing) (*models.ListingDetail, error) {
	stored, err := s.attachments.GetAll(ctx, listing.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attributes")
	}
	terms, err := s.taxonomy.ListingTerms(ctx, listing.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load terms")
	}
	tags := make([]string, 0, len(terms))
	for _, term := range terms {
		if term.Kind == models.TaxonomyTag {
			tags = append(tags, term.Slug)
		}
	}
	return &models.ListingDetail{
		Listing:    *listing,
		Attributes: s.DecodeAttributes(stored),
		Tags:       tags,
	}, nil
}

// encodeAttributes converts sanitized clean values to their storage form.
// Unknown field names are stored opaquely, preserving the pass-through
// contract; empty values are skipped.
func (s *ListingService) encodeAttributes(values map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for name, value := range values {
		if fields.IsEmptyValue(value) {
			continue
		}
		_, h, ok := s.registry.HandlerFor(name)
		if !ok {
			if str, isString := value.(string); isString {
				out[name] = str
				continue
			}
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, err
			}
			out[name] = string(raw)
			continue
		}
		stored, err := h.ToStorage(value)
		if err != nil {
			return nil, err
		}
		out[name] = stored
	}
	return out, nil
}

func (s *ListingService) applyTags(ctx context.Context, listingID string, tags []string) error {
	if tags == nil {
		return nil
	}
	termIDs := make([]string, 0, len(tags))
	for _, slug := range tags {
		term, err := s.taxonomy.FindTermBySlug(ctx, models.TaxonomyTag, slug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("skipping unknown tag", zap.String("tag", slug))
				continue
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve tag")
		}
		termIDs = append(termIDs, term.ID)
	}
	if err := s.taxonomy.SetListingTerms(ctx, listingID, models.TaxonomyTag, termIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach tags")
	}
	return nil
}

func (s *ListingService) adminOnlyFieldNames() []string {
	adminOnly := true
	defs := s.registry.ListFields(fields.ListFilter{AdminOnly: &adminOnly})
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}

func (s *ListingService) recordFailures(agg *fields.AggregateError) {
	if agg == nil {
		return
	}
	for _, e := range agg.Errors {
		s.metrics.RecordValidationFailure(e.Field)
	}
}

func (s *ListingService) invalidateDerived(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, "taxonomy:*")
	}
}

func listingStatus(raw string, fallback models.ListingStatus) models.ListingStatus {
	switch models.ListingStatus(raw) {
	case models.ListingStatusDraft, models.ListingStatusPending, models.ListingStatusPublished, models.ListingStatusArchived:
		return models.ListingStatus(raw)
	}
	return fallback
}
