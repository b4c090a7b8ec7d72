package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openlistr/listings-api/internal/dto"
	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/internal/search"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

type attachmentBatchReader interface {
	GetAllBatch(ctx context.Context, listingIDs []string) (map[string]map[string]string, error)
}

type attributeDecoder interface {
	DecodeAttributes(stored map[string]string) map[string]any
}

// SearchService maps raw request parameters onto the search engine and
// decorates the result page with decoded attribute values.
type SearchService struct {
	engine      *search.Engine
	attachments attachmentBatchReader
	decoder     attributeDecoder
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSearchService constructs a SearchService.
func NewSearchService(engine *search.Engine, attachments attachmentBatchReader, decoder attributeDecoder,
	metrics *MetricsService, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{engine: engine, attachments: attachments, decoder: decoder, metrics: metrics, logger: logger}
}

// CriteriaFromParams builds search criteria from raw query parameters.
// Reserved keys (sort, page, page_size) are peeled off; everything else is
// treated as a filter name, valid or not; the engine ignores strays.
func CriteriaFromParams(params map[string][]string) search.Criteria {
	c := search.Criteria{Filters: make(map[string][]string)}
	for key, values := range params {
		switch key {
		case "sort":
			if len(values) > 0 {
				c.Sort = values[0]
			}
		case "page":
			if len(values) > 0 {
				c.Page, _ = strconv.Atoi(values[0])
			}
		case "page_size":
			if len(values) > 0 {
				c.PageSize, _ = strconv.Atoi(values[0])
			}
		default:
			c.Filters[key] = values
		}
	}
	return c
}

// Search executes the criteria and returns one result page.
func (s *SearchService) Search(ctx context.Context, criteria search.Criteria) (*dto.SearchResult, error) {
	start := time.Now()
	listings, pagination, err := s.engine.Search(ctx, criteria)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "search failed")
	}
	s.metrics.ObserveSearch(time.Since(start))
	return s.decorate(ctx, listings, pagination)
}

// SearchAll executes the criteria as a single page of up to maxRows results,
// bypassing the request page-size clamp. Export paths use this so their row
// budget is not silently cut down to the public page size.
func (s *SearchService) SearchAll(ctx context.Context, criteria search.Criteria, maxRows int) (*dto.SearchResult, error) {
	start := time.Now()
	listings, pagination, err := s.engine.SearchCapped(ctx, criteria, maxRows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "search failed")
	}
	s.metrics.ObserveSearch(time.Since(start))
	return s.decorate(ctx, listings, pagination)
}

func (s *SearchService) decorate(ctx context.Context, listings []models.Listing, pagination models.Pagination) (*dto.SearchResult, error) {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	stored, err := s.attachments.GetAllBatch(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result attributes")
	}

	items := make([]dto.SearchItem, 0, len(listings))
	for _, l := range listings {
		items = append(items, dto.SearchItem{
			Listing:    l,
			Attributes: s.decoder.DecodeAttributes(stored[l.ID]),
		})
	}
	return &dto.SearchResult{Items: items, Pagination: pagination}, nil
}

// PublishedOnly forces a structural status predicate so public searches never
// leak drafts regardless of requested filters.
func PublishedOnly(c search.Criteria) search.Criteria {
	if c.Filters == nil {
		c.Filters = make(map[string][]string)
	}
	c.Filters["status"] = []string{string(models.ListingStatusPublished)}
	return c
}
