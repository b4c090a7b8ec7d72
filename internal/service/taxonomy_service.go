package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openlistr/listings-api/internal/models"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
)

type taxonomyReader interface {
	ListTerms(ctx context.Context, kind models.TaxonomyKind) ([]models.Term, error)
	TermCounts(ctx context.Context, kind models.TaxonomyKind) ([]models.TermCount, error)
}

// TaxonomyService serves category and tag reads. Count aggregates run through
// the remember-cache: staleness up to the TTL is acceptable for navigation
// counts and never for anything authoritative.
type TaxonomyService struct {
	repo     taxonomyReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewTaxonomyService constructs a TaxonomyService.
func NewTaxonomyService(repo taxonomyReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *TaxonomyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxonomyService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Terms lists all terms of a kind.
func (s *TaxonomyService) Terms(ctx context.Context, kind models.TaxonomyKind) ([]models.Term, error) {
	terms, err := s.repo.ListTerms(ctx, kind)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// TermsWithCounts lists terms of a kind with published-listing counts,
// served from cache when warm.
func (s *TaxonomyService) TermsWithCounts(ctx context.Context, kind models.TaxonomyKind) ([]models.TermCount, error) {
	var counts []models.TermCount
	key := "taxonomy:counts:" + string(kind)
	err := s.cache.Remember(ctx, key, s.cacheTTL, &counts, func(ctx context.Context) (interface{}, error) {
		return s.repo.TermCounts(ctx, kind)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count terms")
	}
	return counts, nil
}
