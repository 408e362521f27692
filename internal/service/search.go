package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"concierge/internal/catalog"
	"concierge/internal/config"
	"concierge/internal/metrics"
	"concierge/internal/model"
)

// ErrEmbeddingsUnsupported is returned when the catalog cannot store vectors
var ErrEmbeddingsUnsupported = errors.New("catalog backend does not store embeddings")

// EmbeddingWriter is implemented by catalogs that persist feature vectors
type EmbeddingWriter interface {
	BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string)
}

// ListingService handles catalog queries, recommendations and listing quotes
type ListingService struct {
	catalog    catalog.Catalog
	ranker     *Ranker
	calculator *MortgageCalculator
	metrics    *metrics.Metrics
	limits     config.CatalogConfig
}

// NewListingService creates a new listing service
func NewListingService(
	cat catalog.Catalog,
	ranker *Ranker,
	calculator *MortgageCalculator,
	limits config.CatalogConfig,
	m *metrics.Metrics,
) *ListingService {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = 20
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = 100
	}
	return &ListingService{
		catalog:    cat,
		ranker:     ranker,
		calculator: calculator,
		metrics:    m,
		limits:     limits,
	}
}

func (s *ListingService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.limits.DefaultLimit
	}
	if limit > s.limits.MaxLimit {
		return s.limits.MaxLimit
	}
	return limit
}

// List filters and sorts the catalog. Total counts every match before the limit.
func (s *ListingService) List(ctx context.Context, query model.ListingQuery) (*model.ListingsResponse, error) {
	startTime := time.Now()

	records, err := s.catalog.Filter(ctx, query.ListingCriteria)
	if err != nil {
		return nil, fmt.Errorf("failed to filter listings: %w", err)
	}
	catalog.Sort(records, query.Sort)

	total := len(records)
	if limit := s.clampLimit(query.Limit); len(records) > limit {
		records = records[:limit]
	}

	return &model.ListingsResponse{
		Results: records,
		Total:   total,
		Took:    time.Since(startTime).Milliseconds(),
	}, nil
}

// Get returns a listing or ErrListingNotFound
func (s *ListingService) Get(ctx context.Context, id int64) (*model.PropertyRecord, error) {
	p, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing %d: %w", id, err)
	}
	if p == nil {
		return nil, ErrListingNotFound
	}
	return p, nil
}

// Similar returns listings like id
func (s *ListingService) Similar(ctx context.Context, id int64, limit int) ([]model.PropertyRecord, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.limits.SimilarLimit
	}
	return s.catalog.Similar(ctx, id, limit)
}

// Featured returns the featured listings
func (s *ListingService) Featured(ctx context.Context, limit int) ([]model.PropertyRecord, error) {
	if limit <= 0 {
		limit = s.limits.FeaturedMax
	}
	return s.catalog.Featured(ctx, limit)
}

// Neighborhoods returns every neighborhood summary
func (s *ListingService) Neighborhoods(ctx context.Context) ([]model.Neighborhood, error) {
	return s.catalog.Neighborhoods(ctx)
}

// ByNeighborhood returns the listings in the neighborhood slug
func (s *ListingService) ByNeighborhood(ctx context.Context, slug string) ([]model.PropertyRecord, error) {
	return s.catalog.ByNeighborhood(ctx, slug)
}

// Recommend ranks the whole catalog against a lead profile
func (s *ListingService) Recommend(ctx context.Context, profile model.LeadProfile, limit int) ([]model.ListingResult, error) {
	records, err := s.catalog.Filter(ctx, model.ListingCriteria{})
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	results := s.ranker.RankForLead(records, profile)
	if limit = s.clampLimit(limit); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Quote computes a mortgage quote from explicit input
func (s *ListingService) Quote(in model.MortgageInput) (model.MortgageQuote, error) {
	quote, err := s.calculator.Quote(in)
	if err != nil {
		return quote, err
	}
	s.metrics.MortgageQuoted(quote.MonthlyTotal)
	return quote, nil
}

// QuoteListing computes a mortgage quote for a catalog listing
func (s *ListingService) QuoteListing(ctx context.Context, id int64, overrides model.MortgageOverrides) (*model.ListingMortgageResponse, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, quote, err := s.calculator.QuoteForListing(*p, overrides)
	if err != nil {
		return nil, err
	}
	s.metrics.MortgageQuoted(quote.MonthlyTotal)
	return &model.ListingMortgageResponse{PropertyID: p.ID, Input: in, Quote: quote}, nil
}

// UpdateEmbeddings stores feature vectors for multiple listings. An item
// without a vector gets one computed from its catalog listing. Items for
// unknown listings are reported in the error list and skipped.
func (s *ListingService) UpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string, error) {
	for i, item := range items {
		if n := len(item.Embedding); n != 0 && n != catalog.VectorDimensions {
			return 0, nil, fmt.Errorf("%w: embedding at index %d has %d dimensions, expected %d",
				ErrInvalidInput, i, n, catalog.VectorDimensions)
		}
	}
	writer, ok := s.catalog.(EmbeddingWriter)
	if !ok {
		return 0, nil, ErrEmbeddingsUnsupported
	}

	ready := make([]model.EmbeddingItem, 0, len(items))
	var errs []string
	for _, item := range items {
		if len(item.Embedding) == 0 {
			p, err := s.Get(ctx, item.PropertyID)
			if err != nil {
				errs = append(errs, fmt.Sprintf("listing %d: %v", item.PropertyID, err))
				continue
			}
			item.Embedding = catalog.FeatureVector(*p).Slice()
		}
		ready = append(ready, item)
	}
	if len(ready) == 0 {
		return 0, errs, nil
	}
	success, writeErrs := writer.BatchUpdateEmbeddings(ctx, ready)
	return success, append(errs, writeErrs...), nil
}

// RebuildEmbeddings recomputes the stored vectors of the given listings from
// their catalog records, or of every listing when ids is empty
func (s *ListingService) RebuildEmbeddings(ctx context.Context, ids []int64) (int, []string, error) {
	if _, ok := s.catalog.(EmbeddingWriter); !ok {
		return 0, nil, ErrEmbeddingsUnsupported
	}
	if len(ids) == 0 {
		all, err := s.catalog.Filter(ctx, model.ListingCriteria{})
		if err != nil {
			return 0, nil, fmt.Errorf("failed to list catalog: %w", err)
		}
		for _, p := range all {
			ids = append(ids, p.ID)
		}
	}
	items := make([]model.EmbeddingItem, len(ids))
	for i, id := range ids {
		items[i] = model.EmbeddingItem{PropertyID: id}
	}
	return s.UpdateEmbeddings(ctx, items)
}
