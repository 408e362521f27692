package catalog

import (
	"context"
	"sort"

	"concierge/internal/model"
)

// MemoryCatalog serves listings from an immutable in-memory slice
type MemoryCatalog struct {
	properties    []model.PropertyRecord
	neighborhoods []model.Neighborhood
	byID          map[int64]int
}

// NewMemoryCatalog builds a catalog over the given records. Records without a
// feature vector get one computed from their attributes.
func NewMemoryCatalog(properties []model.PropertyRecord, neighborhoods []model.Neighborhood) *MemoryCatalog {
	c := &MemoryCatalog{
		properties:    make([]model.PropertyRecord, len(properties)),
		neighborhoods: append([]model.Neighborhood(nil), neighborhoods...),
		byID:          make(map[int64]int, len(properties)),
	}
	copy(c.properties, properties)
	for i := range c.properties {
		if len(c.properties[i].Embedding.Slice()) == 0 {
			c.properties[i].Embedding = FeatureVector(c.properties[i])
		}
		c.byID[c.properties[i].ID] = i
	}
	return c
}

// NewSeedCatalog builds a memory catalog over the bundled dataset
func NewSeedCatalog() (*MemoryCatalog, error) {
	properties, neighborhoods, err := Seed()
	if err != nil {
		return nil, err
	}
	return NewMemoryCatalog(properties, neighborhoods), nil
}

// All returns every listing in catalog order
func (c *MemoryCatalog) All() []model.PropertyRecord {
	return append([]model.PropertyRecord(nil), c.properties...)
}

// FindByID returns the listing with the id, or nil
func (c *MemoryCatalog) FindByID(_ context.Context, id int64) (*model.PropertyRecord, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, nil
	}
	p := c.properties[i]
	return &p, nil
}

// Filter returns the listings satisfying every criterion, in catalog order
func (c *MemoryCatalog) Filter(_ context.Context, criteria model.ListingCriteria) ([]model.PropertyRecord, error) {
	results := make([]model.PropertyRecord, 0, len(c.properties))
	for _, p := range c.properties {
		if Matches(p, criteria) {
			results = append(results, p)
		}
	}
	return results, nil
}

// ByNeighborhood returns the listings located in the neighborhood slug
func (c *MemoryCatalog) ByNeighborhood(_ context.Context, slug string) ([]model.PropertyRecord, error) {
	results := []model.PropertyRecord{}
	for _, p := range c.properties {
		if InNeighborhood(p, slug) {
			results = append(results, p)
		}
	}
	return results, nil
}

// Neighborhoods returns the neighborhood summaries
func (c *MemoryCatalog) Neighborhoods(_ context.Context) ([]model.Neighborhood, error) {
	return append([]model.Neighborhood(nil), c.neighborhoods...), nil
}

// Featured returns up to limit featured listings
func (c *MemoryCatalog) Featured(_ context.Context, limit int) ([]model.PropertyRecord, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	results := []model.PropertyRecord{}
	for _, p := range c.properties {
		if len(results) == limit {
			break
		}
		if p.Featured {
			results = append(results, p)
		}
	}
	return results, nil
}

// Similar returns listings in the same suburb or a comparable price band,
// closest feature vector first
func (c *MemoryCatalog) Similar(ctx context.Context, id int64, limit int) ([]model.PropertyRecord, error) {
	ref, err := c.FindByID(ctx, id)
	if err != nil || ref == nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	results := []model.PropertyRecord{}
	for _, p := range c.properties {
		if IsSimilar(*ref, p) {
			results = append(results, p)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return CosineDistance(ref.Embedding, results[i].Embedding) <
			CosineDistance(ref.Embedding, results[j].Embedding)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Ensure MemoryCatalog implements Catalog
var _ Catalog = (*MemoryCatalog)(nil)
