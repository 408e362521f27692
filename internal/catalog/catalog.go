// Package catalog exposes the read-only property and neighborhood collection.
package catalog

import (
	"context"
	"math"
	"sort"
	"strings"

	"concierge/internal/model"
)

// Catalog is the read-only listing query interface
type Catalog interface {
	// FindByID returns nil, nil when no listing has the id
	FindByID(ctx context.Context, id int64) (*model.PropertyRecord, error)
	Filter(ctx context.Context, criteria model.ListingCriteria) ([]model.PropertyRecord, error)
	ByNeighborhood(ctx context.Context, slug string) ([]model.PropertyRecord, error)
	Neighborhoods(ctx context.Context) ([]model.Neighborhood, error)
	Featured(ctx context.Context, limit int) ([]model.PropertyRecord, error)
	Similar(ctx context.Context, id int64, limit int) ([]model.PropertyRecord, error)
}

// Defaults for list sizes when callers pass a non-positive limit
const (
	DefaultFeaturedLimit = 6
	DefaultSimilarLimit  = 3
	// similarPriceBand is the relative price difference under which two
	// listings in different suburbs still count as similar
	similarPriceBand = 0.3
)

// InNeighborhood reports whether the record belongs to the neighborhood slug.
// Either the suburb slug or the slugified display name may match.
func InNeighborhood(p model.PropertyRecord, slug string) bool {
	slug = strings.ToLower(strings.TrimSpace(slug))
	return p.Suburb == slug || model.Slugify(p.Neighborhood) == slug
}

// Matches reports whether the record satisfies every criterion
func Matches(p model.PropertyRecord, c model.ListingCriteria) bool {
	if c.PriceMin != nil && *c.PriceMin > 0 && p.Price < *c.PriceMin {
		return false
	}
	if c.PriceMax != nil && *c.PriceMax > 0 && p.Price > *c.PriceMax {
		return false
	}
	if c.MinBedrooms != nil && p.Bedrooms < *c.MinBedrooms {
		return false
	}
	if c.MinBathrooms != nil && p.Bathrooms < *c.MinBathrooms {
		return false
	}
	if t := activeValue(c.PropertyType); t != "" && !strings.EqualFold(p.PropertyType, t) {
		return false
	}
	if n := activeValue(c.Neighborhood); n != "" && !InNeighborhood(p, n) {
		return false
	}
	for _, f := range c.Features {
		if strings.TrimSpace(f) == "" {
			continue
		}
		if !p.HasFeature(f) {
			return false
		}
	}
	if c.NewToMarket && !p.NewToMarket {
		return false
	}
	return true
}

// activeValue returns the trimmed criterion, treating "all" as unset
func activeValue(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// IsSimilar applies the similar-listing rule: same suburb, or a price within
// 30% of the reference listing
func IsSimilar(ref, p model.PropertyRecord) bool {
	if p.ID == ref.ID {
		return false
	}
	if p.Suburb == ref.Suburb {
		return true
	}
	if ref.Price <= 0 {
		return false
	}
	return math.Abs(p.Price-ref.Price)/ref.Price < similarPriceBand
}

// Sort orders records in place. Unknown options leave catalog order untouched.
func Sort(records []model.PropertyRecord, option model.SortOption) {
	var less func(a, b model.PropertyRecord) bool
	switch option {
	case model.SortPriceDesc:
		less = func(a, b model.PropertyRecord) bool { return a.Price > b.Price }
	case model.SortPriceAsc:
		less = func(a, b model.PropertyRecord) bool { return a.Price < b.Price }
	case model.SortNewest:
		less = func(a, b model.PropertyRecord) bool { return a.DaysOnMarket < b.DaysOnMarket }
	case model.SortBedroomsDesc:
		less = func(a, b model.PropertyRecord) bool { return a.Bedrooms > b.Bedrooms }
	case model.SortSqftDesc:
		less = func(a, b model.PropertyRecord) bool { return a.Sqft > b.Sqft }
	default:
		return
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
