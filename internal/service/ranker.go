package service

import (
	"math"
	"sort"
	"strings"

	"concierge/internal/catalog"
	"concierge/internal/model"
	"concierge/internal/utils"
)

// Match reason constants
const (
	ReasonBedroomsMatch     = "Bedrooms match"
	ReasonPropertyTypeMatch = "Property type match"
	ReasonLocationMatch     = "Location match"
	ReasonPriceMatch        = "Price within budget"
	ReasonFeaturesMatch     = "Features match"
	ReasonNewlyListed       = "Newly listed"
	ReasonGeneralMatch      = "General match"
)

// newListingDays is the days-on-market threshold for the newly listed reason
const newListingDays = 30

// Ranker scores catalog listings against a lead profile
type Ranker struct {
	weightPrice    float64
	weightFit      float64
	weightFeatures float64
	weightRecency  float64
}

// NewRanker creates a ranker with the given weights
func NewRanker(weightPrice, weightFit, weightFeatures, weightRecency float64) *Ranker {
	return &Ranker{
		weightPrice:    weightPrice,
		weightFit:      weightFit,
		weightFeatures: weightFeatures,
		weightRecency:  weightRecency,
	}
}

// NewDefaultRanker weights budget and fit over features and recency
func NewDefaultRanker() *Ranker {
	return NewRanker(0.35, 0.3, 0.25, 0.1)
}

// RankForLead scores every listing against profile and sorts by score descending.
// Ties keep catalog order.
func (r *Ranker) RankForLead(listings []model.PropertyRecord, profile model.LeadProfile) []model.ListingResult {
	results := make([]model.ListingResult, 0, len(listings))

	for _, listing := range listings {
		priceScore := r.calculatePriceScore(listing.Price, profile.Budget)
		fitScore := r.calculateFitScore(listing, profile)
		featureScore := r.calculateFeatureScore(listing, profile.DesiredFeatures)
		recencyScore := r.calculateRecencyScore(listing.DaysOnMarket)

		results = append(results, model.ListingResult{
			PropertyRecord: listing,
			Score: (r.weightPrice * priceScore) +
				(r.weightFit * fitScore) +
				(r.weightFeatures * featureScore) +
				(r.weightRecency * recencyScore),
			MatchedReasons: r.generateMatchedReasons(listing, profile, priceScore, featureScore),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// calculatePriceScore rewards prices close to, but not above, the budget
func (r *Ranker) calculatePriceScore(price float64, budget *float64) float64 {
	if budget == nil || *budget <= 0 {
		return 1.0
	}
	if price <= 0 {
		return 0.5
	}
	if price > *budget {
		return 0.0
	}
	score := price / *budget
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// calculateFitScore averages bedrooms, property type and location matches over
// the criteria the profile actually carries
func (r *Ranker) calculateFitScore(listing model.PropertyRecord, profile model.LeadProfile) float64 {
	var matched, considered float64

	if profile.Bedrooms != nil {
		considered++
		if listing.Bedrooms >= *profile.Bedrooms {
			matched++
		}
	}
	if profile.PropertyType != nil {
		considered++
		if strings.EqualFold(listing.PropertyType, *profile.PropertyType) {
			matched++
		}
	}
	if len(profile.PreferredNeighborhoods) > 0 {
		considered++
		if inAnyNeighborhood(listing, profile.PreferredNeighborhoods) {
			matched++
		}
	}

	if considered == 0 {
		return 1.0
	}
	return matched / considered
}

// calculateFeatureScore is the share of desired features the listing offers
func (r *Ranker) calculateFeatureScore(listing model.PropertyRecord, desired []string) float64 {
	if len(desired) == 0 {
		return 1.0
	}
	matched := 0
	for _, feature := range desired {
		if utils.AnyFeatureMatches(feature, listing.Features) {
			matched++
		}
	}
	return float64(matched) / float64(len(desired))
}

// calculateRecencyScore decays with days on market.
// After 30 days: ~0.74, after 60 days: ~0.55
func (r *Ranker) calculateRecencyScore(daysOnMarket int) float64 {
	if daysOnMarket < 0 {
		return 0.5
	}
	return math.Exp(-0.01 * float64(daysOnMarket))
}

// generateMatchedReasons generates human-readable reasons for why this listing matched
func (r *Ranker) generateMatchedReasons(
	listing model.PropertyRecord,
	profile model.LeadProfile,
	priceScore float64,
	featureScore float64,
) []string {
	reasons := []string{}

	if profile.Budget != nil && priceScore > 0.8 {
		reasons = append(reasons, ReasonPriceMatch)
	}

	if profile.Bedrooms != nil && listing.Bedrooms >= *profile.Bedrooms {
		reasons = append(reasons, ReasonBedroomsMatch)
	}

	if profile.PropertyType != nil && strings.EqualFold(listing.PropertyType, *profile.PropertyType) {
		reasons = append(reasons, ReasonPropertyTypeMatch)
	}

	if inAnyNeighborhood(listing, profile.PreferredNeighborhoods) {
		reasons = append(reasons, ReasonLocationMatch)
	}

	if len(profile.DesiredFeatures) > 0 && featureScore > 0 {
		reasons = append(reasons, ReasonFeaturesMatch)
	}

	if listing.NewToMarket || (listing.DaysOnMarket >= 0 && listing.DaysOnMarket < newListingDays) {
		reasons = append(reasons, ReasonNewlyListed)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}

	return reasons
}

func inAnyNeighborhood(listing model.PropertyRecord, names []string) bool {
	for _, name := range names {
		if catalog.InNeighborhood(listing, model.Slugify(name)) {
			return true
		}
	}
	return false
}
