package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"concierge/internal/model"
)

var (
	budgetPattern  = regexp.MustCompile(`(?i)\$?(\d+(?:\.\d+)?)\s*(?:m|million)`)
	bedroomPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:bed|bedroom)`)
)

// Gazetteers scanned by the extractor. Order matters for property types:
// when several are present the last one listed here wins.
var (
	NeighborhoodGazetteer = []string{"point piper", "double bay", "mosman", "vaucluse", "rose bay", "bellevue hill"}
	PropertyTypeGazetteer = []string{"house", "penthouse", "apartment", "mansion"}
	FeatureGazetteer      = []string{"pool", "waterfront", "harbour view", "tennis court", "wine cellar", "gym"}
)

// LeadExtractor pulls budget, bedrooms, neighborhoods, property type and
// features out of free text
type LeadExtractor struct {
	now func() time.Time
}

// NewLeadExtractor creates an extractor stamping profiles with the wall clock
func NewLeadExtractor() *LeadExtractor {
	return &LeadExtractor{now: time.Now}
}

// Extract returns profile updated with every signal found in text.
// The input profile is not modified. LastUpdated is refreshed even when
// nothing matched.
func (e *LeadExtractor) Extract(text string, profile model.LeadProfile) model.LeadProfile {
	out := profile.Clone()
	lower := strings.ToLower(text)

	if m := budgetPattern.FindStringSubmatch(text); m != nil {
		if amount, err := strconv.ParseFloat(m[1], 64); err == nil {
			budget := amount * 1_000_000
			out.Budget = &budget
		}
	}

	if m := bedroomPattern.FindStringSubmatch(text); m != nil {
		if beds, err := strconv.Atoi(m[1]); err == nil {
			out.Bedrooms = &beds
		}
	}

	for _, name := range NeighborhoodGazetteer {
		if strings.Contains(lower, name) {
			out.AddNeighborhood(name)
		}
	}

	for _, propertyType := range PropertyTypeGazetteer {
		if strings.Contains(lower, propertyType) {
			v := propertyType
			out.PropertyType = &v
		}
	}

	for _, feature := range FeatureGazetteer {
		if strings.Contains(lower, feature) {
			out.AddFeature(feature)
		}
	}

	out.Touch(e.now())
	return out
}
