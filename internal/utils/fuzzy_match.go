package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// featureAliases maps a lead-facing feature keyword to the listing feature
// names that satisfy it
var featureAliases = map[string][]string{
	"pool":         {"pool", "infinity pool", "resort-style pool", "pool access", "swimming pool"},
	"harbour view": {"harbour view", "harbour views", "harbour glimpses"},
	"waterfront":   {"waterfront", "private jetty", "private beach", "beach access", "marina"},
	"tennis":       {"tennis", "tennis court"},
	"wine":         {"wine cellar", "wine storage", "wine room"},
	"gym":          {"gym", "gym access", "fitness"},
	"ocean view":   {"ocean view", "ocean views"},
	"city view":    {"city view", "city views"},
	"theatre":      {"home theatre", "cinema"},
	"parking":      {"parking", "garage", "garaging"},
	"guest":        {"guest suite", "guest wing"},
	"security":     {"security", "smart home"},
}

// normalizations maps loose spellings to the canonical display name
var normalizations = map[string]string{
	"pool":            "Pool",
	"swimming pool":   "Pool",
	"infinity pool":   "Infinity Pool",
	"harbour view":    "Harbour Views",
	"harbour views":   "Harbour Views",
	"ocean view":      "Ocean Views",
	"city view":       "City Views",
	"tennis":          "Tennis Court",
	"tennis court":    "Tennis Court",
	"wine cellar":     "Wine Cellar",
	"gym":             "Gym",
	"fitness":         "Gym",
	"home theatre":    "Home Theatre",
	"cinema":          "Home Theatre",
	"private jetty":   "Private Jetty",
	"beach access":    "Beach Access",
	"rooftop terrace": "Rooftop Terrace",
	"smart home":      "Smart Home",
	"guest suite":     "Guest Suite",
	"parking":         "Parking",
	"garage":          "Parking",
	"security":        "Security",
	"concierge":       "Concierge",
}

// canonical lowercases, trims and folds the American spelling of harbour
func canonical(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "harbor", "harbour")
}

// FuzzyMatchFeature performs fuzzy matching for listing feature names.
// Returns true if the search term fuzzy matches the feature.
func FuzzyMatchFeature(searchTerm, feature string) bool {
	searchLower := canonical(searchTerm)
	featureLower := canonical(feature)
	if searchLower == "" || featureLower == "" {
		return false
	}

	if searchLower == featureLower || strings.Contains(featureLower, searchLower) {
		return true
	}

	for key, values := range featureAliases {
		if !strings.Contains(searchLower, key) {
			continue
		}
		for _, alias := range values {
			if strings.Contains(featureLower, alias) {
				return true
			}
		}
	}

	return false
}

// AnyFeatureMatches reports whether any of features fuzzy matches searchTerm
func AnyFeatureMatches(searchTerm string, features []string) bool {
	for _, f := range features {
		if FuzzyMatchFeature(searchTerm, f) {
			return true
		}
	}
	return false
}

// NormalizeFeature normalizes feature names to their display form
func NormalizeFeature(feature string) string {
	key := canonical(feature)
	if normalized, ok := normalizations[key]; ok {
		return normalized
	}
	return titleCase(key)
}

// BuildFeatureQuery builds JSONB conditions requiring every feature to be
// present (case-insensitive) in the features column. Returns the conditions,
// their parameters and the next placeholder index.
func BuildFeatureQuery(features []string, paramIndex int) ([]string, []interface{}, int) {
	if len(features) == 0 {
		return nil, nil, paramIndex
	}

	conditions := make([]string, 0, len(features))
	params := make([]interface{}, 0, len(features))
	for _, feature := range features {
		feature = strings.TrimSpace(feature)
		if feature == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(features) elem WHERE lower(elem) = lower($%d))",
			paramIndex,
		))
		params = append(params, feature)
		paramIndex++
	}

	return conditions, params, paramIndex
}

func titleCase(s string) string {
	prev := ' '
	return strings.Map(func(r rune) rune {
		defer func() { prev = r }()
		if unicode.IsSpace(prev) || prev == '-' {
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}
