package service

import (
	"reflect"
	"testing"

	"concierge/internal/catalog"
	"concierge/internal/model"
)

func seedListings(t *testing.T) []model.PropertyRecord {
	t.Helper()
	c, err := catalog.NewSeedCatalog()
	if err != nil {
		t.Fatalf("NewSeedCatalog() error = %v", err)
	}
	return c.All()
}

func TestRankForLead(t *testing.T) {
	budget := 20_000_000.0
	beds := 6
	propertyType := "house"
	profile := model.LeadProfile{
		Budget:                 &budget,
		Bedrooms:               &beds,
		PropertyType:           &propertyType,
		PreferredNeighborhoods: []string{"bellevue hill"},
		DesiredFeatures:        []string{"pool", "wine cellar"},
	}

	results := NewDefaultRanker().RankForLead(seedListings(t), profile)
	if len(results) != 8 {
		t.Fatalf("got %d results, want 8", len(results))
	}

	if results[0].ID != 8 {
		t.Fatalf("top result = %d, want 8", results[0].ID)
	}
	wantReasons := []string{
		ReasonPriceMatch, ReasonBedroomsMatch, ReasonPropertyTypeMatch, ReasonLocationMatch, ReasonFeaturesMatch,
	}
	if !reflect.DeepEqual(results[0].MatchedReasons, wantReasons) {
		t.Errorf("reasons = %v, want %v", results[0].MatchedReasons, wantReasons)
	}

	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not sorted at %d", i)
		}
	}

	for _, r := range results {
		if r.ID == 1 {
			for _, reason := range r.MatchedReasons {
				if reason == ReasonPriceMatch {
					t.Error("over-budget listing marked within budget")
				}
			}
		}
	}
}

func TestRankForLead_EmptyProfile(t *testing.T) {
	results := NewDefaultRanker().RankForLead(seedListings(t), model.LeadProfile{})

	if results[0].ID != 6 {
		t.Errorf("top result = %d, want freshest listing 6", results[0].ID)
	}
	for _, r := range results {
		if r.ID == 4 && !reflect.DeepEqual(r.MatchedReasons, []string{ReasonGeneralMatch}) {
			t.Errorf("listing 4 reasons = %v, want general match", r.MatchedReasons)
		}
		if r.ID == 6 && !reflect.DeepEqual(r.MatchedReasons, []string{ReasonNewlyListed}) {
			t.Errorf("listing 6 reasons = %v, want newly listed", r.MatchedReasons)
		}
	}
}

func TestCalculatePriceScore(t *testing.T) {
	r := NewDefaultRanker()
	budget := 10.0

	tests := []struct {
		name   string
		price  float64
		budget *float64
		want   float64
	}{
		{"no budget", 5, nil, 1},
		{"at budget", 10, &budget, 1},
		{"half budget", 5, &budget, 0.5},
		{"over budget", 11, &budget, 0},
		{"unknown price", 0, &budget, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.calculatePriceScore(tt.price, tt.budget); got != tt.want {
				t.Errorf("calculatePriceScore() = %v, want %v", got, tt.want)
			}
		})
	}
}
