package utils

import (
	"strings"
	"testing"
)

func TestFuzzyMatchFeature(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		feature string
		want    bool
	}{
		{"exact ignoring case", "tennis court", "Tennis Court", true},
		{"contained", "pool", "Infinity Pool", true},
		{"american spelling", "harbor views", "Harbour Views", true},
		{"singular view", "harbour view", "Harbour Views", true},
		{"alias jetty", "waterfront", "Private Jetty", true},
		{"alias wine", "wine cellar", "Wine Storage", true},
		{"alias gym", "gym", "Gym Access", true},
		{"no match", "pool", "Formal Gardens", false},
		{"empty search", "", "Pool", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FuzzyMatchFeature(tt.search, tt.feature); got != tt.want {
				t.Errorf("FuzzyMatchFeature(%q, %q) = %v, want %v", tt.search, tt.feature, got, tt.want)
			}
		})
	}
}

func TestNormalizeFeature(t *testing.T) {
	tests := map[string]string{
		"harbor view":       "Harbour Views",
		" Swimming Pool":    "Pool",
		"tennis":            "Tennis Court",
		"butler's pantry":   "Butler's Pantry",
		"resort-style pool": "Resort-Style Pool",
	}
	for in, want := range tests {
		if got := NormalizeFeature(in); got != want {
			t.Errorf("NormalizeFeature(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildFeatureQuery(t *testing.T) {
	conds, params, next := BuildFeatureQuery([]string{"Pool", " ", "Gym"}, 9)
	if len(conds) != 2 || len(params) != 2 {
		t.Fatalf("got %d conditions and %d params, want 2 and 2", len(conds), len(params))
	}
	if next != 11 {
		t.Errorf("next index = %d, want 11", next)
	}
	if !strings.Contains(conds[0], "$9") || !strings.Contains(conds[1], "$10") {
		t.Errorf("unexpected placeholders: %v", conds)
	}

	conds, params, next = BuildFeatureQuery(nil, 3)
	if conds != nil || params != nil || next != 3 {
		t.Errorf("empty input should be a no-op, got %v %v %d", conds, params, next)
	}
}
