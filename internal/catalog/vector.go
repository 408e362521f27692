package catalog

import (
	"math"

	"github.com/pgvector/pgvector-go"

	"concierge/internal/model"
	"concierge/internal/utils"
)

// FeatureVocabulary is the amenity list offered by the listing filters.
// Its order fixes the layout of feature vectors.
var FeatureVocabulary = []string{
	"Harbour Views", "Ocean Views", "City Views", "Pool", "Infinity Pool",
	"Tennis Court", "Gym", "Wine Cellar", "Home Theatre", "Guest Suite",
	"Private Jetty", "Beach Access", "Rooftop Terrace", "Smart Home",
	"Parking", "Security", "Concierge",
}

// Normalization ceilings for the numeric vector components
const (
	priceScale    = 40_000_000.0
	bedroomScale  = 10.0
	bathroomScale = 10.0
	sqmScale      = 1_500.0
)

// VectorDimensions is the length of vectors built by FeatureVector
var VectorDimensions = 4 + len(FeatureVocabulary)

// FeatureVector encodes a listing as normalized size/price components
// followed by one slot per vocabulary feature
func FeatureVector(p model.PropertyRecord) pgvector.Vector {
	v := make([]float32, 0, VectorDimensions)
	v = append(v,
		clamp01(p.Price/priceScale),
		clamp01(float64(p.Bedrooms)/bedroomScale),
		clamp01(float64(p.Bathrooms)/bathroomScale),
		clamp01(p.Sqm/sqmScale),
	)
	for _, feature := range FeatureVocabulary {
		var slot float32
		if utils.AnyFeatureMatches(feature, p.Features) {
			slot = 1
		}
		v = append(v, slot)
	}
	return pgvector.NewVector(v)
}

// CosineDistance matches pgvector's <=> operator: 1 - cosine similarity.
// Vectors of different length or zero magnitude are maximally distant.
func CosineDistance(a, b pgvector.Vector) float64 {
	x, y := a.Slice(), b.Slice()
	if len(x) == 0 || len(x) != len(y) {
		return 2
	}
	var dot, nx, ny float64
	for i := range x {
		dot += float64(x[i]) * float64(y[i])
		nx += float64(x[i]) * float64(x[i])
		ny += float64(y[i]) * float64(y[i])
	}
	if nx == 0 || ny == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(nx)*math.Sqrt(ny))
}

func clamp01(f float64) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return float32(f)
}
