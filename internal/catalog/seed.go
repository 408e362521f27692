package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"concierge/internal/model"
)

//go:embed data/properties.json
var propertiesJSON []byte

//go:embed data/neighborhoods.json
var neighborhoodsJSON []byte

// Seed returns the bundled Sydney listings and neighborhoods
func Seed() ([]model.PropertyRecord, []model.Neighborhood, error) {
	var properties []model.PropertyRecord
	if err := json.Unmarshal(propertiesJSON, &properties); err != nil {
		return nil, nil, fmt.Errorf("failed to decode seed properties: %w", err)
	}
	var neighborhoods []model.Neighborhood
	if err := json.Unmarshal(neighborhoodsJSON, &neighborhoods); err != nil {
		return nil, nil, fmt.Errorf("failed to decode seed neighborhoods: %w", err)
	}
	return properties, neighborhoods, nil
}
