package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Agent is the listing agent responsible for a property
type Agent struct {
	Name  string `json:"name" db:"name"`
	Phone string `json:"phone" db:"phone"`
	Email string `json:"email" db:"email"`
}

// PropertyRecord represents a read-only catalog listing
type PropertyRecord struct {
	ID           int64           `json:"id" db:"id"`
	Title        string          `json:"title" db:"title"`
	Address      string          `json:"address" db:"address"`
	Price        float64         `json:"price" db:"price"`
	Bedrooms     int             `json:"bedrooms" db:"bedrooms"`
	Bathrooms    int             `json:"bathrooms" db:"bathrooms"`
	Parking      int             `json:"parking" db:"parking"`
	Sqft         float64         `json:"sqft" db:"sqft"`
	Sqm          float64         `json:"sqm" db:"sqm"`
	PropertyType string          `json:"propertyType" db:"property_type"`
	YearBuilt    int             `json:"yearBuilt" db:"year_built"`
	DaysOnMarket int             `json:"daysOnMarket" db:"days_on_market"`
	Status       string          `json:"status" db:"status"`
	Featured     bool            `json:"featured" db:"featured"`
	NewToMarket  bool            `json:"newToMarket" db:"new_to_market"`
	Images       JSONArray       `json:"images" db:"images"`
	Neighborhood string          `json:"neighborhood" db:"neighborhood"`
	Suburb       string          `json:"suburb" db:"suburb"`
	Description  string          `json:"description" db:"description"`
	Features     JSONArray       `json:"features" db:"features"`
	HOAFees      float64         `json:"hoaFees" db:"hoa_fees"`
	PropertyTax  float64         `json:"propertyTax" db:"property_tax"`
	Latitude     float64         `json:"latitude" db:"latitude"`
	Longitude    float64         `json:"longitude" db:"longitude"`
	Agent        Agent           `json:"agent" db:"agent"`
	Embedding    pgvector.Vector `json:"-" db:"embedding"`
}

// PriceDisplay returns the price formatted for display
func (p PropertyRecord) PriceDisplay() string {
	return FormatPrice(p.Price)
}

// HasFeature reports whether the record lists the feature, ignoring case
func (p PropertyRecord) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if equalFold(f, feature) {
			return true
		}
	}
	return false
}

// Neighborhood represents a suburb summary shown on the site
type Neighborhood struct {
	Name          string    `json:"name" db:"name"`
	Slug          string    `json:"slug" db:"slug"`
	Description   string    `json:"description" db:"description"`
	Image         string    `json:"image" db:"image"`
	AveragePrice  float64   `json:"averagePrice" db:"average_price"`
	PropertyCount int       `json:"propertyCount" db:"property_count"`
	Highlights    JSONArray `json:"highlights" db:"highlights"`
}

// ListingResult is a ranked listing with the reasons it matched
type ListingResult struct {
	PropertyRecord
	Score          float64  `json:"score"`
	MatchedReasons []string `json:"matched_reasons"`
}

// JSONArray represents a JSON array field
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONArray source %T", value)
	}
}
