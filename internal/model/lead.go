package model

import (
	"strings"
	"time"
)

// LeadProfile holds the preferences inferred about a prospective client.
// Fields only accumulate: once observed a value is kept, except PropertyType
// which always reflects the most recent mention.
type LeadProfile struct {
	Budget                 *float64 `json:"budget,omitempty"`
	Bedrooms               *int     `json:"bedrooms,omitempty"`
	PreferredNeighborhoods []string `json:"preferredNeighborhoods,omitempty"`
	PropertyType           *string  `json:"propertyType,omitempty"`
	DesiredFeatures        []string `json:"desiredFeatures,omitempty"`
	LastUpdated            int64    `json:"lastUpdated,omitempty"` // unix milliseconds
}

// Clone returns a deep copy so callers can mutate without aliasing
func (p LeadProfile) Clone() LeadProfile {
	out := p
	if p.Budget != nil {
		v := *p.Budget
		out.Budget = &v
	}
	if p.Bedrooms != nil {
		v := *p.Bedrooms
		out.Bedrooms = &v
	}
	if p.PropertyType != nil {
		v := *p.PropertyType
		out.PropertyType = &v
	}
	if p.PreferredNeighborhoods != nil {
		out.PreferredNeighborhoods = append([]string(nil), p.PreferredNeighborhoods...)
	}
	if p.DesiredFeatures != nil {
		out.DesiredFeatures = append([]string(nil), p.DesiredFeatures...)
	}
	return out
}

// IsEmpty reports whether no preference has been observed yet
func (p LeadProfile) IsEmpty() bool {
	return p.Budget == nil && p.Bedrooms == nil && p.PropertyType == nil &&
		len(p.PreferredNeighborhoods) == 0 && len(p.DesiredFeatures) == 0
}

// UpdatedAt converts LastUpdated to a time
func (p LeadProfile) UpdatedAt() time.Time {
	if p.LastUpdated == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.LastUpdated)
}

// Touch sets LastUpdated
func (p *LeadProfile) Touch(t time.Time) {
	p.LastUpdated = t.UnixMilli()
}

// AddNeighborhood appends a neighborhood unless already present
func (p *LeadProfile) AddNeighborhood(name string) {
	p.PreferredNeighborhoods = addUnique(p.PreferredNeighborhoods, name)
}

// AddFeature appends a feature unless already present
func (p *LeadProfile) AddFeature(feature string) {
	p.DesiredFeatures = addUnique(p.DesiredFeatures, feature)
}

// Merge applies overrides: scalars replace, sets are unioned
func (p *LeadProfile) Merge(o LeadOverrides) {
	if o.Budget != nil {
		v := *o.Budget
		p.Budget = &v
	}
	if o.Bedrooms != nil {
		v := *o.Bedrooms
		p.Bedrooms = &v
	}
	if o.PropertyType != nil && strings.TrimSpace(*o.PropertyType) != "" {
		v := *o.PropertyType
		p.PropertyType = &v
	}
	for _, n := range o.PreferredNeighborhoods {
		p.AddNeighborhood(n)
	}
	for _, f := range o.DesiredFeatures {
		p.AddFeature(f)
	}
}

// Without returns a copy of p with every value also present in submitted
// removed. Scalars are dropped only when equal to the submitted value.
func (p LeadProfile) Without(submitted LeadProfile) LeadProfile {
	out := p.Clone()
	if out.Budget != nil && submitted.Budget != nil && *out.Budget == *submitted.Budget {
		out.Budget = nil
	}
	if out.Bedrooms != nil && submitted.Bedrooms != nil && *out.Bedrooms == *submitted.Bedrooms {
		out.Bedrooms = nil
	}
	if out.PropertyType != nil && submitted.PropertyType != nil && *out.PropertyType == *submitted.PropertyType {
		out.PropertyType = nil
	}
	out.PreferredNeighborhoods = removeAll(out.PreferredNeighborhoods, submitted.PreferredNeighborhoods)
	out.DesiredFeatures = removeAll(out.DesiredFeatures, submitted.DesiredFeatures)
	return out
}

func removeAll(set, drop []string) []string {
	var out []string
	for _, v := range set {
		keep := true
		for _, d := range drop {
			if v == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, v)
		}
	}
	return out
}

func addUnique(set []string, v string) []string {
	for _, existing := range set {
		if existing == v {
			return set
		}
	}
	return append(set, v)
}

// LeadContact carries the contact details a visitor provides on submission
type LeadContact struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Message    string `json:"message,omitempty"`
	PropertyID *int64 `json:"propertyId,omitempty"`
}

// LeadOverrides are explicit values merged onto the inferred profile
type LeadOverrides struct {
	Budget                 *float64 `json:"budget,omitempty"`
	Bedrooms               *int     `json:"bedrooms,omitempty"`
	PreferredNeighborhoods []string `json:"preferredNeighborhoods,omitempty"`
	PropertyType           *string  `json:"propertyType,omitempty"`
	DesiredFeatures        []string `json:"desiredFeatures,omitempty"`
	LeadContact
}

// LeadSubmission is the payload handed to the lead-intake collaborator
type LeadSubmission struct {
	ID string `json:"id"`
	LeadProfile
	LeadContact
	Source      string    `json:"source"`
	VisitorID   string    `json:"visitorId,omitempty"`
	SubmittedAt time.Time `json:"timestamp"`
}

// LeadSourceChat marks submissions that originate from the chat concierge
const LeadSourceChat = "ai_chat"
