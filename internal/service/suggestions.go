package service

import (
	"fmt"
	"strings"

	"concierge/internal/model"
)

// Pages that carry their own quick-prompt suggestions
const (
	PageHome           = "home"
	PageListings       = "listings"
	PageListingDetails = "listing-details"
)

// Listing-context prompt actions
const (
	ActionScheduleViewing = "schedule_viewing"
	ActionRequestInfo     = "request_info"
	ActionContactAgent    = "contact_agent"
)

var pageSuggestions = map[string][]string{
	PageListingDetails: {
		"Schedule a tour of this property",
		"Compare mortgage options",
		"Tell me about the neighborhood",
		"What are similar properties?",
	},
	PageListings: {
		"Show me waterfront properties",
		"Find homes under $15M",
		"Properties with pools",
		"Best family neighborhoods",
	},
	PageHome: {
		"Find oceanfront homes under $20M",
		"Schedule a property tour",
		"Explain HOA fees",
		"Best neighborhoods for families",
	},
}

// SuggestionsFor returns the quick prompts for a page. Unknown pages get the
// home suggestions; listing-details is checked before listings so paths like
// "/listing-details.html" resolve correctly.
func SuggestionsFor(page string) []string {
	page = strings.ToLower(page)
	key := PageHome
	switch {
	case strings.Contains(page, PageListingDetails):
		key = PageListingDetails
	case strings.Contains(page, PageListings):
		key = PageListings
	}
	return append([]string(nil), pageSuggestions[key]...)
}

// ListingPrompt builds the quick-prompt text for an action on a listing
func ListingPrompt(action string, p model.PropertyRecord) (string, error) {
	switch action {
	case ActionScheduleViewing:
		return fmt.Sprintf("I'd like to schedule a viewing for the property at %s", p.Address), nil
	case ActionRequestInfo:
		return fmt.Sprintf("Can you tell me more about the property at %s?", p.Address), nil
	case ActionContactAgent:
		return "I'd like to speak with the listing agent about this property", nil
	default:
		return "", fmt.Errorf("%w: unknown listing action %q", ErrInvalidInput, action)
	}
}
