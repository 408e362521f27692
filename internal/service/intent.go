package service

import (
	"strings"

	"concierge/internal/model"
)

// classificationRule maps keyword containment to a response category
type classificationRule struct {
	category model.ResponseCategory
	keywords []string
}

// classificationRules is evaluated in order and the first match wins.
// The order is observable behavior: a message mentioning both a waterfront
// and a price keyword must resolve to waterfront.
var classificationRules = []classificationRule{
	{model.CategoryWaterfront, []string{"waterfront", "harbour", "harbor", "beach", "ocean"}},
	{model.CategoryPrice, []string{"price", "cost", "budget", "$", "million", "affordable"}},
	{model.CategoryNeighborhoods, []string{"neighborhood", "area", "suburb", "location", "where"}},
	{model.CategoryFeatures, []string{"features", "amenities", "pool", "gym", "wine cellar", "tennis"}},
	{model.CategoryInvestment, []string{"investment", "market", "appreciation", "roi", "return"}},
	{model.CategoryScheduling, []string{"tour", "visit", "schedule", "appointment", "viewing"}},
	{model.CategoryMortgage, []string{"mortgage", "loan", "financing", "payment", "calculate"}},
	{model.CategoryGreeting, []string{"hello", "hi", "hey", "good morning", "good afternoon"}},
	// named-neighborhood specials only apply when no topical rule matched
	{model.CategoryPointPiper, []string{"point piper", "piper"}},
	{model.CategoryDoubleBay, []string{"double bay"}},
	{model.CategoryMosman, []string{"mosman"}},
}

// IntentClassifier maps free text to a response category by keyword containment
type IntentClassifier struct {
	rand RandSource
}

// NewIntentClassifier creates a classifier that selects responses with r
func NewIntentClassifier(r RandSource) *IntentClassifier {
	if r == nil {
		r = NewTimeSeededRand()
	}
	return &IntentClassifier{rand: syncRand(r)}
}

// Classify returns the first category whose keywords appear in text
func (c *IntentClassifier) Classify(text string) model.ResponseCategory {
	message := strings.ToLower(text)
	for _, rule := range classificationRules {
		if containsAny(message, rule.keywords) {
			return rule.category
		}
	}
	return model.CategoryFallback
}

// Response selects one of the category's candidate replies uniformly at random
func (c *IntentClassifier) Response(category model.ResponseCategory) string {
	candidates, ok := cannedResponses[category]
	if !ok {
		candidates = cannedResponses[model.CategoryFallback]
	}
	return pick(c.rand, candidates)
}

// Parse classifies text and selects the reply
func (c *IntentClassifier) Parse(text string) model.IntentResult {
	category := c.Classify(text)
	return model.IntentResult{
		Category: category,
		Response: c.Response(category),
	}
}

// Greeting returns a random welcome line
func (c *IntentClassifier) Greeting() string {
	return c.Response(model.CategoryGreeting)
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
