package model

// ResponseCategory is the canned-response bucket chosen for a user utterance
type ResponseCategory string

const (
	CategoryWaterfront    ResponseCategory = "waterfront"
	CategoryPrice         ResponseCategory = "price"
	CategoryNeighborhoods ResponseCategory = "neighborhoods"
	CategoryFeatures      ResponseCategory = "features"
	CategoryInvestment    ResponseCategory = "investment"
	CategoryScheduling    ResponseCategory = "scheduling"
	CategoryMortgage      ResponseCategory = "mortgage"
	CategoryGreeting      ResponseCategory = "greeting"
	CategoryPointPiper    ResponseCategory = "point_piper"
	CategoryDoubleBay     ResponseCategory = "double_bay"
	CategoryMosman        ResponseCategory = "mosman"
	CategoryFallback      ResponseCategory = "fallback"
)

// IntentResult is a classified utterance and the response selected for it
type IntentResult struct {
	Category ResponseCategory `json:"category"`
	Response string           `json:"response"`
}
