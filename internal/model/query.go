package model

// ListingCriteria represents structured catalog filters
type ListingCriteria struct {
	PriceMin     *float64 `json:"price_min,omitempty" form:"price_min"`
	PriceMax     *float64 `json:"price_max,omitempty" form:"price_max"`
	MinBedrooms  *int     `json:"bedrooms,omitempty" form:"bedrooms"`
	MinBathrooms *int     `json:"bathrooms,omitempty" form:"bathrooms"`
	PropertyType *string  `json:"property_type,omitempty" form:"property_type"`
	Neighborhood *string  `json:"neighborhood,omitempty" form:"neighborhood"`
	Features     []string `json:"features,omitempty" form:"features"` // all must be present
	NewToMarket  bool     `json:"new_to_market,omitempty" form:"new_to_market"`
}

// SortOption orders catalog results
type SortOption string

const (
	SortPriceDesc    SortOption = "price-desc"
	SortPriceAsc     SortOption = "price-asc"
	SortNewest       SortOption = "newest"
	SortBedroomsDesc SortOption = "bedrooms-desc"
	SortSqftDesc     SortOption = "sqft-desc"
)

// ListingQuery is the query string accepted by GET /api/v1/listings
type ListingQuery struct {
	ListingCriteria
	Sort  SortOption `form:"sort"`
	Limit int        `form:"limit"`
}

// ListingsResponse represents a filtered listing page
type ListingsResponse struct {
	Results []PropertyRecord `json:"results"`
	Total   int              `json:"total"`
	Took    int64            `json:"took_ms"` // Response time in milliseconds
}

// RecommendationsResponse lists catalog entries ranked against a lead profile
type RecommendationsResponse struct {
	Results []ListingResult `json:"results"`
	Profile LeadProfile     `json:"profile"`
}

// CreateSessionRequest opens a dialogue session
type CreateSessionRequest struct {
	VisitorID string `json:"visitor_id"`
	Page      string `json:"page,omitempty"`
}

// SessionResponse describes a dialogue session
type SessionResponse struct {
	ID          string       `json:"id"`
	VisitorID   string       `json:"visitor_id"`
	State       SessionState `json:"state"`
	Transcript  []Message    `json:"transcript"`
	Profile     LeadProfile  `json:"profile"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// SendMessageRequest submits a user turn
type SendMessageRequest struct {
	Text  string   `json:"text"`
	Kind  TurnKind `json:"kind,omitempty"`
	Async bool     `json:"async,omitempty"`
}

// SendMessageResponse reports the outcome of a submitted turn
type SendMessageResponse struct {
	Accepted bool         `json:"accepted"`
	Reason   string       `json:"reason,omitempty"`
	Reply    *Message     `json:"reply,omitempty"`
	State    SessionState `json:"state"`
}

// ListingPromptRequest builds a quick-prompt turn about a listing
type ListingPromptRequest struct {
	ListingID int64  `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // schedule_viewing, request_info, contact_agent
}

// LeadResponse represents the lead submission result
type LeadResponse struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submission_id,omitempty"`
	Message      string `json:"message,omitempty"`
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingItem represents a single property feature vector.
// An empty Embedding asks the server to derive it from the listing.
type EmbeddingItem struct {
	PropertyID int64     `json:"property_id" binding:"required"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// EmbeddingRebuildRequest lists the listings whose vectors are recomputed;
// an empty list rebuilds the whole catalog
type EmbeddingRebuildRequest struct {
	PropertyIDs []int64 `json:"property_ids"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
