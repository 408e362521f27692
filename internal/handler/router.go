package handler

import "github.com/gin-gonic/gin"

// Handlers groups the handlers mounted under /api/v1
type Handlers struct {
	Listings   *ListingHandler
	Embeddings *EmbeddingHandler
	Sessions   *SessionHandler
	Leads      *LeadHandler
	Voice      *VoiceHandler
}

// Register mounts every API route on the group
func (h *Handlers) Register(api *gin.RouterGroup) {
	// Catalog endpoints
	api.GET("/listings", h.Listings.List)
	api.GET("/listings/featured", h.Listings.Featured)
	api.GET("/listings/:id", h.Listings.GetListing)
	api.GET("/listings/:id/similar", h.Listings.Similar)
	api.GET("/listings/:id/mortgage", h.Listings.ListingMortgage)
	api.POST("/mortgage/quote", h.Listings.Quote)
	api.GET("/neighborhoods", h.Listings.Neighborhoods)
	api.GET("/neighborhoods/:slug/listings", h.Listings.NeighborhoodListings)

	// Embedding endpoints
	api.POST("/embeddings/batch", h.Embeddings.BatchUpdate)
	api.POST("/embeddings/rebuild", h.Embeddings.Rebuild)

	// Dialogue endpoints
	api.GET("/chat/suggestions", h.Sessions.Suggestions)
	api.POST("/sessions", h.Sessions.Create)
	api.GET("/sessions/:id", h.Sessions.Get)
	api.DELETE("/sessions/:id", h.Sessions.Delete)
	api.POST("/sessions/:id/messages", h.Sessions.SendMessage)
	api.POST("/sessions/:id/prompts", h.Sessions.ListingPrompt)
	api.POST("/sessions/:id/reset", h.Sessions.Reset)
	api.GET("/sessions/:id/events", h.Sessions.Events) // SSE
	api.GET("/sessions/:id/profile", h.Sessions.Profile)
	api.GET("/sessions/:id/recommendations", h.Sessions.Recommendations)
	api.POST("/sessions/:id/lead", h.Leads.Submit)
	api.GET("/sessions/:id/voice", h.Voice.Connect) // WebSocket
}
