package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"concierge/internal/model"
	"concierge/internal/service"

	"github.com/gin-gonic/gin"
)

// ListingHandler handles catalog, neighborhood and mortgage HTTP requests
type ListingHandler struct {
	listings *service.ListingService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// List handles GET /api/v1/listings
func (h *ListingHandler) List(c *gin.Context) {
	var query model.ListingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	query.Features = splitFeatures(query.Features)

	switch query.Sort {
	case "", model.SortPriceDesc, model.SortPriceAsc, model.SortNewest, model.SortBedroomsDesc, model.SortSqftDesc:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort. Must be one of: price-desc, price-asc, newest, bedrooms-desc, sqft-desc"})
		return
	}

	response, err := h.listings.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list properties: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// splitFeatures accepts both repeated and comma-separated feature params
func splitFeatures(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

// Featured handles GET /api/v1/listings/featured
func (h *ListingHandler) Featured(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	results, err := h.listings.Featured(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get featured properties: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetListing handles GET /api/v1/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	listing, err := h.listings.Get(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Similar handles GET /api/v1/listings/:id/similar
func (h *ListingHandler) Similar(c *gin.Context) {
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	results, err := h.listings.Similar(c.Request.Context(), listingID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListingMortgage handles GET /api/v1/listings/:id/mortgage
func (h *ListingHandler) ListingMortgage(c *gin.Context) {
	listingID, ok := parseListingID(c)
	if !ok {
		return
	}

	var overrides model.MortgageOverrides
	if err := c.ShouldBindQuery(&overrides); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}

	response, err := h.listings.QuoteListing(c.Request.Context(), listingID, overrides)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Quote handles POST /api/v1/mortgage/quote
func (h *ListingHandler) Quote(c *gin.Context) {
	var input model.MortgageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	quote, err := h.listings.Quote(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// Neighborhoods handles GET /api/v1/neighborhoods
func (h *ListingHandler) Neighborhoods(c *gin.Context) {
	results, err := h.listings.Neighborhoods(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get neighborhoods: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// NeighborhoodListings handles GET /api/v1/neighborhoods/:slug/listings
func (h *ListingHandler) NeighborhoodListings(c *gin.Context) {
	results, err := h.listings.ByNeighborhood(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

func parseListingID(c *gin.Context) (int64, bool) {
	listingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return 0, false
	}
	return listingID, true
}

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTurnInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A reply is already pending"})
	case errors.Is(err, service.ErrIntakeFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCapabilityUnavailable), errors.Is(err, service.ErrEmbeddingsUnsupported):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
