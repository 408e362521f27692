package handler

import (
	"errors"
	"io"
	"net/http"

	"concierge/internal/model"
	"concierge/internal/service"

	"github.com/gin-gonic/gin"
)

// LeadHandler handles lead submission HTTP requests
type LeadHandler struct {
	sessions *service.SessionManager
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(sessions *service.SessionManager) *LeadHandler {
	return &LeadHandler{
		sessions: sessions,
	}
}

// Submit handles POST /api/v1/sessions/:id/lead
func (h *LeadHandler) Submit(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var overrides model.LeadOverrides
	if err := c.ShouldBindJSON(&overrides); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	submissionID, err := session.SubmitLead(c.Request.Context(), overrides)
	if err != nil {
		if errors.Is(err, service.ErrIntakeFailure) {
			c.JSON(http.StatusBadGateway, model.LeadResponse{
				Success: false,
				Message: "Your details could not be sent. Please try again.",
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.LeadResponse{
		Success:      true,
		SubmissionID: submissionID,
		Message:      "Lead submitted successfully",
	})
}
