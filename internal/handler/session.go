package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"concierge/internal/model"
	"concierge/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionHandler handles dialogue session HTTP requests
type SessionHandler struct {
	sessions  *service.SessionManager
	listings  *service.ListingService
	replyWait time.Duration
}

// NewSessionHandler creates a new session handler. replyWait bounds how long a
// synchronous message request waits for the bot reply.
func NewSessionHandler(sessions *service.SessionManager, listings *service.ListingService, replyWait time.Duration) *SessionHandler {
	if replyWait <= 0 {
		replyWait = 10 * time.Second
	}
	return &SessionHandler{
		sessions:  sessions,
		listings:  listings,
		replyWait: replyWait,
	}
}

func sessionResponse(s *service.Session) model.SessionResponse {
	return model.SessionResponse{
		ID:          s.ID(),
		VisitorID:   s.VisitorID(),
		State:       s.State(),
		Transcript:  s.Transcript(),
		Profile:     s.Profile(),
		Suggestions: service.SuggestionsFor(s.Page()),
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), req.VisitorID, req.Page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(session))
}

// Get handles GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// Delete handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendMessage handles POST /api/v1/sessions/:id/messages
func (h *SessionHandler) SendMessage(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	switch req.Kind {
	case "":
		req.Kind = model.TurnTyped
	case model.TurnTyped, model.TurnQuick, model.TurnVoice:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid kind. Must be one of: typed, quick, voice"})
		return
	}

	h.submit(c, session, req.Text, req.Kind, req.Async)
}

// ListingPrompt handles POST /api/v1/sessions/:id/prompts
func (h *SessionHandler) ListingPrompt(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req model.ListingPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, err := h.listings.Get(c.Request.Context(), req.ListingID)
	if err != nil {
		respondError(c, err)
		return
	}

	text, err := service.ListingPrompt(req.Action, *listing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: schedule_viewing, request_info, contact_agent"})
		return
	}

	h.submit(c, session, text, model.TurnQuick, false)
}

func (h *SessionHandler) submit(c *gin.Context, session *service.Session, text string, kind model.TurnKind, async bool) {
	reply, err := session.Submit(text, kind)
	if err != nil {
		if errors.Is(err, service.ErrTurnInProgress) {
			c.JSON(http.StatusConflict, model.SendMessageResponse{
				Accepted: false,
				Reason:   "A reply is already pending",
				State:    session.State(),
			})
			return
		}
		respondError(c, err)
		return
	}

	if reply == nil {
		c.JSON(http.StatusOK, model.SendMessageResponse{
			Accepted: false,
			Reason:   "Empty message",
			State:    session.State(),
		})
		return
	}

	if async {
		c.JSON(http.StatusAccepted, model.SendMessageResponse{Accepted: true, State: session.State()})
		return
	}

	timer := time.NewTimer(h.replyWait)
	defer timer.Stop()

	select {
	case msg, ok := <-reply:
		response := model.SendMessageResponse{Accepted: true, State: session.State()}
		if ok {
			response.Reply = &msg
		}
		c.JSON(http.StatusOK, response)
	case <-timer.C:
		c.JSON(http.StatusAccepted, model.SendMessageResponse{Accepted: true, State: session.State()})
	case <-c.Request.Context().Done():
	}
}

// Reset handles POST /api/v1/sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	session.Reset()
	c.JSON(http.StatusOK, sessionResponse(session))
}

// Profile handles GET /api/v1/sessions/:id/profile
func (h *SessionHandler) Profile(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Profile())
}

// Recommendations handles GET /api/v1/sessions/:id/recommendations
func (h *SessionHandler) Recommendations(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	profile := session.Profile()
	results, err := h.listings.Recommend(c.Request.Context(), profile, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank listings: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.RecommendationsResponse{Results: results, Profile: profile})
}

// Events handles GET /api/v1/sessions/:id/events - SSE stream of session changes
func (h *SessionHandler) Events(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	sendSSE(c, "ready", sessionResponse(session))
	flusher.Flush()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				sendSSE(c, "closed", nil)
				flusher.Flush()
				return
			}
			sendSSE(c, ev.Type, ev)
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

// Suggestions handles GET /api/v1/chat/suggestions
func (h *SessionHandler) Suggestions(c *gin.Context) {
	page := strings.TrimSpace(c.Query("page"))
	c.JSON(http.StatusOK, gin.H{"page": page, "suggestions": service.SuggestionsFor(page)})
}

func (h *SessionHandler) lookup(c *gin.Context) (*service.Session, bool) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
