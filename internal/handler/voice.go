package handler

import (
	"log/slog"
	"net/http"

	"concierge/internal/metrics"
	"concierge/internal/service"
	"concierge/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// VoiceHandler connects a browser speech host to a session
type VoiceHandler struct {
	sessions *service.SessionManager
	enabled  bool
	lang     string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(sessions *service.SessionManager, enabled bool, lang string, logger *slog.Logger, m *metrics.Metrics) *VoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoiceHandler{
		sessions: sessions,
		enabled:  enabled,
		lang:     lang,
		logger:   logger,
		metrics:  m,
	}
}

// Connect handles GET /api/v1/sessions/:id/voice (WebSocket)
func (h *VoiceHandler) Connect(c *gin.Context) {
	if !h.enabled {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrCapabilityUnavailable.Error()})
		return
	}

	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := h.logger.With("session_id", session.ID())
	bridge := voice.NewWSBridge(conn, h.lang, logger)
	controller := voice.NewController(bridge, session,
		voice.WithLogger(logger),
		voice.WithMetrics(h.metrics),
		voice.WithStatus(bridge.SendStatus),
	)

	ctx := c.Request.Context()
	logger.Info("voice bridge connected")

	err = bridge.Serve(ctx, func(f voice.Frame) {
		switch f.Type {
		case voice.HostToggle:
			if err := controller.Toggle(ctx); err != nil {
				logger.Debug("voice toggle failed", "error", err)
			}
		case voice.CommandStop:
			controller.StopListening()
		case voice.CommandCancelSpeech:
			controller.CancelSpeech()
		case voice.HostHidden:
			controller.Background()
		}
	})
	controller.Background()
	if err != nil {
		logger.Warn("voice bridge closed with error", "error", err)
		return
	}
	logger.Info("voice bridge disconnected")
}
