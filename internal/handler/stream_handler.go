package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/caredemy/certpath-backend/internal/middleware"
	"github.com/caredemy/certpath-backend/internal/model"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// StreamHandler pushes the live countdown of an assessment session over
// WebSocket, so clients do not have to poll for remaining time.
type StreamHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "stream_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// tickPayload is one countdown frame.
type tickPayload struct {
	Type             string `json:"type"`
	Status           string `json:"status"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Sends a countdown frame every second until the session reaches a terminal
// state or the client disconnects.
func (h *StreamHandler) SessionStream(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	session, err := h.sessionService.GetOwnedSession(c.Request.Context(), *identity, sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reader goroutine: the stream is one-way, but we must consume control
	// frames to detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Every few ticks the session is re-read, so a submit or abandon from
	// another connection terminates this stream too instead of it ticking
	// stale ACTIVE frames until the original deadline.
	const statusRefreshTicks = 5
	ticks := 0

	for {
		now := time.Now()
		remaining := int(session.RemainingTime(now).Seconds())
		status := session.Status
		if session.IsExpired(now) {
			status = model.SessionStatusExpired
		}

		frame := tickPayload{
			Type:             "countdown",
			Status:           string(status),
			RemainingSeconds: remaining,
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(frame); err != nil {
			return
		}

		if status != model.SessionStatusActive || remaining <= 0 {
			// Final frame sent; grading happens lazily on the next API touch.
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
				time.Now().Add(time.Second))
			return
		}

		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			ticks++
			if ticks%statusRefreshTicks == 0 {
				fresh, err := h.sessionService.GetOwnedSession(c.Request.Context(), *identity, sessionID)
				if err != nil {
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
						time.Now().Add(time.Second))
					return
				}
				session = fresh
			}
		}
	}
}
