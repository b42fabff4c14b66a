package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler for WebSocket connections
type Handler struct {
	hub            *Hub
	messageHandler *MessageHandler
	logger         zerolog.Logger
}

// NewHandler creates a new WebSocket handler. messageHandler may be nil for
// a push-only socket.
func NewHandler(hub *Hub, messageHandler *MessageHandler, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:            hub,
		messageHandler: messageHandler,
		logger:         logger,
	}
}

// HandleConnection godoc
// @Summary Open the real-time event stream
// @Description Upgrades to a WebSocket that receives chat.message and chat.read events for the caller. Clients may send {"type":"chat.send","chat_room":1,"content":"..."} or {"type":"chat.mark_read","chat_room":1}. Browsers pass the JWT in the token query parameter.
// @Tags websocket
// @Security BearerAuth
// @Param token query string false "JWT access token"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	userIDValue, exists := c.Get("userID")
	userID, ok := userIDValue.(int64)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := newClient(h.hub, conn, userID, h.messageHandler, h.logger)
	if !h.hub.add(client) {
		_ = conn.Close()
		return
	}
	client.serve()

	h.logger.Info().
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
