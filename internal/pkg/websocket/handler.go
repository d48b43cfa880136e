package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/middleware"
)

// Handler upgrades authenticated requests to the chat event feed
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection godoc
// @Summary Subscribe to coffee chat events
// @Description Upgrades the connection to a WebSocket that streams status changes of the caller's coffee chats
// @Tags coffeechats, websocket
// @Security BearerAuth
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /coffeechats/events [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	memberID, ok := middleware.GetMemberID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Int64("memberID", memberID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		memberID: memberID,
		logger:   h.logger,
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
