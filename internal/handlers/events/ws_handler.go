// internal/handlers/events/ws_handler.go
package events

import (
	"net/http"

	"crm-service/internal/events"
	"crm-service/internal/pkg/jwt"
	"crm-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub      *events.Hub
	verifier *jwt.Verifier
	logger   *zap.Logger
}

func NewWebSocketHandler(hub *events.Hub, verifier *jwt.Verifier, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
		logger:   logger,
	}
}

// HandleConnection upgrades an authenticated request to a websocket and
// subscribes it to the lead event feed. Browsers cannot set headers on
// websocket requests, so the token travels as a query parameter.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, "missing token")
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := events.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)
	client.Start()
}

// GetStats reports feed connection counts.
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "ws stats", gin.H{
		"connected_clients": h.hub.ClientCount(),
	})
}
