// internal/handlers/realtime.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agriconnect-backend/internal/realtime"
)

type RealtimeHandler struct {
	hub        *realtime.Hub
	upgrader   websocket.Upgrader
	sendBuffer int
}

// NewRealtimeHandler accepts upgrades from the listed origins. An empty list
// or "*" allows any origin; requests without an Origin header are always
// allowed so non-browser clients can connect.
func NewRealtimeHandler(hub *realtime.Hub, allowedOrigins []string, sendBuffer int) *RealtimeHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &RealtimeHandler{
		hub:        hub,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[strings.TrimRight(origin, "/")]
			},
		},
	}
}

// GET /ws
func (h *RealtimeHandler) Connect(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logrus.WithError(err).WithField("user_id", user.ID).Debug("WebSocket upgrade failed")
		return
	}

	realtime.NewClient(h.hub, conn, user.ID.String(), h.sendBuffer).Serve()
}
