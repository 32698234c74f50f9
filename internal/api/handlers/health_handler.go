package handlers

import (
	"net/http"

	"tribe-service/internal/realtime"
	"tribe-service/internal/services"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	hub      *realtime.Hub
	presence *services.PresenceService
}

func NewHealthHandler(hub *realtime.Hub, presence *services.PresenceService) *HealthHandler {
	return &HealthHandler{hub: hub, presence: presence}
}

// Health handles GET /healthz with connection stats.
func (h *HealthHandler) Health(c *gin.Context) {
	stats := h.hub.Stats()

	body := gin.H{
		"status":        "ok",
		"connections":   stats.Connections,
		"conversations": stats.Conversations,
	}
	if h.presence != nil {
		if online, err := h.presence.OnlineCount(c.Request.Context()); err == nil {
			body["online_users"] = online
		}
	}

	c.JSON(http.StatusOK, body)
}
