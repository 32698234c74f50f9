package handlers

import (
	"errors"
	"net/http"

	"tribe-service/internal/api/middleware"
	"tribe-service/internal/models"
	"tribe-service/internal/services"
	"tribe-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// SendMessage handles POST /conversations/:id/messages.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required")
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.messages.SendMessage(c.Request.Context(), userID, conversationID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, "conversation not found")
		case errors.Is(err, services.ErrNotParticipant):
			response.Error(c, http.StatusForbidden, "access denied")
		default:
			response.Error(c, http.StatusInternalServerError, "failed to send message")
		}
		return
	}

	c.JSON(http.StatusCreated, message)
}
