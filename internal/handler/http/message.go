package http

import (
	"net/http"
	"strconv"

	"study-room/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MessageHandler serves the REST side of messaging. Realtime delivery
// goes through the websocket hub; these endpoints cover history and
// clients without an open socket.
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// History returns the most recent messages of a room in ascending order.
func (h *MessageHandler) History(c *gin.Context) {
	roomID, ok := paramUint(c, "roomId")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			ErrorResponse(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = v
	}

	messages, err := h.messageService.History(c.Request.Context(), roomID, limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, messages)
}

// SendMessageRequest is the message creation request body.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

// Send persists a message and publishes it to the room channel.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := paramUint(c, "roomId")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SendMessage: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: content is required")
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), roomID, userID, req.Content)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, msg)
}

// EditMessageRequest is the message update request body.
type EditMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

// Edit updates a message the caller authored. Submitting unchanged
// content succeeds without writing anything.
func (h *MessageHandler) Edit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.EditMessage: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: content is required")
		return
	}

	msg, err := h.messageService.Edit(c.Request.Context(), messageID, userID, req.Content)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, msg)
}

// Delete removes a message the caller authored.
func (h *MessageHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := paramUint(c, "id")
	if !ok {
		return
	}

	if err := h.messageService.Delete(c.Request.Context(), messageID, userID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"message_id": messageID,
		"user_id":    userID,
	}).Info("Handler.DeleteMessage: message deleted")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Message deleted"})
}
