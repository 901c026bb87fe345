package websocket

import (
	"errors"
	"net/http"
	"strconv"

	"study-room/internal/hub"
	"study-room/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketHandler upgrades authenticated requests on /ws/room/{roomId}
// and hands the resulting connection to the hub.
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	hub         *hub.Hub
	roomService *service.RoomService
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(h *hub.Hub, roomService *service.RoomService) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if roomService == nil {
		panic("RoomService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// TODO: restrict origins via config before exposing beyond the demo deployment
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		hub:         h,
		roomService: roomService,
	}
}

// HandleConnection validates the caller's membership, upgrades the
// connection and registers the client with the hub.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("WS Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	roomIDStr := c.Param("roomId")
	roomIDUint64, err := strconv.ParseUint(roomIDStr, 10, 32)
	if err != nil {
		logCtx.WithError(err).Warnf("WS Handler: Invalid room ID format: %s", roomIDStr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}
	roomID := uint(roomIDUint64)
	logCtx = logCtx.WithField("room_id", roomID)

	// Joining before the upgrade means the membership row and the live
	// counter exist before the client ever receives an event. Join is
	// idempotent for existing members.
	if _, err := h.roomService.JoinRoom(c.Request.Context(), userID, roomID); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			logCtx.WithError(err).Warn("WS Handler: Room not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		case errors.Is(err, service.ErrRoomFull):
			logCtx.WithError(err).Warn("WS Handler: Room is full")
			c.JSON(http.StatusConflict, gin.H{"error": "Room is full"})
		default:
			logCtx.WithError(err).Error("WS Handler: Error joining room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join room"})
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := hub.NewClient(h.hub, conn, roomID, userID)

	registerMsg := hub.HubMessage{
		Type:   "register",
		Client: client,
		RoomID: client.RoomID(),
		UserID: client.UserID(),
	}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	client.Run()
}
