package http

import (
	"net/http"
	"strconv"

	"study-room/internal/domain"
	"study-room/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RoomHandler serves the room creation, listing and membership endpoints.
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// List returns all rooms with their live member counts.
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, rooms)
}

// GetBySlug returns a single room looked up by its URL slug.
func (h *RoomHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid slug")
		return
	}

	room, err := h.roomService.FindRoomBySlug(c.Request.Context(), slug)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, room)
}

// CreateRoomRequest is the room creation request body.
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
	IconName    string `json:"icon_name" binding:"omitempty,max=50"`
	MaxMembers  int    `json:"max_members" binding:"omitempty,min=2,max=100"`
}

// Create creates a room owned by the caller.
func (h *RoomHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateRoom: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: a room name is required")
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, service.CreateRoomInput{
		Name:        req.Name,
		Description: req.Description,
		IconName:    req.IconName,
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"room_id": room.ID,
		"user_id": userID,
	}).Info("Handler.CreateRoom: room created")
	SuccessResponse(c, http.StatusOK, room)
}

// JoinRoomRequest identifies the room to join, by id or invite code.
type JoinRoomRequest struct {
	RoomID     uint   `json:"room_id" binding:"omitempty"`
	InviteCode string `json:"invite_code" binding:"omitempty,len=6"`
}

// Join adds the caller to a room. Joining a room the caller already
// belongs to succeeds without a second membership row.
func (h *RoomHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.JoinRoom: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: room_id or invite_code required")
		return
	}
	if req.RoomID == 0 && req.InviteCode == "" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: room_id or invite_code required")
		return
	}

	var room *domain.Room
	var err error
	if req.InviteCode != "" {
		room, err = h.roomService.JoinByInviteCode(c.Request.Context(), userID, req.InviteCode)
	} else {
		room, err = h.roomService.JoinRoom(c.Request.Context(), userID, req.RoomID)
	}
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"room_id": room.ID,
		"user_id": userID,
	}).Info("Handler.JoinRoom: user joined room")
	SuccessResponse(c, http.StatusOK, room)
}

// Leave removes the caller from a room.
func (h *RoomHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	roomID, ok := paramUint(c, "roomId")
	if !ok {
		return
	}

	if err := h.roomService.LeaveRoom(c.Request.Context(), userID, roomID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
	}).Info("Handler.LeaveRoom: user left room")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Left room"})
}

// paramUint parses a positive uint path parameter, responding 400 itself
// when the value is malformed.
func paramUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(v), true
}
