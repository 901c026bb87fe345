package http

import (
	"net/http"

	"study-room/internal/service"

	"github.com/gin-gonic/gin"
)

// InviteHandler resolves shareable invite links to their room.
type InviteHandler struct {
	roomService *service.RoomService
}

// NewInviteHandler creates an InviteHandler.
func NewInviteHandler(roomService *service.RoomService) *InviteHandler {
	return &InviteHandler{roomService: roomService}
}

// Resolve validates an invite link. The room id and code must both match
// an existing room; link previews never reveal whether only one of the
// two was wrong.
func (h *InviteHandler) Resolve(c *gin.Context) {
	roomID, ok := paramUint(c, "roomId")
	if !ok {
		return
	}
	code := c.Param("code")
	if code == "" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid invite code")
		return
	}

	room, err := h.roomService.ResolveInvite(c.Request.Context(), roomID, code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	count, err := h.roomService.MemberCount(c.Request.Context(), room.ID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{
		"room":         room,
		"member_count": count,
	})
}
