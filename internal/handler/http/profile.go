package http

import (
	"net/http"

	"study-room/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ProfileHandler serves the authenticated user's profile endpoints.
type ProfileHandler struct {
	authService *service.AuthService
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(authService *service.AuthService) *ProfileHandler {
	return &ProfileHandler{authService: authService}
}

// Get returns the caller's profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, profile)
}

// UpdateProfileRequest carries the editable profile fields. Absent fields
// leave the stored value untouched.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,max=191"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=512"`
	Bio       *string `json:"bio" binding:"omitempty,max=1000"`
}

// Update applies a partial profile change.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateProfile: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input for profile update")
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithField("user_id", userID).Info("Handler.UpdateProfile: profile updated")
	SuccessResponse(c, http.StatusOK, profile)
}
