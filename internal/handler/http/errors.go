package http

import (
	"errors"
	"net/http"

	"study-room/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HandleServiceError maps a service error to an HTTP response. Soft
// conditions get specific 4xx codes and messages; anything unrecognized is
// logged and reported as a generic 500.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOTPInvalid), errors.Is(err, service.ErrOTPExpired):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmptyMessage):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoomFull):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInviteCode),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// currentUserID pulls the authenticated user id set by the auth middleware.
// It writes the error response itself and reports ok=false when absent.
func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: user ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: user ID in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error processing user ID")
		return 0, false
	}
	return userID, true
}
