package http

import (
	"net/http"

	"study-room/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler wraps the sign-up/sign-in/OTP HTTP endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest is the sign-up request body.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"omitempty,max=191"`
}

// Register handles sign-up.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Register: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: valid email and a password of at least 6 characters are required")
		return
	}

	newUser, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithField("user_id", newUser.ID).Info("Handler.Register: user registered successfully")
	SuccessResponse(c, http.StatusOK, gin.H{
		"message": "User registered successfully",
		"user_id": newUser.ID,
	})
}

// LoginRequest is the sign-in request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the successful sign-in response body.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Login handles sign-in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Login: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: email and password required")
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithField("email", req.Email).Info("Handler.Login: user logged in successfully")
	SuccessResponse(c, http.StatusOK, LoginResponse{
		Message: "Login successful",
		Token:   token,
	})
}

// SendOTPRequest is the body of POST /api/send-otp.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SendOTP issues a verification code and triggers its email delivery.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.SendOTP: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: a valid email is required")
		return
	}

	if err := h.authService.SendOTP(c.Request.Context(), req.Email); err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Verification code sent",
	})
}

// VerifyOTPRequest is the OTP verification request body.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,min=4,max=6"`
}

// VerifyOTP consumes a verification code.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.VerifyOTP: invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: email and code are required")
		return
	}

	if err := h.authService.VerifyOTP(c.Request.Context(), req.Email, req.Code); err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Email verified",
	})
}
