package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: account already exists")
	ErrInvalidInviteCode    = errors.New("invalid invite code")
	ErrRoomFull             = errors.New("room is at capacity")
	ErrEmptyMessage         = errors.New("message content is empty")
	ErrForbidden            = errors.New("operation not permitted for this user")
	ErrOTPInvalid           = errors.New("invalid verification code")
	ErrOTPExpired           = errors.New("verification code expired")
	ErrInternalServer       = errors.New("internal server error")
)
