package repository

import "errors"

// Generic repository errors.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means an insert or update violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

// Resource-specific aliases, kept so call sites read naturally.
var (
	ErrUserNotFound    = ErrNotFound
	ErrProfileNotFound = ErrNotFound
	ErrRoomNotFound    = ErrNotFound
	ErrMessageNotFound = ErrNotFound
	ErrOTPNotFound     = ErrNotFound
)
