package repository

import (
	"context"

	"study-room/internal/domain"
)

// UserRepository stores and retrieves identity records.
type UserRepository interface {
	// FindByEmail returns ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns ErrUserNotFound when the id is unknown.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// Save creates the user when ID is zero, otherwise updates it. Returns
	// ErrDuplicateEntry on an email collision.
	Save(ctx context.Context, user *domain.User) error
}

// ProfileRepository stores the user-editable profile rows.
type ProfileRepository interface {
	// FindByUserID returns ErrProfileNotFound when no profile row exists.
	FindByUserID(ctx context.Context, userID uint) (*domain.Profile, error)

	// Save creates or updates the profile row.
	Save(ctx context.Context, profile *domain.Profile) error
}
