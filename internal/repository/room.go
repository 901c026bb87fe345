package repository

import (
	"context"

	"study-room/internal/domain"
)

// RoomRepository stores and retrieves rooms.
type RoomRepository interface {
	// FindByID returns ErrRoomNotFound when the id is unknown.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindBySlug returns ErrRoomNotFound when no room has the slug.
	FindBySlug(ctx context.Context, slug string) (*domain.Room, error)

	// FindByInviteCode returns ErrRoomNotFound when no room has the code.
	FindByInviteCode(ctx context.Context, code string) (*domain.Room, error)

	// FindAll returns every room ordered by creation time descending.
	FindAll(ctx context.Context) ([]domain.Room, error)

	// Save creates the room when ID is zero, otherwise updates it. Returns
	// ErrDuplicateEntry on a slug or invite code collision.
	Save(ctx context.Context, room *domain.Room) error

	// IsSlugTaken reports whether a room already uses the slug.
	IsSlugTaken(ctx context.Context, slug string) (bool, error)

	// IsInviteCodeTaken reports whether a room already uses the code.
	IsInviteCodeTaken(ctx context.Context, code string) (bool, error)
}
