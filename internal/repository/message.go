package repository

import (
	"context"

	"study-room/internal/domain"
)

// MessageRepository stores room messages.
type MessageRepository interface {
	// FindByID returns ErrMessageNotFound when the id is unknown.
	FindByID(ctx context.Context, id uint) (*domain.Message, error)

	// FindRecentByRoom returns at most limit of the newest messages in the
	// room, ordered by insertion time ascending.
	FindRecentByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Message, error)

	// Create inserts the message and fills the generated id and timestamps.
	Create(ctx context.Context, m *domain.Message) error

	// UpdateContent replaces the content of the message, bumping updated_at
	// and leaving inserted_at untouched.
	UpdateContent(ctx context.Context, id uint, content string) (*domain.Message, error)

	// Delete removes the message. Returns ErrMessageNotFound when it does
	// not exist.
	Delete(ctx context.Context, id uint) error
}
