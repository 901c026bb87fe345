package repository

import (
	"context"
	"time"

	"study-room/internal/domain"
)

// MembershipRepository stores the per-(user, room) presence rows.
type MembershipRepository interface {
	// Create inserts a membership row. Returns ErrDuplicateEntry when the
	// (user, room) pair already has one; callers treat that as already
	// joined.
	Create(ctx context.Context, m *domain.Membership) error

	// Delete removes the row for the pair. Deleting an absent row is not an
	// error.
	Delete(ctx context.Context, userID, roomID uint) error

	// CountByRoom returns the number of membership rows referencing the room.
	CountByRoom(ctx context.Context, roomID uint) (int64, error)

	// Exists reports whether the pair has a membership row.
	Exists(ctx context.Context, userID, roomID uint) (bool, error)

	// DeleteStale removes rows joined before the cutoff, returning how many
	// were removed. Used by the background sweep that ages out orphans left
	// by ungraceful disconnects.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
