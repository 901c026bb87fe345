package repository

import (
	"context"
	"time"

	"study-room/internal/domain"
)

// OTPRepository stores one-time verification codes.
type OTPRepository interface {
	// Create inserts a new code row.
	Create(ctx context.Context, code *domain.OTPCode) error

	// FindLatestByEmail returns the most recently issued code for the email,
	// used or not. Returns ErrOTPNotFound when none exists.
	FindLatestByEmail(ctx context.Context, email string) (*domain.OTPCode, error)

	// MarkUsed flags the code row as consumed.
	MarkUsed(ctx context.Context, id uint) error

	// PurgeExpired deletes rows that expired before the cutoff or were
	// already used, returning how many were removed.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
