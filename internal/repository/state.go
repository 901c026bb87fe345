package repository

import (
	"context"
	"time"

	"study-room/internal/domain"
)

// StateRepository covers the live, non-durable room state, normally backed
// by Redis: member counters, the per-room event channel and rate limiting.
type StateRepository interface {
	// === Member counters ===

	// SetMemberCount overwrites the live counter for a room. Called when a
	// room's event subscription starts, seeding the counter from the
	// authoritative row count.
	SetMemberCount(ctx context.Context, roomID uint, count int64) error

	// AdjustMemberCount adds delta (+1 on join, -1 on leave) and returns the
	// new value. The counter is never refetched from the database per event.
	AdjustMemberCount(ctx context.Context, roomID uint, delta int64) (int64, error)

	// GetMemberCount returns the live counter, 0 when unset.
	GetMemberCount(ctx context.Context, roomID uint) (int64, error)

	// === Change notifications ===

	// PublishEvent puts the event on the room's channel. Per-channel order
	// follows publish order.
	PublishEvent(ctx context.Context, event domain.RoomEvent) error

	// SubscribeRoom returns a receive channel for the room's events plus a
	// cancel function that tears the subscription down.
	SubscribeRoom(ctx context.Context, roomID uint) (<-chan domain.RoomEvent, func(), error)

	// === Rate limiting ===

	// CheckRateLimit increments the counter for key and reports whether the
	// caller exceeded limit within the window.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
