package domain

import "time"

// Room statuses shown in the directory listing.
const (
	RoomStatusActive = "active"
	RoomStatusBusy   = "busy"
	RoomStatusIdle   = "idle"
)

// Room is a topic-based chat room. Rooms are created by users and never
// hard-deleted.
type Room struct {
	ID          uint      `gorm:"primaryKey"`
	Slug        string    `gorm:"uniqueIndex:idx_slug;size:191;not null"`
	Name        string    `gorm:"size:191;not null"`
	IconName    string    `gorm:"size:64"`
	Description string    `gorm:"type:text"`
	Status      string    `gorm:"size:16;not null;default:active"`
	MaxMembers  int       `gorm:"not null"`
	InviteCode  string    `gorm:"uniqueIndex:idx_invite_code;size:191;not null"`
	CreatorID   uint      `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Membership asserts that a user is currently present in a room. At most one
// row exists per (user, room) pair; the unique index resolves concurrent
// joins.
type Membership struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"uniqueIndex:idx_user_room;not null"`
	RoomID   uint      `gorm:"uniqueIndex:idx_user_room;index;not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

// RoomWithCount pairs a room with its live member count for directory
// listings.
type RoomWithCount struct {
	Room
	MemberCount int64 `gorm:"-"`
}
