package domain

import "time"

// Message is a chat message inside a room. UpdatedAt equals InsertedAt until
// the first edit.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoomID     uint      `gorm:"index;not null" json:"room_id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	InsertedAt time.Time `gorm:"autoCreateTime;index" json:"inserted_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
