// Package domain defines the persistent data structures of the application.
package domain

import "time"

// User is the identity record behind a signed-in session.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"type:varchar(191);uniqueIndex:idx_email;not null"`
	Password  string    `gorm:"type:text;not null"` // bcrypt hash, never the plain text
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Profile carries the user-editable presentation data. It is created
// alongside the User record and shares its primary key.
type Profile struct {
	ID        uint      `gorm:"primaryKey"` // equals User.ID
	FullName  string    `gorm:"type:varchar(191)"`
	AvatarURL string    `gorm:"type:text"`
	Bio       string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
