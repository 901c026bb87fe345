package domain

import "time"

// OTPCode is a one-time numeric code used as an email verification factor.
// A code is accepted only once, only before expiry, and only the most
// recently issued code for an email is honored.
type OTPCode struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"type:varchar(191);index;not null"`
	Code      string    `gorm:"size:8;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Used      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Expired reports whether the code is past its expiry at the given instant.
func (o *OTPCode) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
