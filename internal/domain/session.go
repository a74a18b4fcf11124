package domain

import "time"

const TokenTypeBearer = "Bearer"

// Session pairs one access token with one refresh token for a single device.
// A user owns any number of concurrent sessions, one per login.
type Session struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	AccessToken      string    `gorm:"size:512;not null" json:"-"`
	TokenType        string    `gorm:"size:50;not null" json:"token_type"`
	AccessExpiresAt  time.Time `gorm:"not null" json:"access_expires_at"`
	RefreshToken     string    `gorm:"size:255;uniqueIndex;not null" json:"-"`
	RefreshExpiresAt time.Time `gorm:"index;not null" json:"refresh_expires_at"`
	Revoked          bool      `gorm:"not null;default:false" json:"revoked"`
	// Expired mirrors AccessExpiresAt having passed. It is denormalized for
	// enumeration queries and must never be trusted over a clock comparison.
	Expired        bool      `gorm:"not null;default:false" json:"expired"`
	IsMobileDevice bool      `gorm:"not null;default:false" json:"is_mobile_device"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccessExpired compares against the live clock, not the cached flag.
func (s *Session) AccessExpired(now time.Time) bool {
	return !now.Before(s.AccessExpiresAt)
}

// RefreshExpired reports whether the refresh token can no longer be redeemed.
func (s *Session) RefreshExpired(now time.Time) bool {
	return !now.Before(s.RefreshExpiresAt)
}
