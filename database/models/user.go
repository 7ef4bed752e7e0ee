package models

import (
	"strings"
	"time"
)

// User account record. Authorization decisions live in the session layer.
type User struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"size:120;not null" json:"name"`
	Email         string    `gorm:"size:120;uniqueIndex:idx_users_email;not null" json:"email"`
	Username      string    `gorm:"size:120;uniqueIndex:idx_users_username;not null" json:"username"`
	Password      *string   `gorm:"size:255" json:"-"` // nil for accounts created by OAuth
	OAuthProvider string    `gorm:"size:64" json:"oauth_provider,omitempty"`
	ProfilePhoto  string    `gorm:"size:255" json:"profile_photo,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can log in locally.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
