package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authentication principal behind a profile. It carries the
// credential and nothing else; product data lives on Profile.
type Identity struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	LastLoginAt     *time.Time `gorm:"column:last_login_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
