package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation is a pending, time-boxed offer to join a school.
// A token is redeemable iff ConsumedAt is null and ExpiresAt is in the future.
type Invitation struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Token              string     `gorm:"column:token;not null;uniqueIndex"`
	Email              string     `gorm:"column:email;not null;index"`
	FirstName          *string    `gorm:"column:first_name"`
	LastName           *string    `gorm:"column:last_name"`
	SchoolID           uuid.UUID  `gorm:"column:school_id;type:uuid;not null;index"`
	InvitedByProfileID uuid.UUID  `gorm:"column:invited_by_profile_id;type:uuid;not null"`
	ExpiresAt          time.Time  `gorm:"column:expires_at;not null"`
	ConsumedAt         *time.Time `gorm:"column:consumed_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsExpired reports whether the invitation's redemption window has closed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsRedeemable reports whether the token can still be consumed.
func (i *Invitation) IsRedeemable(now time.Time) bool {
	return i.ConsumedAt == nil && !i.IsExpired(now)
}
