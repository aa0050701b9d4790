package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/enums"
)

// Profile is the local representation of an identity. At most one per identity.
type Profile struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID  uuid.UUID         `gorm:"column:identity_id;type:uuid;not null;uniqueIndex"`
	Email       string            `gorm:"column:email;not null"`
	DisplayName string            `gorm:"column:display_name;not null"`
	Role        enums.ProfileRole `gorm:"column:role;type:profile_role;not null"`
	AvatarURL   *string           `gorm:"column:avatar_url"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
