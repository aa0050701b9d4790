package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// School is the tenant entity.
type School struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	City      *string        `gorm:"column:city"`
	Programs  pq.StringArray `gorm:"column:programs;type:text[]"`
	LogoURL   *string        `gorm:"column:logo_url"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// AcademicLevel is a per-school level (e.g. "L1", "M2"). Memberships reference
// exactly one level of their school.
type AcademicLevel struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SchoolID  uuid.UUID `gorm:"column:school_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Rank      int       `gorm:"column:rank;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
