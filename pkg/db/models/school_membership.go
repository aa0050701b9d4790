package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/enums"
)

// SchoolMembership links a profile with a school. Exactly one per
// (school, profile) pair; it owns its contact record.
type SchoolMembership struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SchoolID        uuid.UUID        `gorm:"column:school_id;type:uuid;not null;uniqueIndex:idx_school_profile"`
	ProfileID       uuid.UUID        `gorm:"column:profile_id;type:uuid;not null;uniqueIndex:idx_school_profile"`
	FirstName       string           `gorm:"column:first_name;not null"`
	LastName        string           `gorm:"column:last_name;not null"`
	MemberType      enums.MemberType `gorm:"column:member_type;type:member_type;not null"`
	AcademicLevelID *uuid.UUID       `gorm:"column:academic_level_id;type:uuid"`
	ContactID       *uuid.UUID       `gorm:"column:contact_id;type:uuid"`
	Email           string           `gorm:"column:email;not null"`
	CalendarURL     *string          `gorm:"column:calendar_url"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
