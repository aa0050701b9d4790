package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	"github.com/fourmis-app/fourmis-backend/pkg/enums"
)

// CreateMembershipDTO holds the data required to enroll a profile in a school.
type CreateMembershipDTO struct {
	SchoolID        uuid.UUID
	ProfileID       uuid.UUID
	FirstName       string
	LastName        string
	MemberType      enums.MemberType
	AcademicLevelID *uuid.UUID
	ContactID       *uuid.UUID
	Email           string
	CalendarURL     *string
}

func (c CreateMembershipDTO) ToModel() *models.SchoolMembership {
	return &models.SchoolMembership{
		SchoolID:        c.SchoolID,
		ProfileID:       c.ProfileID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		MemberType:      c.MemberType,
		AcademicLevelID: c.AcademicLevelID,
		ContactID:       c.ContactID,
		Email:           c.Email,
		CalendarURL:     c.CalendarURL,
	}
}

// MembershipWithSchool joins a membership row with its school for session
// bootstrapping and listings.
type MembershipWithSchool struct {
	MembershipID uuid.UUID        `json:"membership_id"`
	SchoolID     uuid.UUID        `json:"school_id"`
	SchoolName   string           `json:"school_name"`
	MemberType   enums.MemberType `json:"member_type"`
	JoinedAt     time.Time        `json:"joined_at"`
}

// MemberDTO is the roster entry returned to school admins.
type MemberDTO struct {
	ID              uuid.UUID        `json:"id"`
	ProfileID       uuid.UUID        `json:"profile_id"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	Email           string           `json:"email"`
	MemberType      enums.MemberType `json:"member_type"`
	AcademicLevelID *uuid.UUID       `json:"academic_level_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func MemberFromModel(m *models.SchoolMembership) *MemberDTO {
	if m == nil {
		return nil
	}

	return &MemberDTO{
		ID:              m.ID,
		ProfileID:       m.ProfileID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Email:           m.Email,
		MemberType:      m.MemberType,
		AcademicLevelID: m.AcademicLevelID,
		CreatedAt:       m.CreatedAt,
	}
}
