package invitations

import (
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

// InvitationDTO is the transport shape for an invitation. The raw token is
// never included; it only travels inside the emailed link.
type InvitationDTO struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	SchoolID   uuid.UUID  `json:"school_id"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateInvitationDTO holds the data required by the repo to persist a new
// invitation.
type CreateInvitationDTO struct {
	Token              string
	Email              string
	FirstName          *string
	LastName           *string
	SchoolID           uuid.UUID
	InvitedByProfileID uuid.UUID
	ExpiresAt          time.Time
}

func FromModel(inv *models.Invitation) *InvitationDTO {
	if inv == nil {
		return nil
	}

	return &InvitationDTO{
		ID:         inv.ID,
		Email:      inv.Email,
		FirstName:  inv.FirstName,
		LastName:   inv.LastName,
		SchoolID:   inv.SchoolID,
		ExpiresAt:  inv.ExpiresAt,
		ConsumedAt: inv.ConsumedAt,
		CreatedAt:  inv.CreatedAt,
	}
}

func (c CreateInvitationDTO) ToModel() *models.Invitation {
	return &models.Invitation{
		Token:              c.Token,
		Email:              c.Email,
		FirstName:          c.FirstName,
		LastName:           c.LastName,
		SchoolID:           c.SchoolID,
		InvitedByProfileID: c.InvitedByProfileID,
		ExpiresAt:          c.ExpiresAt,
	}
}
