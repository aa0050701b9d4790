package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	"github.com/fourmis-app/fourmis-backend/pkg/enums"
)

// ProfileDTO is the transport shape for a profile.
type ProfileDTO struct {
	ID          uuid.UUID         `json:"id"`
	IdentityID  uuid.UUID         `json:"identity_id"`
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Role        enums.ProfileRole `json:"role"`
	AvatarURL   *string           `json:"avatar_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateProfileDTO holds the data required by the repo to persist a new profile.
type CreateProfileDTO struct {
	IdentityID  uuid.UUID
	Email       string
	DisplayName string
	Role        enums.ProfileRole
	AvatarURL   *string
}

func FromModel(p *models.Profile) *ProfileDTO {
	if p == nil {
		return nil
	}

	return &ProfileDTO{
		ID:          p.ID,
		IdentityID:  p.IdentityID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		AvatarURL:   p.AvatarURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (c CreateProfileDTO) ToModel() *models.Profile {
	return &models.Profile{
		IdentityID:  c.IdentityID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Role:        c.Role,
		AvatarURL:   c.AvatarURL,
	}
}
