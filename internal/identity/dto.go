package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

// AccountDTO is the transport shape that omits sensitive credentials.
type AccountDTO struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateAccountDTO holds the data required to provision a new identity.
type CreateAccountDTO struct {
	Email           string
	PasswordHash    string
	EmailVerifiedAt *time.Time
}

func FromModel(i *models.Identity) *AccountDTO {
	if i == nil {
		return nil
	}

	return &AccountDTO{
		ID:              i.ID,
		Email:           i.Email,
		EmailVerifiedAt: i.EmailVerifiedAt,
		LastLoginAt:     i.LastLoginAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func (c CreateAccountDTO) ToModel() *models.Identity {
	return &models.Identity{
		Email:           c.Email,
		PasswordHash:    c.PasswordHash,
		EmailVerifiedAt: c.EmailVerifiedAt,
	}
}
