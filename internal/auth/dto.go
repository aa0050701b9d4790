package auth

import (
	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/internal/memberships"
	"github.com/fourmis-app/fourmis-backend/internal/profiles"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SchoolSummary describes the school metadata returned after login.
type SchoolSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LoginResponse contains the tokens, profile, and school list produced by a
// successful login.
type LoginResponse struct {
	AccessToken  string                             `json:"access_token"`
	RefreshToken string                             `json:"refresh_token"`
	Schools      []SchoolSummary                    `json:"schools"`
	Profile      *profiles.ProfileDTO               `json:"profile"`
	Memberships  []memberships.MembershipWithSchool `json:"memberships,omitempty"`
}
