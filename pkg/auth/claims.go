package auth

import (
	"github.com/fourmis-app/fourmis-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ProfileID uuid.UUID
	SchoolID  *uuid.UUID
	Role      enums.ProfileRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	ProfileID uuid.UUID         `json:"profile_id"`
	SchoolID  *uuid.UUID        `json:"school_id,omitempty"`
	Role      enums.ProfileRole `json:"role"`
	jwt.RegisteredClaims
}
