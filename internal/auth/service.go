package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/internal/identity"
	"github.com/fourmis-app/fourmis-backend/internal/memberships"
	"github.com/fourmis-app/fourmis-backend/internal/profiles"
	pkgAuth "github.com/fourmis-app/fourmis-backend/pkg/auth"
	"github.com/fourmis-app/fourmis-backend/pkg/auth/session"
	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type identityAuthenticator interface {
	FindAccountByEmail(ctx context.Context, email string) (*models.Identity, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type profileFinder interface {
	FindByIdentityID(ctx context.Context, identityID uuid.UUID) (*models.Profile, error)
}

type membershipsLister interface {
	ListProfileSchools(ctx context.Context, profileID uuid.UUID) ([]memberships.MembershipWithSchool, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type service struct {
	identities  identityAuthenticator
	profiles    profileFinder
	memberships membershipsLister
	session     sessionManager
	jwtCfg      config.JWTConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Identities      identityAuthenticator
	Profiles        profileFinder
	MembershipsRepo membershipsLister
	SessionManager  sessionManager
	JWTConfig       config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Identities == nil {
		return nil, fmt.Errorf("identity service is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository is required")
	}
	if params.MembershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		identities:  params.Identities,
		profiles:    params.Profiles,
		memberships: params.MembershipsRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.FindByIdentityID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup profile")
	}

	schoolMemberships, err := s.memberships.ListProfileSchools(ctx, profile.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list schools")
	}

	now := time.Now().UTC()
	if err := s.identities.RecordLogin(ctx, account.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}

	schools := make([]SchoolSummary, 0, len(schoolMemberships))
	for _, m := range schoolMemberships {
		schools = append(schools, SchoolSummary{ID: m.SchoolID, Name: m.SchoolName})
	}

	var activeSchoolID *uuid.UUID
	if len(schoolMemberships) > 0 {
		id := schoolMemberships[0].SchoolID
		activeSchoolID = &id
	}

	accessID := session.NewAccessID()
	tokenPayload := pkgAuth.AccessTokenPayload{
		ProfileID: profile.ID,
		SchoolID:  activeSchoolID,
		Role:      profile.Role,
		JTI:       accessID,
	}
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, tokenPayload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Schools:      schools,
		Profile:      profiles.FromModel(profile),
		Memberships:  schoolMemberships,
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	account, err := s.identities.FindAccountByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
	}

	valid, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return account, nil
}
