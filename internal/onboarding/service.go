package onboarding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

// Status reports whether the caller finished onboarding, i.e. whether a
// school membership exists for their profile.
type Status struct {
	Completed bool       `json:"completed"`
	SchoolID  *uuid.UUID `json:"school_id,omitempty"`
}

// Service answers the dashboard shell's "is this account onboarded" question.
type Service interface {
	Check(ctx context.Context, profileID uuid.UUID) Status
}

type membershipFinder interface {
	FindByProfile(ctx context.Context, profileID uuid.UUID) (*models.SchoolMembership, error)
}

type service struct {
	memberships membershipFinder
	logg        *logger.Logger
}

// ServiceParams bundles the dependencies required to build the status check.
type ServiceParams struct {
	Memberships membershipFinder
	Logger      *logger.Logger
}

// NewService constructs the onboarding status check.
func NewService(params ServiceParams) (Service, error) {
	if params.Memberships == nil {
		return nil, fmt.Errorf("memberships repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{memberships: params.Memberships, logg: params.Logger}, nil
}

// Check is a pure read and never fails the caller: a missing profile, a
// missing membership, and a storage error all degrade to completed=false.
func (s *service) Check(ctx context.Context, profileID uuid.UUID) Status {
	if profileID == uuid.Nil {
		return Status{Completed: false}
	}

	membership, err := s.memberships.FindByProfile(ctx, profileID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logg.Error(s.logg.WithProfileID(ctx, profileID.String()), "onboarding.lookup_failed", err)
		return Status{Completed: false}
	}
	if membership == nil {
		return Status{Completed: false}
	}

	schoolID := membership.SchoolID
	return Status{Completed: true, SchoolID: &schoolID}
}
