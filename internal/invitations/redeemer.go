package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/internal/contacts"
	"github.com/fourmis-app/fourmis-backend/internal/identity"
	"github.com/fourmis-app/fourmis-backend/internal/memberships"
	"github.com/fourmis-app/fourmis-backend/internal/profiles"
	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	"github.com/fourmis-app/fourmis-backend/pkg/enums"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
	"github.com/fourmis-app/fourmis-backend/pkg/metrics"
	"github.com/fourmis-app/fourmis-backend/pkg/security"
)

const invalidTokenMessage = "invitation link is invalid or has expired"

// RedeemRequest carries the new-account details supplied with a token.
type RedeemRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
}

// RedeemResult reports the records provisioned by a successful redemption.
type RedeemResult struct {
	IdentityID   uuid.UUID `json:"identity_id"`
	ProfileID    uuid.UUID `json:"profile_id"`
	MembershipID uuid.UUID `json:"membership_id"`
	SchoolID     uuid.UUID `json:"school_id"`
}

// Redeemer exchanges a valid invitation token for a provisioned account:
// identity, profile, contact and school membership, all or nothing.
type Redeemer interface {
	Redeem(ctx context.Context, token string, req RedeemRequest) (*RedeemResult, error)
}

type redeemInvitationRepo interface {
	ConsumeIfRedeemable(ctx context.Context, token string, now time.Time) (*models.Invitation, error)
	Release(ctx context.Context, id uuid.UUID, claimedAt time.Time) error
}

type profileRepo interface {
	Create(ctx context.Context, dto profiles.CreateProfileDTO) (*models.Profile, error)
	FindByIdentityID(ctx context.Context, identityID uuid.UUID) (*models.Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type contactRepo interface {
	Create(ctx context.Context, dto contacts.CreateContactDTO) (*models.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type membershipRepo interface {
	Create(ctx context.Context, dto memberships.CreateMembershipDTO) (*models.SchoolMembership, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type levelResolver interface {
	ListLevels(ctx context.Context, schoolID uuid.UUID) ([]models.AcademicLevel, error)
}

type redeemer struct {
	invitations redeemInvitationRepo
	identities  identity.Service
	profiles    profileRepo
	contacts    contactRepo
	memberships membershipRepo
	schools     levelResolver
	logg        *logger.Logger
	metrics     *metrics.WorkflowMetrics
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// RedeemerParams bundles the dependencies required to build a redeemer.
type RedeemerParams struct {
	Invitations redeemInvitationRepo
	Identities  identity.Service
	Profiles    profileRepo
	Contacts    contactRepo
	Memberships membershipRepo
	Schools     levelResolver
	Logger      *logger.Logger
	Metrics     *metrics.WorkflowMetrics
	PasswordCfg config.PasswordConfig
	Now         func() time.Time
}

// NewRedeemer constructs an invitation redeemer with the provided dependencies.
func NewRedeemer(params RedeemerParams) (Redeemer, error) {
	if params.Invitations == nil {
		return nil, fmt.Errorf("invitations repository is required")
	}
	if params.Identities == nil {
		return nil, fmt.Errorf("identity service is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profiles repository is required")
	}
	if params.Contacts == nil {
		return nil, fmt.Errorf("contacts repository is required")
	}
	if params.Memberships == nil {
		return nil, fmt.Errorf("memberships repository is required")
	}
	if params.Schools == nil {
		return nil, fmt.Errorf("schools repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &redeemer{
		invitations: params.Invitations,
		identities:  params.Identities,
		profiles:    params.Profiles,
		contacts:    params.Contacts,
		memberships: params.Memberships,
		schools:     params.Schools,
		logg:        params.Logger,
		metrics:     params.Metrics,
		passwordCfg: params.PasswordCfg,
		now:         now,
	}, nil
}

// compensation is one undo action recorded after its step succeeded. Undo
// actions run in reverse order of registration.
type compensation struct {
	step string
	undo func(ctx context.Context) error
}

func (s *redeemer) Redeem(ctx context.Context, token string, req RedeemRequest) (*RedeemResult, error) {
	started := s.now()

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name and last_name are required")
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	ctx = s.logg.WithTokenPrefix(ctx, token)

	// Claim the invitation before provisioning anything. The conditional
	// update is the only defense against two concurrent redemptions of the
	// same token: exactly one caller gets the row, everyone else stops here
	// with no side effects. A provisioning failure later releases the claim
	// so the link stays usable for a fresh attempt.
	claimedAt := started
	inv, err := s.invitations.ConsumeIfRedeemable(ctx, token, claimedAt)
	if err != nil {
		if errors.Is(err, ErrNotRedeemable) {
			s.metrics.IncRedeemed("invalid_token")
			return nil, pkgerrors.New(pkgerrors.CodeInvalidToken, invalidTokenMessage)
		}
		s.metrics.IncRedeemed("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim invitation")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"invitation_id": inv.ID.String(),
		"school_id":     inv.SchoolID.String(),
	})

	result, err := s.provision(ctx, inv, req)
	if err != nil {
		if relErr := s.invitations.Release(ctx, inv.ID, claimedAt); relErr != nil {
			// The account was not created, but the link is now burned until
			// an operator intervenes. Surface loudly.
			s.logg.Error(ctx, "redeem.release_claim_failed", relErr)
			err = multierr.Append(err, fmt.Errorf("release invitation claim: %w", relErr))
		}
		s.metrics.IncRedeemed(redeemFailureLabel(err))
		s.metrics.ObserveRedeemDuration("error", s.now().Sub(started))
		return nil, err
	}

	s.metrics.IncRedeemed("ok")
	s.metrics.ObserveRedeemDuration("ok", s.now().Sub(started))
	s.logg.Info(ctx, "redeem.completed")
	return result, nil
}

// provision runs the ordered write chain, recording an undo action per
// completed step. On failure the recorded actions run newest-first so no
// partially provisioned record survives.
func (s *redeemer) provision(ctx context.Context, inv *models.Invitation, req RedeemRequest) (result *RedeemResult, err error) {
	var undos []compensation
	defer func() {
		if err == nil {
			return
		}
		for i := len(undos) - 1; i >= 0; i-- {
			c := undos[i]
			if undoErr := c.undo(ctx); undoErr != nil {
				s.logg.Error(s.logg.WithField(ctx, "step", c.step), "redeem.compensation_failed", undoErr)
				err = multierr.Append(err, fmt.Errorf("undo %s: %w", c.step, undoErr))
			}
		}
	}()

	// A previous partial redemption (or a stale registration) may have left
	// an identity behind for this email. Policy is reset-and-recreate: wipe
	// the dangling records so provisioning always starts clean.
	if err := s.resetExistingAccount(ctx, inv.Email); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset existing account")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	verifiedAt := s.now()
	account, err := s.identities.CreateAccount(ctx, identity.CreateAccountDTO{
		Email:           inv.Email,
		PasswordHash:    passwordHash,
		EmailVerifiedAt: &verifiedAt,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create identity")
	}
	undos = append(undos, compensation{"identity", func(ctx context.Context) error {
		return s.identities.DeleteAccount(ctx, account.ID)
	}})

	profile, err := s.ensureProfile(ctx, account.ID, inv.Email, req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	undos = append(undos, compensation{"profile", func(ctx context.Context) error {
		return s.profiles.Delete(ctx, profile.ID)
	}})

	contact, err := s.contacts.Create(ctx, contacts.CreateContactDTO{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contact")
	}
	undos = append(undos, compensation{"contact", func(ctx context.Context) error {
		return s.contacts.Delete(ctx, contact.ID)
	}})

	levels, err := s.schools.ListLevels(ctx, inv.SchoolID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list academic levels")
	}
	if len(levels) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoLevels, "school has no academic level configured")
	}
	levelID := levels[0].ID

	membership, err := s.memberships.Create(ctx, memberships.CreateMembershipDTO{
		SchoolID:        inv.SchoolID,
		ProfileID:       profile.ID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		MemberType:      enums.MemberTypeStudent,
		AcademicLevelID: &levelID,
		ContactID:       &contact.ID,
		Email:           inv.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
	}

	return &RedeemResult{
		IdentityID:   account.ID,
		ProfileID:    profile.ID,
		MembershipID: membership.ID,
		SchoolID:     inv.SchoolID,
	}, nil
}

// resetExistingAccount removes a dangling identity for the invited email along
// with its dependent profiles, memberships and contacts. Redemption always
// provisions from scratch; pre-existing account data for the email is treated
// as disposable.
func (s *redeemer) resetExistingAccount(ctx context.Context, email string) error {
	existing, err := s.identities.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup identity: %w", err)
	}

	ctx = s.logg.WithField(ctx, "prior_identity_id", existing.ID.String())
	s.logg.Warn(ctx, "redeem.resetting_existing_account")

	if err := s.identities.PurgeAccount(ctx, existing.ID); err != nil {
		return fmt.Errorf("purge identity: %w", err)
	}
	return nil
}

// ensureProfile creates the invitee's profile, reusing a stub left behind by
// an identity-side auto-provisioning hook if one exists.
func (s *redeemer) ensureProfile(ctx context.Context, identityID uuid.UUID, email string, req RedeemRequest) (*models.Profile, error) {
	displayName := strings.TrimSpace(req.FirstName + " " + req.LastName)

	existing, err := s.profiles.FindByIdentityID(ctx, identityID)
	if err == nil && existing != nil {
		return existing, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.profiles.Create(ctx, profiles.CreateProfileDTO{
		IdentityID:  identityID,
		Email:       email,
		DisplayName: displayName,
		Role:        enums.ProfileRoleStudent,
	})
}

func redeemFailureLabel(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNoLevels {
		return "no_levels"
	}
	return "error"
}
