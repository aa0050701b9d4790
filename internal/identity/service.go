package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/pkg/db"
	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
)

// ErrNotFound is returned when no identity matches the lookup.
var ErrNotFound = errors.New("identity not found")

// Service is the account provider boundary. Identities live outside the
// school-records transaction, so callers that provision an account together
// with other records must compensate with DeleteAccount on failure.
type Service interface {
	CreateAccount(ctx context.Context, dto CreateAccountDTO) (*models.Identity, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindAccountByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	PurgeAccount(ctx context.Context, id uuid.UUID) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type service struct {
	db *db.Client
}

// ServiceParams bundles the dependencies required to build an identity service.
type ServiceParams struct {
	DB *db.Client
}

// NewService constructs an identity service backed by the primary database.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &service{db: params.DB}, nil
}

func (s *service) CreateAccount(ctx context.Context, dto CreateAccountDTO) (*models.Identity, error) {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	if dto.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if dto.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password hash is required")
	}

	account := dto.ToModel()
	if err := s.db.DB().WithContext(ctx).Create(account).Error; err != nil {
		if db.IsUniqueViolation(err, "uq_identities_email") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, err
	}
	return account, nil
}

func (s *service) FindAccountByEmail(ctx context.Context, email string) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var account models.Identity
	if err := s.db.DB().WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *service) FindAccountByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var account models.Identity
	if err := s.db.DB().WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.db.DB().WithContext(ctx).Delete(&models.Identity{}, "id = ?", id).Error
}

// PurgeAccount removes an identity together with every dependent record: all
// profiles, every school membership held by those profiles, and the contact
// rows those memberships own. Contacts are collected up front because their
// foreign key is SET NULL, so a cascade would leave them orphaned. The
// teardown runs in a single transaction.
func (s *service) PurgeAccount(ctx context.Context, id uuid.UUID) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var profileIDs []uuid.UUID
		if err := tx.Model(&models.Profile{}).
			Where("identity_id = ?", id).
			Pluck("id", &profileIDs).Error; err != nil {
			return err
		}

		if len(profileIDs) > 0 {
			var contactIDs []uuid.UUID
			if err := tx.Model(&models.SchoolMembership{}).
				Where("profile_id IN ? AND contact_id IS NOT NULL", profileIDs).
				Pluck("contact_id", &contactIDs).Error; err != nil {
				return err
			}

			if err := tx.Where("profile_id IN ?", profileIDs).
				Delete(&models.SchoolMembership{}).Error; err != nil {
				return err
			}
			if len(contactIDs) > 0 {
				if err := tx.Where("id IN ?", contactIDs).
					Delete(&models.Contact{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", profileIDs).
				Delete(&models.Profile{}).Error; err != nil {
				return err
			}
		}

		return tx.Where("id = ?", id).Delete(&models.Identity{}).Error
	})
}

func (s *service) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.db.DB().WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
