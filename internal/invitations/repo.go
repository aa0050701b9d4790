package invitations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

// ErrNotRedeemable is returned by ConsumeIfRedeemable when the invitation is
// missing, expired, or already consumed. Callers cannot distinguish the three
// cases; the public error message stays uniform on purpose.
var ErrNotRedeemable = errors.New("invitation not redeemable")

// Repository exposes invitation persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an invitations repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new invitation and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateInvitationDTO) (*models.Invitation, error) {
	inv := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// FindByID loads an invitation by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListBySchool returns the school's invitations, newest first.
func (r *Repository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// Delete removes an invitation by ID. Used both for admin revocation and as
// the compensation step when the invitation email cannot be delivered.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Invitation{}, "id = ?", id).Error
}

// ConsumeIfRedeemable atomically claims the invitation: a single conditional
// UPDATE stamps consumed_at only when the row is unconsumed and unexpired.
// Concurrent redeemers race on this statement and exactly one wins; the rest
// get ErrNotRedeemable without ever reading the row first.
func (r *Repository) ConsumeIfRedeemable(ctx context.Context, token string, now time.Time) (*models.Invitation, error) {
	if token == "" {
		return nil, ErrNotRedeemable
	}

	res := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("token = ? AND consumed_at IS NULL AND expires_at > ?", token, now).
		UpdateColumn("consumed_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotRedeemable
	}

	var inv models.Invitation
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Release undoes a consumption claim after downstream provisioning failed,
// making the invitation redeemable again. Guarded on consumed_at so a retry
// that already re-claimed the row is not clobbered.
func (r *Repository) Release(ctx context.Context, id uuid.UUID, claimedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND consumed_at = ?", id, claimedAt).
		UpdateColumn("consumed_at", nil).Error
}
