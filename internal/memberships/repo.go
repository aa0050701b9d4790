package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

// Repository exposes school membership persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a memberships repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new membership and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateMembershipDTO) (*models.SchoolMembership, error) {
	membership := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// Find retrieves the membership binding a profile to a school, or nil when
// the profile is not enrolled.
func (r *Repository) Find(ctx context.Context, schoolID, profileID uuid.UUID) (*models.SchoolMembership, error) {
	var membership models.SchoolMembership
	err := r.db.WithContext(ctx).
		Where("school_id = ? AND profile_id = ?", schoolID, profileID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

// FindByProfile returns the profile's membership when the profile belongs to
// exactly one school context, or nil when unenrolled.
func (r *Repository) FindByProfile(ctx context.Context, profileID uuid.UUID) (*models.SchoolMembership, error) {
	var membership models.SchoolMembership
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at ASC").
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

// ListProfileSchools returns every school the profile is enrolled in, joined
// with the school name for session bootstrapping.
func (r *Repository) ListProfileSchools(ctx context.Context, profileID uuid.UUID) ([]MembershipWithSchool, error) {
	var rows []MembershipWithSchool
	err := r.db.WithContext(ctx).
		Table("school_memberships").
		Select(`school_memberships.id AS membership_id,
			school_memberships.school_id,
			schools.name AS school_name,
			school_memberships.member_type,
			school_memberships.created_at AS joined_at`).
		Joins("JOIN schools ON schools.id = school_memberships.school_id").
		Where("school_memberships.profile_id = ?", profileID).
		Order("school_memberships.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySchool returns the school roster ordered by enrollment date.
func (r *Repository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]models.SchoolMembership, error) {
	var rows []models.SchoolMembership
	err := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a membership by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.SchoolMembership{}, "id = ?", id).Error
}

// IsSchoolAdmin reports whether the profile holds an ADMIN membership in the
// school.
func (r *Repository) IsSchoolAdmin(ctx context.Context, schoolID, profileID uuid.UUID) (bool, error) {
	membership, err := r.Find(ctx, schoolID, profileID)
	if err != nil {
		return false, err
	}
	return membership != nil && membership.MemberType.IsAdmin(), nil
}
