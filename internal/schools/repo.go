package schools

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

// Repository exposes school and academic level persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a schools repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a school by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).First(&school, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

// ListLevels returns the school's academic levels ordered by rank.
func (r *Repository) ListLevels(ctx context.Context, schoolID uuid.UUID) ([]models.AcademicLevel, error) {
	var levels []models.AcademicLevel
	err := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("rank ASC, name ASC").
		Find(&levels).Error
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// CreateLevel inserts a new academic level and returns the persisted model.
func (r *Repository) CreateLevel(ctx context.Context, dto CreateAcademicLevelDTO) (*models.AcademicLevel, error) {
	level := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(level).Error; err != nil {
		return nil, err
	}
	return level, nil
}
