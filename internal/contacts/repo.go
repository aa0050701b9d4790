package contacts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

// CreateContactDTO holds the optional address and phone details captured at
// redemption time. Every field may be empty; the record is still created so
// the membership always has a contact to point at.
type CreateContactDTO struct {
	Country    *string
	City       *string
	PostalCode *string
	Street     *string
	Phone      *string
}

func (c CreateContactDTO) ToModel() *models.Contact {
	return &models.Contact{
		Country:    c.Country,
		City:       c.City,
		PostalCode: c.PostalCode,
		Street:     c.Street,
		Phone:      c.Phone,
	}
}

// Repository exposes contact persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a contacts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new contact and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateContactDTO) (*models.Contact, error) {
	contact := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, err
	}
	return contact, nil
}

// FindByID loads a contact by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := r.db.WithContext(ctx).First(&contact, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// Delete removes a contact by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Contact{}, "id = ?", id).Error
}
