package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a postal/phone record. Every field is nullable: the record is
// created empty on redemption and completed later by the account holder.
type Contact struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Country    *string   `gorm:"column:country"`
	City       *string   `gorm:"column:city"`
	PostalCode *string   `gorm:"column:postal_code"`
	Street     *string   `gorm:"column:street"`
	Phone      *string   `gorm:"column:phone"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
