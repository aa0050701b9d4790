package schools

import (
	"time"

	"github.com/google/uuid"

	"github.com/fourmis-app/fourmis-backend/pkg/db/models"
)

// SchoolDTO is the transport shape for a school.
type SchoolDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	City      *string   `json:"city,omitempty"`
	Programs  []string  `json:"programs"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcademicLevelDTO is the transport shape for an academic level.
type AcademicLevelDTO struct {
	ID        uuid.UUID `json:"id"`
	SchoolID  uuid.UUID `json:"school_id"`
	Name      string    `json:"name"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAcademicLevelDTO holds the data required to add a level to a school.
type CreateAcademicLevelDTO struct {
	SchoolID uuid.UUID
	Name     string
	Rank     int
}

func FromModel(s *models.School) *SchoolDTO {
	if s == nil {
		return nil
	}

	return &SchoolDTO{
		ID:        s.ID,
		Name:      s.Name,
		City:      s.City,
		Programs:  append([]string(nil), s.Programs...),
		LogoURL:   s.LogoURL,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func LevelFromModel(l *models.AcademicLevel) *AcademicLevelDTO {
	if l == nil {
		return nil
	}

	return &AcademicLevelDTO{
		ID:        l.ID,
		SchoolID:  l.SchoolID,
		Name:      l.Name,
		Rank:      l.Rank,
		CreatedAt: l.CreatedAt,
	}
}

func (c CreateAcademicLevelDTO) ToModel() *models.AcademicLevel {
	return &models.AcademicLevel{
		SchoolID: c.SchoolID,
		Name:     c.Name,
		Rank:     c.Rank,
	}
}
