package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are assigned before insert so creates behave the same on
// Postgres and the sqlite driver; the column defaults stay in place for rows
// written outside the application.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (i *Identity) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }

func (p *Profile) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }

func (c *Contact) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }

func (s *School) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }

func (a *AcademicLevel) BeforeCreate(*gorm.DB) error { ensureID(&a.ID); return nil }

func (m *SchoolMembership) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }

func (i *Invitation) BeforeCreate(*gorm.DB) error { ensureID(&i.ID); return nil }
