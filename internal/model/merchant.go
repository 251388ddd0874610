package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Merchant is the tenant: one storefront. Every tenant-scoped row points
// here, directly or through its parent.
type Merchant struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Slug string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(255);not null"`

	IsActive bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *Merchant) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
