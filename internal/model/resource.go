package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource is a bookable entity (room, technician, court) owned by exactly
// one merchant.
type Resource struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_resource_name_per_merchant,priority:1;index:idx_resources_merchant_active,priority:1"`
	Name       string    `gorm:"type:varchar(255);not null;uniqueIndex:uniq_resource_name_per_merchant,priority:2"`

	// IANA zone the weekly rules are written in.
	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	IsActive bool `gorm:"not null;index:idx_resources_merchant_active,priority:2"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Merchant *Merchant `gorm:"foreignKey:MerchantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.TimeZone == "" {
		r.TimeZone = "UTC"
	}
	return nil
}

// Location resolves TimeZone, falling back to UTC for unknown names.
func (r *Resource) Location() *time.Location {
	if r.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
