package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// availability_rules: weekly recurring open window of a resource.
type AvailabilityRule struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ResourceID uuid.UUID `gorm:"type:uuid;not null;index:idx_rules_resource_weekday,priority:1"`

	Weekday time.Weekday `gorm:"not null;index:idx_rules_resource_weekday,priority:2"`

	// Time of day in the resource's zone; EndTime may be 24:00.
	StartTime datatypes.Time `gorm:"not null"`
	EndTime   datatypes.Time `gorm:"not null;check:chk_availability_rule_time_range,end_time > start_time"`

	IsActive bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Resource *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (r *AvailabilityRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Offsets returns start and end as durations since midnight.
func (r *AvailabilityRule) Offsets() (time.Duration, time.Duration) {
	return time.Duration(r.StartTime), time.Duration(r.EndTime)
}

type OverrideKind string

const (
	OverrideKindOpen  OverrideKind = "OPEN"
	OverrideKindClose OverrideKind = "CLOSE"
)

// availability_overrides: date-specific exception. Without times the
// override covers the whole day.
type AvailabilityOverride struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ResourceID uuid.UUID      `gorm:"type:uuid;not null;index:idx_overrides_resource_date,priority:1"`
	Date       datatypes.Date `gorm:"not null;index:idx_overrides_resource_date,priority:2"`

	Kind OverrideKind `gorm:"type:varchar(8);not null;default:'CLOSE'"`

	StartTime *datatypes.Time
	EndTime   *datatypes.Time

	Note string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Resource *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (o *AvailabilityOverride) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *AvailabilityOverride) IsFullDay() bool {
	return o.StartTime == nil || o.EndTime == nil
}

// Day returns the override date as midnight UTC.
func (o *AvailabilityOverride) Day() time.Time {
	y, m, d := time.Time(o.Date).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
