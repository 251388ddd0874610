package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusHold      BookingStatus = "HOLD"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// ActiveBookingStatuses occupy the resource timeline.
var ActiveBookingStatuses = []BookingStatus{BookingStatusHold, BookingStatusConfirmed}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusHold || s == BookingStatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusExpired
}

// bookings: a reservation of a resource for [StartsAt, EndsAt).
// The tenant is always the resource's tenant, so there is no merchant column.
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ResourceID uuid.UUID  `gorm:"type:uuid;not null;index:idx_bookings_resource_status,priority:1"`
	VariantID  *uuid.UUID `gorm:"type:uuid;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`

	StartsAt time.Time `gorm:"not null;index"`
	EndsAt   time.Time `gorm:"not null;check:chk_booking_time_range,ends_at > starts_at"`

	Status BookingStatus `gorm:"type:varchar(16);not null;index:idx_bookings_resource_status,priority:2"`

	// Only meaningful while HOLD.
	ExpiresAt   *time.Time `gorm:"index"`
	ConfirmedAt *time.Time
	CancelledAt *time.Time

	Notes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Resource *Resource       `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Variant  *ProductVariant `gorm:"foreignKey:VariantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Customer *Customer       `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// HoldLapsed reports a HOLD whose deadline has passed at now, whether or
// not a sweep has recorded it yet.
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.Status == BookingStatusHold && b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

// BlocksAt reports whether the booking occupies its interval at now.
func (b *Booking) BlocksAt(now time.Time) bool {
	return b.Status.IsActive() && !b.HoldLapsed(now)
}

// EffectiveStatus folds lazy expiry into the stored status.
func (b *Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.HoldLapsed(now) {
		return BookingStatusExpired
	}
	return b.Status
}
