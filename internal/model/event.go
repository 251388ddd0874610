package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Booking lifecycle event type.
type EventType string

const (
	EventTypeBookingHeld      EventType = "booking_held"
	EventTypeBookingConfirmed EventType = "booking_confirmed"
	EventTypeBookingCancelled EventType = "booking_cancelled"
	EventTypeBookingExpired   EventType = "booking_expired"
)

// booking_events: append-only audit trail, written in the same transaction
// as the state change it records.
type BookingEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	BookingID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ResourceID uuid.UUID `gorm:"type:uuid;not null;index"`

	FromStatus BookingStatus `gorm:"type:varchar(16)"`
	ToStatus   BookingStatus `gorm:"type:varchar(16);not null"`

	Details datatypes.JSON

	CreatedAt time.Time `gorm:"not null;index"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (e *BookingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
