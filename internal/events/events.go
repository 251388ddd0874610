// Package events publishes booking lifecycle notifications once the state
// change has committed. Delivery is best effort; the booking_events table
// is the durable record.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/model"
)

// BookingEvent is the wire shape shared by all publishers.
type BookingEvent struct {
	Type       model.EventType     `json:"type"`
	BookingID  uuid.UUID           `json:"booking_id"`
	ResourceID uuid.UUID           `json:"resource_id"`
	Status     model.BookingStatus `json:"status"`
	StartsAt   time.Time           `json:"starts_at"`
	EndsAt     time.Time           `json:"ends_at"`
	ExpiresAt  *time.Time          `json:"expires_at,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// RoutingKey is "booking.<suffix>", e.g. booking.held.
func (e BookingEvent) RoutingKey() string {
	switch e.Type {
	case model.EventTypeBookingHeld:
		return "booking.held"
	case model.EventTypeBookingConfirmed:
		return "booking.confirmed"
	case model.EventTypeBookingCancelled:
		return "booking.cancelled"
	case model.EventTypeBookingExpired:
		return "booking.expired"
	default:
		return fmt.Sprintf("booking.%s", e.Type)
	}
}

func FromBooking(t model.EventType, b *model.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       t,
		BookingID:  b.ID,
		ResourceID: b.ResourceID,
		Status:     b.Status,
		StartsAt:   b.StartsAt,
		EndsAt:     b.EndsAt,
		ExpiresAt:  b.ExpiresAt,
		OccurredAt: at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e BookingEvent) error
	Close() error
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, e BookingEvent) error {
	p.log.Info("booking event",
		zap.String("routing_key", e.RoutingKey()),
		zap.String("booking_id", e.BookingID.String()),
		zap.String("resource_id", e.ResourceID.String()),
		zap.String("status", string(e.Status)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []BookingEvent
}

func (r *Recorder) Publish(_ context.Context, e BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []BookingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]BookingEvent(nil), r.events...)
}

func (r *Recorder) Types() []model.EventType {
	events := r.Events()
	out := make([]model.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}
