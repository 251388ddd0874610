package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
)

type ReserveRequest struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartsAt   time.Time `json:"starts_at" binding:"required"`
	EndsAt     time.Time `json:"ends_at" binding:"required"`
	VariantID  string    `json:"variant_id" binding:"omitempty,uuid"`
	CustomerID string    `json:"customer_id" binding:"omitempty,uuid"`
	Notes      string    `json:"notes" binding:"max=1000"`
}

type CreateResourceRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	TimeZone string `json:"time_zone" binding:"max=64"`
}

type AddRuleRequest struct {
	Weekday   string `json:"weekday" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type AddOverrideRequest struct {
	Date      string `json:"date" binding:"required"`
	Kind      string `json:"kind" binding:"omitempty,oneof=OPEN CLOSE"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Note      string `json:"note" binding:"max=255"`
}

type CartLineRequest struct {
	VariantID  string `json:"variant_id" binding:"required,uuid"`
	ResourceID string `json:"resource_id" binding:"omitempty,uuid"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

type StockRequest struct {
	WarehouseID string `json:"warehouse_id" binding:"required,uuid"`
	VariantID   string `json:"variant_id" binding:"required,uuid"`
	Quantity    int    `json:"quantity" binding:"min=0"`
}

type RedemptionRequest struct {
	CustomerID string `json:"customer_id" binding:"omitempty,uuid"`
}

type LinkResourceRequest struct {
	ResourceID string `json:"resource_id" binding:"required,uuid"`
}

type BookingResponse struct {
	ID          uuid.UUID  `json:"id"`
	ResourceID  uuid.UUID  `json:"resource_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	Status      string     `json:"status"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

func toBookingResponse(b *model.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		ResourceID:  b.ResourceID,
		VariantID:   b.VariantID,
		CustomerID:  b.CustomerID,
		Status:      string(b.Status),
		StartsAt:    b.StartsAt.UTC(),
		EndsAt:      b.EndsAt.UTC(),
		ExpiresAt:   b.ExpiresAt,
		ConfirmedAt: b.ConfirmedAt,
		CancelledAt: b.CancelledAt,
		Notes:       b.Notes,
	}
}

type ResourceResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	TimeZone string    `json:"time_zone"`
	IsActive bool      `json:"is_active"`
}

func toResourceResponse(r *model.Resource) ResourceResponse {
	return ResourceResponse{ID: r.ID, Name: r.Name, TimeZone: r.TimeZone, IsActive: r.IsActive}
}

type WindowResponse struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func toWindows(ws []calendar.TimeRange) []WindowResponse {
	out := make([]WindowResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, WindowResponse{StartsAt: w.Start.UTC(), EndsAt: w.End.UTC()})
	}
	return out
}

type EventResponse struct {
	Type       string    `json:"type"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	At         time.Time `json:"at"`
}

func optionalUUID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
