package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/tenant"
)

// GetBooking returns a booking of the tenant. A HOLD past its deadline is
// reported as EXPIRED even before a sweep records it.
func (s *Service) GetBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.GetBooking")
	defer func() { s.finish(ctx, span, "get_booking", err, zap.String("booking_id", bookingID.String())) }()

	return s.getBooking(ctx, tenantID, bookingID)
}

func (s *Service) getBooking(ctx context.Context, tenantID, bookingID uuid.UUID) (*model.Booking, error) {
	b, err := repository.NewGormBookingRepository(s.db).GetByID(ctx, bookingID)
	if err != nil {
		return nil, normalizeError(err)
	}
	if tenantID != uuid.Nil {
		if err := tenant.AssertOwnedBy(ctx, s.db, tenant.BookingRef(b.ID), tenantID); err != nil {
			return nil, normalizeError(err)
		}
	}
	b.Status = b.EffectiveStatus(s.clock())
	return b, nil
}

// BookingHistory returns the audit trail of a booking, oldest first.
func (s *Service) BookingHistory(ctx context.Context, tenantID, bookingID uuid.UUID) ([]model.BookingEvent, error) {
	if _, err := s.getBooking(ctx, tenantID, bookingID); err != nil {
		return nil, err
	}
	return repository.NewGormEventRepository(s.db).ListByBooking(ctx, bookingID)
}

// ListBookings pages through bookings of a resource starting in [from, to).
func (s *Service) ListBookings(
	ctx context.Context,
	tenantID, resourceID uuid.UUID,
	from, to time.Time,
	page, pageSize int,
) (out calendar.Page[model.Booking], err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.ListBookings", trace.WithAttributes(
		attribute.String("resource_id", resourceID.String()),
	))
	defer func() { s.finish(ctx, span, "list_bookings", err, zap.String("resource_id", resourceID.String())) }()

	if !to.After(from) {
		return out, ErrInvalidInterval
	}
	if err := tenant.AssertOwnedBy(ctx, s.db, tenant.ResourceRef(resourceID), tenantID); err != nil {
		return out, normalizeError(err)
	}

	page, pageSize, offset := calendar.Normalize(page, pageSize)
	items, total, err := repository.NewGormBookingRepository(s.db).
		ListByResourceAndRange(ctx, resourceID, from, to, pageSize, offset)
	if err != nil {
		return out, fmt.Errorf("list bookings: %w", err)
	}
	now := s.clock()
	for i := range items {
		items[i].Status = items[i].EffectiveStatus(now)
	}
	return calendar.NewPage(items, page, pageSize, total), nil
}

// Windows resolves the open windows of a resource for the inclusive date
// range [from, to], in the resource's calendar.
func (s *Service) Windows(ctx context.Context, tenantID, resourceID uuid.UUID, from, to time.Time) (w []calendar.TimeRange, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.Windows", trace.WithAttributes(
		attribute.String("resource_id", resourceID.String()),
	))
	defer func() { s.finish(ctx, span, "windows", err, zap.String("resource_id", resourceID.String())) }()

	dr, err := calendar.NewDateRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInterval, err)
	}
	res, err := repository.NewGormResourceRepository(s.db).GetByID(ctx, resourceID)
	if err != nil {
		return nil, normalizeError(err)
	}
	if err := tenant.AssertOwnedBy(ctx, s.db, tenant.ResourceRef(res.ID), tenantID); err != nil {
		return nil, normalizeError(err)
	}
	return s.resolver.WindowsFor(ctx, s.db, res, dr)
}

// ListResources returns the tenant's resources by name.
func (s *Service) ListResources(ctx context.Context, tenantID uuid.UUID, onlyActive bool) ([]model.Resource, error) {
	return repository.NewGormResourceRepository(s.db).ListByMerchant(ctx, tenantID, onlyActive)
}
