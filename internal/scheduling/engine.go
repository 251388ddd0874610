package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/availability"
	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/tenant"
)

const DefaultHoldTTL = 10 * time.Minute

type ReserveRequest struct {
	TenantID   uuid.UUID
	ResourceID uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time

	VariantID  *uuid.UUID
	CustomerID *uuid.UUID
	Notes      string

	// Optional. A retried request with the same key returns the booking
	// created by the first one.
	IdempotencyKey string
}

// Reservation is the result of an admitted request.
type Reservation struct {
	Booking *model.Booking
	// Expired holds that were found stale in the requested interval and
	// transitioned while admitting Booking.
	Expired []model.Booking
}

// Engine admits or rejects a hold atomically against the resource's
// availability and its active bookings.
type Engine struct {
	db       *gorm.DB
	resolver *availability.Resolver
	holdTTL  time.Duration
	now      func() time.Time
}

func NewEngine(db *gorm.DB, resolver *availability.Resolver, holdTTL time.Duration, now func() time.Time) *Engine {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	if now == nil {
		now = time.Now
	}
	if resolver == nil {
		resolver = availability.NewResolver()
	}
	return &Engine{db: db, resolver: resolver, holdTTL: holdTTL, now: now}
}

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// TryReserve runs in one transaction:
//  1. lock the resource row, serializing writers on the same resource;
//  2. check the resource and any linked variant or customer belong to the
//     requesting tenant;
//  3. require the interval to sit inside one resolved window;
//  4. scan active bookings overlapping the interval, fail with ErrConflict
//     on any that still block, and expire the stale holds among them;
//  5. insert the HOLD.
//
// The database constraint backs step 4; a violation is reported as
// ErrConflict.
func (e *Engine) TryReserve(ctx context.Context, req ReserveRequest) (*Reservation, error) {
	interval, err := calendar.NewTimeRange(req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInterval, err)
	}
	interval = interval.UTC()
	if interval.IsEmpty() {
		return nil, ErrInvalidInterval
	}

	now := e.clock()
	result := &Reservation{}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := repository.NewGormResourceRepository(tx).LockByID(ctx, req.ResourceID)
		if err != nil {
			return fmt.Errorf("lock resource %s: %w", req.ResourceID, err)
		}

		if err := tenant.AssertOwnedBy(ctx, tx, tenant.ResourceRef(res.ID), req.TenantID); err != nil {
			return err
		}
		links := []tenant.Ref{tenant.ResourceRef(res.ID)}
		if req.VariantID != nil {
			links = append(links, tenant.VariantRef(*req.VariantID))
		}
		if req.CustomerID != nil {
			links = append(links, tenant.CustomerRef(*req.CustomerID))
		}
		if err := tenant.AssertAllSameTenant(ctx, tx, links...); err != nil {
			return err
		}

		if !res.IsActive {
			return fmt.Errorf("%w: %s", ErrResourceInactive, res.ID)
		}

		windows, err := e.resolver.WindowsFor(ctx, tx, res, calendar.Covering(interval, res.Location()))
		if err != nil {
			return err
		}
		if err := availability.Contains(windows, interval); err != nil {
			return err
		}

		bookings := repository.NewGormBookingRepository(tx)
		overlapping, err := bookings.ListActiveOverlapping(ctx, res.ID, interval.Start, interval.End, true)
		if err != nil {
			return fmt.Errorf("scan overlapping bookings: %w", err)
		}
		for i := range overlapping {
			if overlapping[i].BlocksAt(now) {
				return fmt.Errorf("%w: overlaps booking %s", ErrConflict, overlapping[i].ID)
			}
		}
		for i := range overlapping {
			stale := overlapping[i]
			ok, err := bookings.MarkExpired(ctx, stale.ID, now)
			if err != nil {
				return fmt.Errorf("expire stale hold %s: %w", stale.ID, err)
			}
			if !ok {
				continue
			}
			stale.Status = model.BookingStatusExpired
			if err := appendEvent(ctx, tx, model.EventTypeBookingExpired, &stale, model.BookingStatusHold, now,
				map[string]any{"reason": "lazy"}); err != nil {
				return err
			}
			result.Expired = append(result.Expired, stale)
		}

		expiresAt := now.Add(e.holdTTL)
		b := &model.Booking{
			ResourceID: res.ID,
			VariantID:  req.VariantID,
			CustomerID: req.CustomerID,
			StartsAt:   interval.Start,
			EndsAt:     interval.End,
			Status:     model.BookingStatusHold,
			ExpiresAt:  &expiresAt,
			Notes:      req.Notes,
		}
		if err := bookings.Create(ctx, b); err != nil {
			return err
		}
		result.Booking = b
		return appendEvent(ctx, tx, model.EventTypeBookingHeld, b, "", now, nil)
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	return result, nil
}
