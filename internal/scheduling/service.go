package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/availability"
	"github.com/Leganyst/booking-core/internal/events"
	"github.com/Leganyst/booking-core/internal/idempotency"
	"github.com/Leganyst/booking-core/internal/logger"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/tenant"
)

const (
	instrumentationName = "github.com/Leganyst/booking-core/internal/scheduling"
	defaultSweepBatch   = 100
)

type Options struct {
	HoldTTL    time.Duration
	SweepBatch int
	Now        func() time.Time

	Publisher   events.Publisher
	Idempotency idempotency.Store
	Logger      *zap.Logger
}

// Service is the only mutating entry point for bookings: Reserve, Confirm
// and Cancel, plus the ExpireStaleHolds sweep. It keeps no scheduling state
// in memory; every decision is taken inside a database transaction.
type Service struct {
	db         *gorm.DB
	engine     *Engine
	resolver   *availability.Resolver
	publisher  events.Publisher
	idem       idempotency.Store
	log        *zap.Logger
	now        func() time.Time
	sweepBatch int

	tracer trace.Tracer
	ops    metric.Int64Counter
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NewLogPublisher(opts.Logger)
	}
	if opts.SweepBatch <= 0 {
		opts.SweepBatch = defaultSweepBatch
	}

	ops, err := otel.Meter(instrumentationName).Int64Counter(
		"scheduling.operations",
		metric.WithDescription("Scheduling operations by outcome"),
	)
	if err != nil {
		ops = noop.Int64Counter{}
	}

	resolver := availability.NewResolver()
	return &Service{
		db:         db,
		engine:     NewEngine(db, resolver, opts.HoldTTL, opts.Now),
		resolver:   resolver,
		publisher:  opts.Publisher,
		idem:       opts.Idempotency,
		log:        opts.Logger,
		now:        opts.Now,
		sweepBatch: opts.SweepBatch,
		tracer:     otel.Tracer(instrumentationName),
		ops:        ops,
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// finish ends span and reports the outcome. Expected outcomes are logged at
// info, anything else at error.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, err error, fields ...zap.Field) {
	defer span.End()

	outcome := Outcome(err)
	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
	span.SetAttributes(attribute.String("outcome", outcome))

	log := logger.WithTrace(ctx, s.log).With(fields...)
	switch {
	case err == nil:
		log.Debug(op+" ok")
	case IsBenign(err):
		log.Info(op+" rejected", zap.String("outcome", outcome), zap.Error(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(op+" failed", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, typ model.EventType, b *model.Booking, at time.Time) {
	if err := s.publisher.Publish(ctx, events.FromBooking(typ, b, at)); err != nil {
		s.log.Warn("publish booking event",
			zap.String("type", string(typ)),
			zap.String("booking_id", b.ID.String()),
			zap.Error(err),
		)
	}
}

// Reserve places a HOLD on [StartsAt, EndsAt) of the resource.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.Reserve", trace.WithAttributes(
		attribute.String("tenant_id", req.TenantID.String()),
		attribute.String("resource_id", req.ResourceID.String()),
	))
	defer func() {
		s.finish(ctx, span, "reserve", err,
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("resource_id", req.ResourceID.String()),
			zap.Time("starts_at", req.StartsAt),
			zap.Time("ends_at", req.EndsAt),
		)
	}()

	idemKey := ""
	if s.idem != nil && req.IdempotencyKey != "" {
		idemKey = idempotency.Key("reserve", req.TenantID.String(), req.IdempotencyKey)
		prior, ok, err := s.replay(ctx, idemKey, req)
		if err != nil {
			return nil, err
		}
		if ok {
			return prior, nil
		}
	}

	r, err := s.engine.TryReserve(ctx, req)
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		if _, err := s.idem.Remember(ctx, idemKey, r.Booking.ID.String()); err != nil {
			s.log.Warn("remember idempotency key", zap.String("key", idemKey), zap.Error(err))
		}
	}

	now := s.clock()
	for i := range r.Expired {
		s.publish(ctx, model.EventTypeBookingExpired, &r.Expired[i], now)
	}
	s.publish(ctx, model.EventTypeBookingHeld, r.Booking, now)
	return r.Booking, nil
}

// replay returns the booking a previous request with the same key created.
// A key reused for a different reservation is rejected rather than
// answered with someone else's booking.
func (s *Service) replay(ctx context.Context, key string, req ReserveRequest) (*model.Booking, bool, error) {
	v, found, err := s.idem.Lookup(ctx, key)
	if err != nil {
		s.log.Warn("lookup idempotency key", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, false, nil
	}
	b, err := s.getBooking(ctx, req.TenantID, id)
	if err != nil {
		return nil, false, nil
	}
	if !sameReservation(b, req) {
		return nil, false, fmt.Errorf("%w: idempotency key %q was used for another reservation",
			ErrInvalidArgument, req.IdempotencyKey)
	}
	return b, true, nil
}

func sameReservation(b *model.Booking, req ReserveRequest) bool {
	sameID := func(x, y *uuid.UUID) bool {
		if x == nil || y == nil {
			return x == y
		}
		return *x == *y
	}
	return b.ResourceID == req.ResourceID &&
		b.StartsAt.Equal(req.StartsAt.UTC().Truncate(time.Microsecond)) &&
		b.EndsAt.Equal(req.EndsAt.UTC().Truncate(time.Microsecond)) &&
		sameID(b.VariantID, req.VariantID) &&
		sameID(b.CustomerID, req.CustomerID)
}

// Confirm moves a HOLD to CONFIRMED. The deadline is re-checked by the
// conditional update itself; a lapsed hold is recorded as EXPIRED and the
// call fails with ErrHoldExpired. A nil tenantID skips the tenant check
// for system callers.
func (s *Service) Confirm(ctx context.Context, tenantID, bookingID uuid.UUID) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.Confirm", trace.WithAttributes(
		attribute.String("booking_id", bookingID.String()),
	))
	defer func() { s.finish(ctx, span, "confirm", err, zap.String("booking_id", bookingID.String())) }()

	now := s.clock()
	var (
		outcome error
		updated *model.Booking
		evType  model.EventType
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := repository.NewGormBookingRepository(tx)
		cur, err := s.lockOwned(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}

		switch {
		case cur.Status == model.BookingStatusExpired:
			outcome = ErrHoldExpired
			return nil
		case cur.Status != model.BookingStatusHold:
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidState, cur.ID, cur.Status)
		case cur.HoldLapsed(now):
			expired, err := expireLocked(ctx, tx, cur, now, "confirm")
			if err != nil {
				return err
			}
			if expired {
				updated, evType = cur, model.EventTypeBookingExpired
			}
			outcome = ErrHoldExpired
			return nil
		}

		ok, err := bookings.MarkConfirmed(ctx, cur.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// a concurrent sweep got there first
			outcome = ErrHoldExpired
			return nil
		}
		cur.Status = model.BookingStatusConfirmed
		cur.ConfirmedAt = &now
		if err := appendEvent(ctx, tx, model.EventTypeBookingConfirmed, cur, model.BookingStatusHold, now, nil); err != nil {
			return err
		}
		updated, evType = cur, model.EventTypeBookingConfirmed
		return nil
	})
	if err != nil {
		return nil, normalizeError(err)
	}

	if updated != nil {
		s.publish(ctx, evType, updated, now)
	}
	if outcome != nil {
		return nil, fmt.Errorf("%w: booking %s", outcome, bookingID)
	}
	return updated, nil
}

// Cancel moves a HOLD or CONFIRMED booking to CANCELLED. Terminal bookings
// fail with ErrInvalidState; a lapsed hold is recorded as EXPIRED and the
// call fails with ErrHoldExpired.
func (s *Service) Cancel(ctx context.Context, tenantID, bookingID uuid.UUID) (b *model.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.Cancel", trace.WithAttributes(
		attribute.String("booking_id", bookingID.String()),
	))
	defer func() { s.finish(ctx, span, "cancel", err, zap.String("booking_id", bookingID.String())) }()

	now := s.clock()
	var (
		outcome error
		updated *model.Booking
		evType  model.EventType
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := repository.NewGormBookingRepository(tx)
		cur, err := s.lockOwned(ctx, tx, tenantID, bookingID)
		if err != nil {
			return err
		}

		switch {
		case cur.Status.IsTerminal():
			return fmt.Errorf("%w: booking %s is %s", ErrInvalidState, cur.ID, cur.Status)
		case cur.HoldLapsed(now):
			expired, err := expireLocked(ctx, tx, cur, now, "cancel")
			if err != nil {
				return err
			}
			if expired {
				updated, evType = cur, model.EventTypeBookingExpired
			}
			outcome = ErrHoldExpired
			return nil
		}

		from := cur.Status
		ok, err := bookings.MarkCancelled(ctx, cur.ID, from, now)
		if err != nil {
			return err
		}
		if !ok {
			if from == model.BookingStatusHold {
				outcome = ErrHoldExpired
				return nil
			}
			return fmt.Errorf("%w: booking %s changed concurrently", ErrInvalidState, cur.ID)
		}
		cur.Status = model.BookingStatusCancelled
		cur.CancelledAt = &now
		if err := appendEvent(ctx, tx, model.EventTypeBookingCancelled, cur, from, now, nil); err != nil {
			return err
		}
		updated, evType = cur, model.EventTypeBookingCancelled
		return nil
	})
	if err != nil {
		return nil, normalizeError(err)
	}

	if updated != nil {
		s.publish(ctx, evType, updated, now)
	}
	if outcome != nil {
		return nil, fmt.Errorf("%w: booking %s", outcome, bookingID)
	}
	return updated, nil
}

// lockOwned locks the booking's resource and then the booking, the same
// order TryReserve takes them, so the two paths cannot wait on each other.
func (s *Service) lockOwned(ctx context.Context, tx *gorm.DB, tenantID, bookingID uuid.UUID) (*model.Booking, error) {
	bookings := repository.NewGormBookingRepository(tx)
	peek, err := bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, err)
	}
	if _, err := repository.NewGormResourceRepository(tx).LockByID(ctx, peek.ResourceID); err != nil {
		return nil, fmt.Errorf("lock resource %s: %w", peek.ResourceID, err)
	}
	cur, err := bookings.LockByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, err)
	}
	if tenantID != uuid.Nil {
		if err := tenant.AssertOwnedBy(ctx, tx, tenant.BookingRef(cur.ID), tenantID); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// expireLocked transitions a lapsed hold and records why.
func expireLocked(ctx context.Context, tx *gorm.DB, b *model.Booking, now time.Time, reason string) (bool, error) {
	ok, err := repository.NewGormBookingRepository(tx).MarkExpired(ctx, b.ID, now)
	if err != nil || !ok {
		return false, err
	}
	b.Status = model.BookingStatusExpired
	if err := appendEvent(ctx, tx, model.EventTypeBookingExpired, b, model.BookingStatusHold, now,
		map[string]any{"reason": reason}); err != nil {
		return false, err
	}
	return true, nil
}

// ExpireStaleHolds transitions every HOLD past its deadline to EXPIRED and
// returns how many it changed. Each row is a separate conditional update,
// so running it twice, or alongside Confirm and Cancel, is safe: whoever
// commits first wins and the others skip the row.
func (s *Service) ExpireStaleHolds(ctx context.Context) (n int, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.ExpireStaleHolds")
	defer func() { s.finish(ctx, span, "expire_stale_holds", err, zap.Int("expired", n)) }()

	now := s.clock()
	for {
		ids, err := repository.NewGormBookingRepository(s.db).ListStaleHoldIDs(ctx, now, s.sweepBatch)
		if err != nil {
			return n, fmt.Errorf("list stale holds: %w", err)
		}

		progressed := 0
		for _, id := range ids {
			b, err := s.expireOne(ctx, id, now)
			if err != nil {
				return n, err
			}
			if b != nil {
				n++
				progressed++
				s.publish(ctx, model.EventTypeBookingExpired, b, now)
			}
		}

		if len(ids) < s.sweepBatch || progressed == 0 {
			return n, nil
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
	}
}

func (s *Service) expireOne(ctx context.Context, id uuid.UUID, now time.Time) (*model.Booking, error) {
	var expired *model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := repository.NewGormBookingRepository(tx)
		ok, err := bookings.MarkExpired(ctx, id, now)
		if err != nil || !ok {
			return err
		}
		b, err := bookings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, model.EventTypeBookingExpired, b, model.BookingStatusHold, now,
			map[string]any{"reason": "sweep"}); err != nil {
			return err
		}
		expired = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expire hold %s: %w", id, err)
	}
	return expired, nil
}
