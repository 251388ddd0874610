package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/booking-core/internal/model"
)

type BookingRepository interface {
	// Create inserts a booking; an overlap rejected by the database
	// surfaces as ErrOverlap.
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// LockByID reads the booking with a row lock.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// ListActiveOverlapping returns HOLD/CONFIRMED bookings of the resource
	// overlapping [from, to), stale holds included. With lock set the rows
	// are locked FOR UPDATE.
	ListActiveOverlapping(ctx context.Context, resourceID uuid.UUID, from, to time.Time, lock bool) ([]model.Booking, error)
	// ListByResourceAndRange lists bookings starting in [from, to) with paging.
	ListByResourceAndRange(
		ctx context.Context,
		resourceID uuid.UUID,
		from, to time.Time,
		limit, offset int,
	) ([]model.Booking, int64, error)

	// Conditional transitions. Each returns whether the row changed, so
	// concurrent callers race on the WHERE clause instead of on reads.
	MarkConfirmed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, from model.BookingStatus, now time.Time) (bool, error)

	// ListStaleHoldIDs returns up to limit HOLD ids whose deadline is <= now.
	ListStaleHoldIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return mapError(r.db.WithContext(ctx).Create(booking).Error)
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (r *GormBookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (r *GormBookingRepository) ListActiveOverlapping(
	ctx context.Context,
	resourceID uuid.UUID,
	from, to time.Time,
	lock bool,
) ([]model.Booking, error) {
	var out []model.Booking
	q := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("status IN ?", model.ActiveBookingStatuses).
		Where("starts_at < ? AND ends_at > ?", utc(to), utc(from))
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Order("starts_at ASC").Find(&out).Error; err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *GormBookingRepository) ListByResourceAndRange(
	ctx context.Context,
	resourceID uuid.UUID,
	from, to time.Time,
	limit, offset int,
) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("resource_id = ?", resourceID).
		Where("starts_at >= ? AND starts_at < ?", utc(from), utc(to))

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("starts_at ASC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *GormBookingRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	now = utc(now)
	return r.transition(ctx,
		r.db.WithContext(ctx).
			Model(&model.Booking{}).
			Where("id = ? AND status = ? AND expires_at > ?", id, model.BookingStatusHold, now),
		map[string]any{
			"status":       model.BookingStatusConfirmed,
			"confirmed_at": now,
		},
	)
}

func (r *GormBookingRepository) MarkExpired(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	now = utc(now)
	return r.transition(ctx,
		r.db.WithContext(ctx).
			Model(&model.Booking{}).
			Where("id = ? AND status = ? AND expires_at <= ?", id, model.BookingStatusHold, now),
		map[string]any{
			"status": model.BookingStatusExpired,
		},
	)
}

func (r *GormBookingRepository) MarkCancelled(ctx context.Context, id uuid.UUID, from model.BookingStatus, now time.Time) (bool, error) {
	now = utc(now)
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, from)
	if from == model.BookingStatusHold {
		q = q.Where("expires_at > ?", now)
	}
	return r.transition(ctx, q, map[string]any{
		"status":       model.BookingStatusCancelled,
		"cancelled_at": now,
	})
}

func (r *GormBookingRepository) transition(ctx context.Context, q *gorm.DB, updates map[string]any) (bool, error) {
	res := q.Updates(updates)
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormBookingRepository) ListStaleHoldIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("status = ? AND expires_at <= ?", model.BookingStatusHold, utc(now)).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// utc normalizes bound timestamps; SQLite compares them as text.
func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
