package scheduling_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/dbtest"
	"github.com/Leganyst/booking-core/internal/events"
	"github.com/Leganyst/booking-core/internal/idempotency"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/scheduling"
)

// 2025-01-06 is a Monday.
var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return monday.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db       *gorm.DB
	svc      *scheduling.Service
	clock    *fakeClock
	recorder *events.Recorder
	tenant   uuid.UUID
	resource *model.Resource
}

func createMerchant(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	m := &model.Merchant{Slug: "m-" + uuid.NewString()[:8], Name: "Merchant", IsActive: true}
	require.NoError(t, repository.NewGormMerchantRepository(db).Create(context.Background(), m))
	return m.ID
}

// newFixture opens a resource available Mondays 09:00-17:00 UTC with a
// ten minute hold TTL and the clock at Monday 08:00.
func newFixture(t *testing.T, opts scheduling.Options) *fixture {
	t.Helper()
	return newFixtureOn(t, dbtest.Open(t), opts)
}

func newFixtureOn(t *testing.T, db *gorm.DB, opts scheduling.Options) *fixture {
	t.Helper()
	ctx := context.Background()

	clock := &fakeClock{now: at(8, 0)}
	rec := &events.Recorder{}

	opts.HoldTTL = 10 * time.Minute
	opts.Now = clock.Now
	opts.Publisher = rec
	svc := scheduling.NewService(db, opts)

	tenantID := createMerchant(t, db)
	res, err := svc.CreateResource(ctx, tenantID, scheduling.ResourceInput{Name: "Room 1", TimeZone: "UTC"})
	require.NoError(t, err)
	_, err = svc.AddRule(ctx, tenantID, res.ID, scheduling.RuleInput{
		Weekday: time.Monday,
		Start:   9 * time.Hour,
		End:     17 * time.Hour,
	})
	require.NoError(t, err)

	return &fixture{db: db, svc: svc, clock: clock, recorder: rec, tenant: tenantID, resource: res}
}

func (f *fixture) reserve(t *testing.T, start, end time.Time) (*model.Booking, error) {
	t.Helper()
	return f.svc.Reserve(context.Background(), scheduling.ReserveRequest{
		TenantID:   f.tenant,
		ResourceID: f.resource.ID,
		StartsAt:   start,
		EndsAt:     end,
	})
}

func TestReserve_MondayScenario(t *testing.T) {
	f := newFixture(t, scheduling.Options{})

	first, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusHold, first.Status)
	require.NotNil(t, first.ExpiresAt)
	assert.True(t, first.ExpiresAt.Equal(at(8, 10)))

	_, err = f.reserve(t, at(10, 30), at(11, 30))
	assert.ErrorIs(t, err, scheduling.ErrConflict)

	_, err = f.reserve(t, at(11, 0), at(12, 0))
	require.NoError(t, err, "back-to-back bookings must both be admitted")

	_, err = f.reserve(t, at(8, 0), at(8, 30))
	assert.ErrorIs(t, err, scheduling.ErrOutsideAvailability)

	_, err = f.reserve(t, at(16, 30), at(17, 30))
	assert.ErrorIs(t, err, scheduling.ErrOutsideAvailability, "must fit a single window")

	assert.Equal(t,
		[]model.EventType{model.EventTypeBookingHeld, model.EventTypeBookingHeld},
		f.recorder.Types(),
	)
}

func TestReserve_InvalidInterval(t *testing.T) {
	f := newFixture(t, scheduling.Options{})

	_, err := f.reserve(t, at(11, 0), at(10, 0))
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)

	_, err = f.reserve(t, at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)
}

func TestReserve_FullDayCloseOverride(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	_, err := f.svc.AddOverride(ctx, f.tenant, f.resource.ID, scheduling.OverrideInput{
		Date: monday,
		Kind: model.OverrideKindClose,
		Note: "holiday",
	})
	require.NoError(t, err)

	_, err = f.reserve(t, at(10, 0), at(11, 0))
	assert.ErrorIs(t, err, scheduling.ErrOutsideAvailability)

	// the following Monday is untouched
	next := monday.AddDate(0, 0, 7)
	_, err = f.reserve(t, next.Add(10*time.Hour), next.Add(11*time.Hour))
	assert.NoError(t, err)
}

func TestReserve_OpenOverrideExtendsDay(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	start, end := 17*time.Hour, 19*time.Hour
	_, err := f.svc.AddOverride(ctx, f.tenant, f.resource.ID, scheduling.OverrideInput{
		Date:  monday,
		Kind:  model.OverrideKindOpen,
		Start: &start,
		End:   &end,
	})
	require.NoError(t, err)

	// 16:00-18:00 spans the rule window and the touching override
	_, err = f.reserve(t, at(16, 0), at(18, 0))
	assert.NoError(t, err)
}

// SQLite runs on one pooled connection, so these goroutines are admitted
// one at a time and the resource lock is never contended. The Postgres
// variant below exercises the real lock.
func TestReserve_ConcurrentSameInterval(t *testing.T) {
	f := newFixture(t, scheduling.Options{})

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
		other     []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reserve(t, at(10, 0), at(11, 0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, scheduling.ErrConflict):
				conflicts++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestReserve_AfterHoldDeadline(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	first, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)

	f.clock.Advance(10*time.Minute + time.Second)

	second, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err, "a lapsed hold must not block without a sweep")
	assert.NotEqual(t, first.ID, second.ID)

	got, err := f.svc.GetBooking(ctx, f.tenant, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusExpired, got.Status)

	assert.Equal(t, []model.EventType{
		model.EventTypeBookingHeld,
		model.EventTypeBookingExpired,
		model.EventTypeBookingHeld,
	}, f.recorder.Types())
}

func TestConfirm(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	b, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	confirmed, err := f.svc.Confirm(ctx, f.tenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// a confirmed booking no longer lapses
	f.clock.Advance(time.Hour)
	got, err := f.svc.GetBooking(ctx, f.tenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, got.Status)

	_, err = f.reserve(t, at(10, 0), at(11, 0))
	assert.ErrorIs(t, err, scheduling.ErrConflict)

	_, err = f.svc.Confirm(ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrInvalidState)
}

func TestConfirm_LapsedHoldWithoutSweep(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	b, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)

	_, err = f.svc.Confirm(ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrHoldExpired)

	stored, err := repository.NewGormBookingRepository(f.db).GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusExpired, stored.Status, "lapse is recorded on confirm")

	_, err = f.svc.Confirm(ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrHoldExpired)

	history, err := f.svc.BookingHistory(ctx, f.tenant, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.EventTypeBookingHeld, history[0].EventType)
	assert.Equal(t, model.EventTypeBookingExpired, history[1].EventType)
	assert.Equal(t, model.BookingStatusHold, history[1].FromStatus)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	held, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)
	cancelled, err := f.svc.Cancel(ctx, f.tenant, held.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// the slot is free again
	b, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.tenant, b.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.tenant, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrInvalidState)
	_, err = f.svc.Confirm(ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrInvalidState)
}

func TestCancel_LapsedHold(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	b, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	_, err = f.svc.Cancel(ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrHoldExpired)

	_, err = f.svc.Cancel(ctx, f.tenant, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrInvalidState)
}

func TestExpireStaleHolds_Idempotent(t *testing.T) {
	f := newFixture(t, scheduling.Options{SweepBatch: 1})
	ctx := context.Background()

	a, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)
	_, err = f.reserve(t, at(12, 0), at(13, 0))
	require.NoError(t, err)
	kept, err := f.reserve(t, at(14, 0), at(15, 0))
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.tenant, kept.ID)
	require.NoError(t, err)

	n, err := f.svc.ExpireStaleHolds(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing has lapsed yet")

	f.clock.Advance(11 * time.Minute)

	n, err = f.svc.ExpireStaleHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.ExpireStaleHolds(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := f.svc.GetBooking(ctx, f.tenant, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusExpired, got.Status)

	got, err = f.svc.GetBooking(ctx, f.tenant, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, got.Status)
}

func TestTenantIsolation(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()
	intruder := createMerchant(t, f.db)

	_, err := f.svc.Reserve(ctx, scheduling.ReserveRequest{
		TenantID:   intruder,
		ResourceID: f.resource.ID,
		StartsAt:   at(10, 0),
		EndsAt:     at(11, 0),
	})
	assert.ErrorIs(t, err, scheduling.ErrTenantMismatch)

	b, err := f.reserve(t, at(10, 0), at(11, 0))
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, intruder, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrTenantMismatch)
	_, err = f.svc.Cancel(ctx, intruder, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrTenantMismatch)
	_, err = f.svc.GetBooking(ctx, intruder, b.ID)
	assert.ErrorIs(t, err, scheduling.ErrTenantMismatch)
	_, err = f.svc.AddRule(ctx, intruder, f.resource.ID, scheduling.RuleInput{
		Weekday: time.Tuesday, Start: 9 * time.Hour, End: 10 * time.Hour,
	})
	assert.ErrorIs(t, err, scheduling.ErrTenantMismatch)

	// a system caller skips the tenant check
	_, err = f.svc.Confirm(ctx, uuid.Nil, b.ID)
	assert.NoError(t, err)
}

func TestReserve_LinkedCustomerFromAnotherTenant(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()
	commerce := repository.NewGormCommerceRepository(f.db)

	foreign := &model.Customer{MerchantID: createMerchant(t, f.db), Email: "a@example.com"}
	require.NoError(t, commerce.CreateCustomer(ctx, foreign))
	own := &model.Customer{MerchantID: f.tenant, Email: "b@example.com"}
	require.NoError(t, commerce.CreateCustomer(ctx, own))

	req := scheduling.ReserveRequest{
		TenantID:   f.tenant,
		ResourceID: f.resource.ID,
		StartsAt:   at(10, 0),
		EndsAt:     at(11, 0),
		CustomerID: &foreign.ID,
	}
	_, err := f.svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, scheduling.ErrTenantMismatch)

	req.CustomerID = &own.ID
	b, err := f.svc.Reserve(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, b.CustomerID)
	assert.Equal(t, own.ID, *b.CustomerID)
}

func TestReserve_Idempotent(t *testing.T) {
	store, err := idempotency.NewBoltStore(filepath.Join(t.TempDir(), "idem.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := newFixture(t, scheduling.Options{Idempotency: store})
	ctx := context.Background()

	req := scheduling.ReserveRequest{
		TenantID:       f.tenant,
		ResourceID:     f.resource.ID,
		StartsAt:       at(10, 0),
		EndsAt:         at(11, 0),
		IdempotencyKey: "checkout-42",
	}
	first, err := f.svc.Reserve(ctx, req)
	require.NoError(t, err)
	again, err := f.svc.Reserve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, f.recorder.Events(), 1)

	req.IdempotencyKey = "checkout-43"
	_, err = f.svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, scheduling.ErrConflict)
}

func TestReserve_IdempotencyKeyReusedForOtherInterval(t *testing.T) {
	store, err := idempotency.NewBoltStore(filepath.Join(t.TempDir(), "idem.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := newFixture(t, scheduling.Options{Idempotency: store})
	ctx := context.Background()

	req := scheduling.ReserveRequest{
		TenantID:       f.tenant,
		ResourceID:     f.resource.ID,
		StartsAt:       at(10, 0),
		EndsAt:         at(11, 0),
		IdempotencyKey: "checkout-7",
	}
	first, err := f.svc.Reserve(ctx, req)
	require.NoError(t, err)

	other := req
	other.StartsAt, other.EndsAt = at(13, 0), at(14, 0)
	_, err = f.svc.Reserve(ctx, other)
	assert.ErrorIs(t, err, scheduling.ErrInvalidArgument)

	// the same request in another zone is still a replay
	same := req
	same.StartsAt = req.StartsAt.In(time.FixedZone("UTC+3", 3*3600))
	again, err := f.svc.Reserve(ctx, same)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	page, err := f.svc.ListBookings(ctx, f.tenant, f.resource.ID, at(0, 0), at(23, 0), 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestReserve_InactiveResource(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	require.NoError(t, f.svc.DeactivateResource(ctx, f.tenant, f.resource.ID))

	_, err := f.reserve(t, at(10, 0), at(11, 0))
	assert.ErrorIs(t, err, scheduling.ErrResourceInactive)

	resources, err := f.svc.ListResources(ctx, f.tenant, true)
	require.NoError(t, err)
	assert.Empty(t, resources)
}

func TestAddRule_Validation(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	_, err := f.svc.AddRule(ctx, f.tenant, f.resource.ID, scheduling.RuleInput{
		Weekday: time.Monday, Start: 16 * time.Hour, End: 18 * time.Hour,
	})
	assert.ErrorIs(t, err, scheduling.ErrRuleOverlap)

	_, err = f.svc.AddRule(ctx, f.tenant, f.resource.ID, scheduling.RuleInput{
		Weekday: time.Monday, Start: 17 * time.Hour, End: 24 * time.Hour,
	})
	assert.NoError(t, err, "touching rules are allowed")

	_, err = f.svc.AddRule(ctx, f.tenant, f.resource.ID, scheduling.RuleInput{
		Weekday: time.Tuesday, Start: 12 * time.Hour, End: 9 * time.Hour,
	})
	assert.ErrorIs(t, err, scheduling.ErrInvalidRule)

	windows, err := f.svc.Windows(ctx, f.tenant, f.resource.ID, monday, monday)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.True(t, windows[0].Start.Equal(at(9, 0)))
	assert.True(t, windows[0].End.Equal(monday.AddDate(0, 0, 1)))
}

func TestCreateResource_Validation(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	_, err := f.svc.CreateResource(ctx, f.tenant, scheduling.ResourceInput{Name: " "})
	assert.ErrorIs(t, err, scheduling.ErrInvalidArgument)

	_, err = f.svc.CreateResource(ctx, f.tenant, scheduling.ResourceInput{Name: "Room 2", TimeZone: "Mars/Olympus"})
	assert.ErrorIs(t, err, scheduling.ErrInvalidArgument)

	_, err = f.svc.CreateResource(ctx, f.tenant, scheduling.ResourceInput{Name: "Room 1"})
	assert.ErrorIs(t, err, scheduling.ErrInvalidArgument, "duplicate name")

	_, err = f.svc.CreateResource(ctx, uuid.New(), scheduling.ResourceInput{Name: "Room 1"})
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	for h := 9; h < 14; h++ {
		_, err := f.reserve(t, at(h, 0), at(h+1, 0))
		require.NoError(t, err)
	}
	f.clock.Advance(time.Hour)

	page, err := f.svc.ListBookings(ctx, f.tenant, f.resource.ID, monday, monday.AddDate(0, 0, 1), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasNext)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].StartsAt.Equal(at(9, 0)))
	assert.Equal(t, model.BookingStatusExpired, page.Items[0].Status)

	last, err := f.svc.ListBookings(ctx, f.tenant, f.resource.ID, monday, monday.AddDate(0, 0, 1), 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)
	assert.False(t, last.HasNext)

	_, err = f.svc.ListBookings(ctx, f.tenant, f.resource.ID, monday, monday, 1, 10)
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)
}

func TestGetBooking_NotFound(t *testing.T) {
	f := newFixture(t, scheduling.Options{})

	_, err := f.svc.GetBooking(context.Background(), f.tenant, uuid.New())
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	_, err = f.svc.Confirm(context.Background(), f.tenant, uuid.New())
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestReserve_StorageRejectionIsConflict(t *testing.T) {
	f := newFixture(t, scheduling.Options{})

	// A writer that skipped the resource lock lands an overlapping hold
	// after the scan and before the insert; only the constraint sees it.
	injected := false
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:racing_hold", func(tx *gorm.DB) {
		if injected || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "bookings" {
			return
		}
		injected = true
		expires := at(8, 10)
		racer := &model.Booking{
			ResourceID: f.resource.ID,
			StartsAt:   at(10, 30),
			EndsAt:     at(11, 30),
			Status:     model.BookingStatusHold,
			ExpiresAt:  &expires,
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(racer).Error; err != nil {
			_ = tx.AddError(err)
		}
	}))

	_, err := f.reserve(t, at(10, 0), at(11, 0))
	require.True(t, injected)
	assert.ErrorIs(t, err, scheduling.ErrConflict)
	assert.Empty(t, f.recorder.Types())

	require.NoError(t, f.db.Callback().Create().Remove("test:racing_hold"))

	// the rejected transaction left nothing behind
	page, err := f.svc.ListBookings(context.Background(), f.tenant, f.resource.ID, at(0, 0), at(23, 0), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = f.reserve(t, at(10, 0), at(11, 0))
	assert.NoError(t, err)
}

// Every booking write locks the resource row before any booking row, so a
// Confirm or Cancel cannot hold a booking another Reserve is waiting on
// while itself waiting on that Reserve's resource.
func TestBookingWrites_LockResourceFirst(t *testing.T) {
	f := newFixture(t, scheduling.Options{})
	ctx := context.Background()

	var (
		mu     sync.Mutex
		locked []string
	)
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:record_locks", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Clauses["FOR"]; !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		locked = append(locked, tx.Statement.Table)
	}))
	record := func(call func()) []string {
		mu.Lock()
		locked = nil
		mu.Unlock()
		call()
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), locked...)
	}

	var b *model.Booking
	locks := record(func() {
		var err error
		b, err = f.reserve(t, at(10, 0), at(11, 0))
		require.NoError(t, err)
	})
	require.NotEmpty(t, locks)
	assert.Equal(t, "resources", locks[0], "reserve: %v", locks)

	locks = record(func() {
		_, err := f.svc.Confirm(ctx, f.tenant, b.ID)
		require.NoError(t, err)
	})
	require.GreaterOrEqual(t, len(locks), 2)
	assert.Equal(t, []string{"resources", "bookings"}, locks[:2], "confirm: %v", locks)

	locks = record(func() {
		_, err := f.svc.Cancel(ctx, f.tenant, b.ID)
		require.NoError(t, err)
	})
	require.GreaterOrEqual(t, len(locks), 2)
	assert.Equal(t, []string{"resources", "bookings"}, locks[:2], "cancel: %v", locks)
}
