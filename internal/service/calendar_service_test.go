package service

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-core/internal/commerce"
	"github.com/Leganyst/booking-core/internal/dbtest"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/scheduling"
)

type harness struct {
	conn   *grpc.ClientConn
	tenant uuid.UUID
	other  uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t)
	ctx := context.Background()

	merchants := repository.NewGormMerchantRepository(db)
	a := &model.Merchant{Slug: "a-" + uuid.NewString()[:8], Name: "A", IsActive: true}
	b := &model.Merchant{Slug: "b-" + uuid.NewString()[:8], Name: "B", IsActive: true}
	require.NoError(t, merchants.Create(ctx, a))
	require.NoError(t, merchants.Create(ctx, b))

	// Monday 2025-01-06 08:00 UTC
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	svc := scheduling.NewService(db, scheduling.Options{Now: func() time.Time { return now }})
	srv, _ := NewServer(NewCalendarService(svc), NewAdminService(svc, commerce.NewLinker(db, nil)), ServerOptions{})

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{conn: conn, tenant: a.ID, other: b.ID}
}

func (h *harness) call(t *testing.T, service, method string, md metadata.MD, in map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	require.NoError(t, err)
	ctx := metadata.NewOutgoingContext(context.Background(), md)
	out := new(structpb.Struct)
	err = h.conn.Invoke(ctx, fmt.Sprintf("/%s/%s", service, method), req, out)
	return out, err
}

func asTenant(id uuid.UUID) metadata.MD {
	return metadata.Pairs(TenantHeader, id.String())
}

func nested(st *structpb.Struct, key string) *structpb.Struct {
	return st.GetFields()[key].GetStructValue()
}

func TestCalendarService_BookingLifecycle(t *testing.T) {
	h := newHarness(t)
	md := asTenant(h.tenant)

	out, err := h.call(t, AdminServiceName, "CreateResource", md, map[string]any{"name": "Studio A", "time_zone": "UTC"})
	require.NoError(t, err)
	resourceID := nested(out, "resource").GetFields()["id"].GetStringValue()

	_, err = h.call(t, AdminServiceName, "AddRule", md, map[string]any{
		"resource_id": resourceID, "weekday": "monday", "start_time": "09:00", "end_time": "17:00",
	})
	require.NoError(t, err)

	reserve := func(start, end string) (*structpb.Struct, error) {
		return h.call(t, CalendarServiceName, "Reserve", md, map[string]any{
			"resource_id": resourceID,
			"starts_at":   "2025-01-06T" + start + ":00Z",
			"ends_at":     "2025-01-06T" + end + ":00Z",
		})
	}

	out, err = reserve("10:00", "11:00")
	require.NoError(t, err)
	booking := nested(out, "booking")
	assert.Equal(t, "HOLD", booking.GetFields()["status"].GetStringValue())
	assert.Equal(t, "2025-01-06T08:10:00Z", booking.GetFields()["expires_at"].GetStringValue())
	bookingID := booking.GetFields()["id"].GetStringValue()

	_, err = reserve("10:30", "11:30")
	assert.Equal(t, codes.Aborted, status.Code(err))

	_, err = reserve("08:00", "08:30")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = h.call(t, CalendarServiceName, "Confirm", asTenant(h.other), map[string]any{"booking_id": bookingID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	out, err = h.call(t, CalendarServiceName, "Confirm", md, map[string]any{"booking_id": bookingID})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", nested(out, "booking").GetFields()["status"].GetStringValue())

	out, err = h.call(t, CalendarServiceName, "Cancel", metadata.Pairs(CallerHeader, "system"), map[string]any{"booking_id": bookingID})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", nested(out, "booking").GetFields()["status"].GetStringValue())

	_, err = h.call(t, CalendarServiceName, "Cancel", md, map[string]any{"booking_id": bookingID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	out, err = h.call(t, CalendarServiceName, "ListWindows", md, map[string]any{
		"resource_id": resourceID, "from": "2025-01-06", "to": "2025-01-12",
	})
	require.NoError(t, err)
	windows := out.GetFields()["windows"].GetListValue().GetValues()
	require.Len(t, windows, 1)
	assert.Equal(t, "2025-01-06T09:00:00Z", windows[0].GetStructValue().GetFields()["starts_at"].GetStringValue())

	out, err = h.call(t, CalendarServiceName, "ListBookings", md, map[string]any{
		"resource_id": resourceID, "from": "2025-01-06T00:00:00Z", "to": "2025-01-07T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1), out.GetFields()["total_count"].GetNumberValue())
}

func TestCalendarService_RequestErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(t, CalendarServiceName, "Reserve", metadata.MD{}, map[string]any{"resource_id": uuid.NewString()})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// system callers may only confirm or cancel
	_, err = h.call(t, CalendarServiceName, "GetBooking", metadata.Pairs(CallerHeader, "system"), map[string]any{"booking_id": uuid.NewString()})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = h.call(t, CalendarServiceName, "Reserve", asTenant(h.tenant), map[string]any{
		"resource_id": "not-a-uuid",
		"starts_at":   "2025-01-06T10:00:00Z",
		"ends_at":     "2025-01-06T11:00:00Z",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.call(t, CalendarServiceName, "Reserve", asTenant(h.tenant), map[string]any{
		"resource_id": uuid.NewString(),
		"starts_at":   "2025-01-06T11:00:00Z",
		"ends_at":     "2025-01-06T10:00:00Z",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.call(t, CalendarServiceName, "GetBooking", asTenant(h.tenant), map[string]any{"booking_id": uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.call(t, AdminServiceName, "AddRule", asTenant(h.tenant), map[string]any{
		"resource_id": uuid.NewString(), "weekday": "funday", "start_time": "09:00", "end_time": "17:00",
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_Health(t *testing.T) {
	h := newHarness(t)

	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: CalendarServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestCode(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{scheduling.ErrTenantMismatch, codes.PermissionDenied},
		{fmt.Errorf("wrapped: %w", scheduling.ErrConflict), codes.Aborted},
		{scheduling.ErrOutsideAvailability, codes.FailedPrecondition},
		{scheduling.ErrHoldExpired, codes.FailedPrecondition},
		{scheduling.ErrInvalidState, codes.FailedPrecondition},
		{scheduling.ErrNotFound, codes.NotFound},
		{commerce.ErrNotFound, codes.NotFound},
		{scheduling.ErrRuleOverlap, codes.InvalidArgument},
		{commerce.ErrInvalidLink, codes.InvalidArgument},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{status.Error(codes.Unavailable, "x"), codes.Unavailable},
		{fmt.Errorf("disk on fire"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Code(tc.err), "%v", tc.err)
	}

	err := toStatus(fmt.Errorf("dial tcp 10.0.0.1:5432: refused"))
	assert.Equal(t, "internal error", status.Convert(err).Message())
}
