package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/scheduling"
)

type CalendarServer interface {
	Reserve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Confirm(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListBookings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWindows(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// CalendarService exposes booking lifecycle and availability over gRPC.
type CalendarService struct {
	svc *scheduling.Service
}

func NewCalendarService(svc *scheduling.Service) *CalendarService {
	return &CalendarService{svc: svc}
}

// validateReserveRequest checks the request shape before any storage is
// touched. reason is empty when ok.
const maxBookingLength = 24 * time.Hour

func validateReserveRequest(req scheduling.ReserveRequest) (ok bool, reason string) {
	switch {
	case req.TenantID == uuid.Nil:
		return false, "tenant is required"
	case req.ResourceID == uuid.Nil:
		return false, "resource_id is required"
	case !req.EndsAt.After(req.StartsAt):
		return false, "ends_at must be after starts_at"
	case calendar.TimeRange{Start: req.StartsAt, End: req.EndsAt}.Duration() > maxBookingLength:
		return false, "booking longer than a day"
	case len(req.IdempotencyKey) > 128:
		return false, "idempotency_key too long"
	}
	return true, ""
}

func (s *CalendarService) Reserve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	req := scheduling.ReserveRequest{
		TenantID:       tenantID,
		Notes:          stringField(in, "notes"),
		IdempotencyKey: stringField(in, "idempotency_key"),
	}
	if req.ResourceID, err = requiredUUID(in, "resource_id"); err != nil {
		return nil, err
	}
	if req.StartsAt, err = instantField(in, "starts_at"); err != nil {
		return nil, err
	}
	if req.EndsAt, err = instantField(in, "ends_at"); err != nil {
		return nil, err
	}
	if req.VariantID, err = optionalUUID(in, "variant_id"); err != nil {
		return nil, err
	}
	if req.CustomerID, err = optionalUUID(in, "customer_id"); err != nil {
		return nil, err
	}
	if ok, reason := validateReserveRequest(req); !ok {
		return nil, status.Error(codes.InvalidArgument, reason)
	}

	b, err := s.svc.Reserve(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"booking": bookingMap(b)})
}

func (s *CalendarService) Confirm(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, true)
	if err != nil {
		return nil, err
	}
	id, err := requiredUUID(in, "booking_id")
	if err != nil {
		return nil, err
	}
	b, err := s.svc.Confirm(ctx, tenantID, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"booking": bookingMap(b)})
}

func (s *CalendarService) Cancel(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, true)
	if err != nil {
		return nil, err
	}
	id, err := requiredUUID(in, "booking_id")
	if err != nil {
		return nil, err
	}
	b, err := s.svc.Cancel(ctx, tenantID, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"booking": bookingMap(b)})
}

func (s *CalendarService) GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	id, err := requiredUUID(in, "booking_id")
	if err != nil {
		return nil, err
	}
	b, err := s.svc.GetBooking(ctx, tenantID, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"booking": bookingMap(b)})
}

func (s *CalendarService) ListBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	resourceID, err := requiredUUID(in, "resource_id")
	if err != nil {
		return nil, err
	}
	from, err := instantField(in, "from")
	if err != nil {
		return nil, err
	}
	to, err := instantField(in, "to")
	if err != nil {
		return nil, err
	}

	page, err := s.svc.ListBookings(ctx, tenantID, resourceID, from, to, intField(in, "page"), intField(in, "page_size"))
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, bookingMap(&page.Items[i]))
	}
	return toStruct(map[string]any{
		"bookings":    items,
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total_count": page.Total,
		"has_next":    page.HasNext,
	})
}

func (s *CalendarService) ListWindows(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	resourceID, err := requiredUUID(in, "resource_id")
	if err != nil {
		return nil, err
	}
	from, err := dateField(in, "from")
	if err != nil {
		return nil, err
	}
	to, err := dateField(in, "to")
	if err != nil {
		return nil, err
	}

	windows, err := s.svc.Windows(ctx, tenantID, resourceID, from, to)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"windows": windowsList(windows)})
}
