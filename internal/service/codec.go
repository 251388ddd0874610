package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
)

// Requests and responses are google.protobuf.Struct. Field names are
// snake_case, instants RFC 3339, dates YYYY-MM-DD and times of day HH:MM.

func field(st *structpb.Struct, key string) (*structpb.Value, bool) {
	if st == nil {
		return nil, false
	}
	v, ok := st.GetFields()[key]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func stringField(st *structpb.Struct, key string) string {
	v, ok := field(st, key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

func intField(st *structpb.Struct, key string) int {
	v, ok := field(st, key)
	if !ok {
		return 0
	}
	return int(v.GetNumberValue())
}

func boolField(st *structpb.Struct, key string) bool {
	v, ok := field(st, key)
	return ok && v.GetBoolValue()
}

func requiredUUID(st *structpb.Struct, key string) (uuid.UUID, error) {
	raw := stringField(st, key)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is invalid", key)
	}
	return id, nil
}

func optionalUUID(st *structpb.Struct, key string) (*uuid.UUID, error) {
	if stringField(st, key) == "" {
		return nil, nil
	}
	id, err := requiredUUID(st, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func instantField(st *structpb.Struct, key string) (time.Time, error) {
	raw := stringField(st, key)
	if raw == "" {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s must be RFC 3339", key)
	}
	return t, nil
}

func dateField(st *structpb.Struct, key string) (time.Time, error) {
	raw := stringField(st, key)
	if raw == "" {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "%s must be YYYY-MM-DD", key)
	}
	return d, nil
}

func clockField(st *structpb.Struct, key string) (*time.Duration, error) {
	raw := stringField(st, key)
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.ParseClock(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", key, err)
	}
	return &d, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func optionalID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func bookingMap(b *model.Booking) map[string]any {
	return map[string]any{
		"id":           b.ID.String(),
		"resource_id":  b.ResourceID.String(),
		"variant_id":   optionalID(b.VariantID),
		"customer_id":  optionalID(b.CustomerID),
		"status":       string(b.Status),
		"starts_at":    formatTime(&b.StartsAt),
		"ends_at":      formatTime(&b.EndsAt),
		"expires_at":   formatTime(b.ExpiresAt),
		"confirmed_at": formatTime(b.ConfirmedAt),
		"cancelled_at": formatTime(b.CancelledAt),
		"notes":        b.Notes,
	}
}

func windowsList(windows []calendar.TimeRange) []any {
	out := make([]any, 0, len(windows))
	for _, w := range windows {
		out = append(out, map[string]any{
			"starts_at": formatTime(&w.Start),
			"ends_at":   formatTime(&w.End),
		})
	}
	return out
}

func resourceMap(r *model.Resource) map[string]any {
	return map[string]any{
		"id":          r.ID.String(),
		"merchant_id": r.MerchantID.String(),
		"name":        r.Name,
		"time_zone":   r.TimeZone,
		"is_active":   r.IsActive,
	}
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}
