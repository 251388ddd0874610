package service

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/commerce"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/scheduling"
)

type AdminServer interface {
	CreateResource(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateResource(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddOverride(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LinkVariantResource(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// AdminService manages resources, their availability and catalog links.
type AdminService struct {
	svc    *scheduling.Service
	linker *commerce.Linker
}

func NewAdminService(svc *scheduling.Service, linker *commerce.Linker) *AdminService {
	return &AdminService{svc: svc, linker: linker}
}

func (s *AdminService) CreateResource(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	name := stringField(in, "name")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}

	res, err := s.svc.CreateResource(ctx, tenantID, scheduling.ResourceInput{
		Name:     name,
		TimeZone: stringField(in, "time_zone"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"resource": resourceMap(res)})
}

func (s *AdminService) DeactivateResource(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	id, err := requiredUUID(in, "resource_id")
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeactivateResource(ctx, tenantID, id); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"resource_id": id.String(), "is_active": false})
}

func (s *AdminService) AddRule(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	resourceID, err := requiredUUID(in, "resource_id")
	if err != nil {
		return nil, err
	}
	weekday, err := calendar.ParseWeekday(stringField(in, "weekday"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	start, err := clockField(in, "start_time")
	if err != nil {
		return nil, err
	}
	end, err := clockField(in, "end_time")
	if err != nil {
		return nil, err
	}
	if start == nil || end == nil {
		return nil, status.Error(codes.InvalidArgument, "start_time and end_time are required")
	}

	rule, err := s.svc.AddRule(ctx, tenantID, resourceID, scheduling.RuleInput{
		Weekday: weekday,
		Start:   *start,
		End:     *end,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"rule": map[string]any{
		"id":          rule.ID.String(),
		"resource_id": rule.ResourceID.String(),
		"weekday":     rule.Weekday.String(),
		"start_time":  rule.StartTime.String(),
		"end_time":    rule.EndTime.String(),
	}})
}

func (s *AdminService) AddOverride(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	resourceID, err := requiredUUID(in, "resource_id")
	if err != nil {
		return nil, err
	}
	date, err := dateField(in, "date")
	if err != nil {
		return nil, err
	}
	kind := model.OverrideKind(stringField(in, "kind"))
	if kind == "" {
		kind = model.OverrideKindClose
	}
	start, err := clockField(in, "start_time")
	if err != nil {
		return nil, err
	}
	end, err := clockField(in, "end_time")
	if err != nil {
		return nil, err
	}

	o, err := s.svc.AddOverride(ctx, tenantID, resourceID, scheduling.OverrideInput{
		Date:  date,
		Kind:  kind,
		Start: start,
		End:   end,
		Note:  stringField(in, "note"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"override": map[string]any{
		"id":          o.ID.String(),
		"resource_id": o.ResourceID.String(),
		"date":        o.Day().Format(time.DateOnly),
		"kind":        string(o.Kind),
		"full_day":    o.IsFullDay(),
		"note":        o.Note,
	}})
}

func (s *AdminService) LinkVariantResource(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenantFromContext(ctx, false)
	if err != nil {
		return nil, err
	}
	variantID, err := requiredUUID(in, "variant_id")
	if err != nil {
		return nil, err
	}
	resourceID, err := requiredUUID(in, "resource_id")
	if err != nil {
		return nil, err
	}
	vr, err := s.linker.LinkVariantResource(ctx, tenantID, variantID, resourceID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{
		"id":          vr.ID.String(),
		"variant_id":  vr.VariantID.String(),
		"resource_id": vr.ResourceID.String(),
	})
}
