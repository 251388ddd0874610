package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/availability"
	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/tenant"
)

type ResourceInput struct {
	Name     string
	TimeZone string
}

type RuleInput struct {
	Weekday time.Weekday
	// Offsets since local midnight; End may be 24h.
	Start time.Duration
	End   time.Duration
}

type OverrideInput struct {
	Date time.Time
	Kind model.OverrideKind
	// Both nil for a full-day override.
	Start *time.Duration
	End   *time.Duration
	Note  string
}

// CreateResource adds an active resource for the tenant.
func (s *Service) CreateResource(ctx context.Context, tenantID uuid.UUID, in ResourceInput) (res *model.Resource, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.CreateResource")
	defer func() { s.finish(ctx, span, "create_resource", err, zap.String("tenant_id", tenantID.String())) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: resource name is required", ErrInvalidArgument)
	}
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%w: time zone %q", ErrInvalidArgument, tz)
	}

	res = &model.Resource{MerchantID: tenantID, Name: name, TimeZone: tz, IsActive: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := tenant.TenantOf(ctx, tx, tenant.MerchantRef(tenantID)); err != nil {
			return err
		}
		return repository.NewGormResourceRepository(tx).Create(ctx, res)
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	return res, nil
}

// AddRule adds a weekly rule. Rules overlapping another active rule of the
// same weekday are rejected with ErrRuleOverlap at write time.
func (s *Service) AddRule(ctx context.Context, tenantID, resourceID uuid.UUID, in RuleInput) (rule *model.AvailabilityRule, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.AddRule", trace.WithAttributes(
		attribute.String("resource_id", resourceID.String()),
	))
	defer func() { s.finish(ctx, span, "add_rule", err, zap.String("resource_id", resourceID.String())) }()

	rule = &model.AvailabilityRule{
		ResourceID: resourceID,
		Weekday:    in.Weekday,
		StartTime:  datatypes.Time(in.Start),
		EndTime:    datatypes.Time(in.End),
		IsActive:   true,
	}
	if err := availability.ValidateRules([]model.AvailabilityRule{*rule}); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockResource(ctx, tx, tenantID, resourceID); err != nil {
			return err
		}
		repo := repository.NewGormAvailabilityRepository(tx)
		existing, err := repo.ListRules(ctx, resourceID, true)
		if err != nil {
			return err
		}
		if err := availability.ValidateRules(append(existing, *rule)); err != nil {
			return err
		}
		return repo.CreateRule(ctx, rule)
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	return rule, nil
}

// AddOverride opens or closes part or all of one date. Existing bookings
// are left as they are.
func (s *Service) AddOverride(ctx context.Context, tenantID, resourceID uuid.UUID, in OverrideInput) (o *model.AvailabilityOverride, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.AddOverride", trace.WithAttributes(
		attribute.String("resource_id", resourceID.String()),
	))
	defer func() { s.finish(ctx, span, "add_override", err, zap.String("resource_id", resourceID.String())) }()

	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: override date is required", ErrInvalidArgument)
	}
	o = &model.AvailabilityOverride{
		ResourceID: resourceID,
		Date:       datatypes.Date(calendar.DateOf(in.Date, in.Date.Location())),
		Kind:       in.Kind,
		Note:       in.Note,
	}
	if in.Start != nil {
		t := datatypes.Time(*in.Start)
		o.StartTime = &t
	}
	if in.End != nil {
		t := datatypes.Time(*in.End)
		o.EndTime = &t
	}
	if err := availability.ValidateOverride(*o); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockResource(ctx, tx, tenantID, resourceID); err != nil {
			return err
		}
		return repository.NewGormAvailabilityRepository(tx).CreateOverride(ctx, o)
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	return o, nil
}

// DeactivateResource stops new reservations on the resource. Existing
// bookings keep their state.
func (s *Service) DeactivateResource(ctx context.Context, tenantID, resourceID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.DeactivateResource")
	defer func() { s.finish(ctx, span, "deactivate_resource", err, zap.String("resource_id", resourceID.String())) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockResource(ctx, tx, tenantID, resourceID); err != nil {
			return err
		}
		return repository.NewGormResourceRepository(tx).SetActive(ctx, resourceID, false)
	})
	return normalizeError(err)
}

// lockResource takes the same row lock as a reservation, so configuration
// changes and admissions on one resource never interleave.
func (s *Service) lockResource(ctx context.Context, tx *gorm.DB, tenantID, resourceID uuid.UUID) (*model.Resource, error) {
	res, err := repository.NewGormResourceRepository(tx).LockByID(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", resourceID, err)
	}
	if err := tenant.AssertOwnedBy(ctx, tx, tenant.ResourceRef(res.ID), tenantID); err != nil {
		return nil, err
	}
	return res, nil
}
