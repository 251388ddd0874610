package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/model"
)

type AvailabilityRepository interface {
	CreateRule(ctx context.Context, rule *model.AvailabilityRule) error
	// ListRules returns the resource's rules ordered by weekday and start.
	ListRules(ctx context.Context, resourceID uuid.UUID, onlyActive bool) ([]model.AvailabilityRule, error)
	CreateOverride(ctx context.Context, o *model.AvailabilityOverride) error
	// ListOverrides returns overrides whose date lies in [from, to].
	ListOverrides(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]model.AvailabilityOverride, error)
}

type GormAvailabilityRepository struct {
	db *gorm.DB
}

func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

func (r *GormAvailabilityRepository) CreateRule(ctx context.Context, rule *model.AvailabilityRule) error {
	return mapError(r.db.WithContext(ctx).Create(rule).Error)
}

func (r *GormAvailabilityRepository) ListRules(ctx context.Context, resourceID uuid.UUID, onlyActive bool) ([]model.AvailabilityRule, error) {
	var rules []model.AvailabilityRule
	q := r.db.WithContext(ctx).Where("resource_id = ?", resourceID)
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("weekday ASC").Order("start_time ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *GormAvailabilityRepository) CreateOverride(ctx context.Context, o *model.AvailabilityOverride) error {
	return mapError(r.db.WithContext(ctx).Create(o).Error)
}

func (r *GormAvailabilityRepository) ListOverrides(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]model.AvailabilityOverride, error) {
	var overrides []model.AvailabilityOverride
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("date >= ? AND date <= ?", datatypes.Date(from), datatypes.Date(to)).
		Order("date ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}
