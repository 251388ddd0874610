package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/booking-core/internal/model"
)

type ResourceRepository interface {
	Create(ctx context.Context, res *model.Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	// LockByID reads the resource with a row lock held until the
	// surrounding transaction ends. Every booking write on the resource
	// serializes behind it.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, onlyActive bool) ([]model.Resource, error)
}

type GormResourceRepository struct {
	db *gorm.DB
}

func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

func (r *GormResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	return mapError(r.db.WithContext(ctx).Create(res).Error)
}

func (r *GormResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &res, nil
}

func (r *GormResourceRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &res, nil
}

func (r *GormResourceRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormResourceRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, onlyActive bool) ([]model.Resource, error) {
	var out []model.Resource
	q := r.db.WithContext(ctx).Where("merchant_id = ?", merchantID)
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
