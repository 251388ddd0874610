package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/model"
)

type MerchantRepository interface {
	Create(ctx context.Context, m *model.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error)
	GetBySlug(ctx context.Context, slug string) (*model.Merchant, error)
}

type GormMerchantRepository struct {
	db *gorm.DB
}

func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

func (r *GormMerchantRepository) Create(ctx context.Context, m *model.Merchant) error {
	return mapError(r.db.WithContext(ctx).Create(m).Error)
}

func (r *GormMerchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Merchant, error) {
	var m model.Merchant
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *GormMerchantRepository) GetBySlug(ctx context.Context, slug string) (*model.Merchant, error) {
	var m model.Merchant
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&m).Error; err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}
