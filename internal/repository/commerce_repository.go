package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/model"
)

// CommerceRepository persists the cross-domain records whose links are
// checked by the tenant guard before they are written.
type CommerceRepository interface {
	CreateVariant(ctx context.Context, v *model.ProductVariant) error
	CreateCustomer(ctx context.Context, c *model.Customer) error
	CreateCart(ctx context.Context, c *model.Cart) error
	CreateCartLine(ctx context.Context, l *model.CartLine) error
	CreateWarehouse(ctx context.Context, w *model.Warehouse) error
	CreateStock(ctx context.Context, s *model.Stock) error
	CreateVoucher(ctx context.Context, v *model.Voucher) error
	CreateRedemption(ctx context.Context, r *model.VoucherRedemption) error
	CreateVariantResource(ctx context.Context, vr *model.VariantResource) error
	ListResourcesForVariant(ctx context.Context, variantID uuid.UUID) ([]model.Resource, error)
}

type GormCommerceRepository struct {
	db *gorm.DB
}

func NewGormCommerceRepository(db *gorm.DB) *GormCommerceRepository {
	return &GormCommerceRepository{db: db}
}

func (r *GormCommerceRepository) create(ctx context.Context, v any) error {
	return mapError(r.db.WithContext(ctx).Create(v).Error)
}

func (r *GormCommerceRepository) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	return r.create(ctx, v)
}

func (r *GormCommerceRepository) CreateCustomer(ctx context.Context, c *model.Customer) error {
	return r.create(ctx, c)
}

func (r *GormCommerceRepository) CreateCart(ctx context.Context, c *model.Cart) error {
	return r.create(ctx, c)
}

func (r *GormCommerceRepository) CreateCartLine(ctx context.Context, l *model.CartLine) error {
	return r.create(ctx, l)
}

func (r *GormCommerceRepository) CreateWarehouse(ctx context.Context, w *model.Warehouse) error {
	return r.create(ctx, w)
}

func (r *GormCommerceRepository) CreateStock(ctx context.Context, s *model.Stock) error {
	return r.create(ctx, s)
}

func (r *GormCommerceRepository) CreateVoucher(ctx context.Context, v *model.Voucher) error {
	return r.create(ctx, v)
}

func (r *GormCommerceRepository) CreateRedemption(ctx context.Context, red *model.VoucherRedemption) error {
	return r.create(ctx, red)
}

func (r *GormCommerceRepository) CreateVariantResource(ctx context.Context, vr *model.VariantResource) error {
	return r.create(ctx, vr)
}

func (r *GormCommerceRepository) ListResourcesForVariant(ctx context.Context, variantID uuid.UUID) ([]model.Resource, error) {
	var out []model.Resource
	err := r.db.WithContext(ctx).
		Joins("JOIN variant_resources vr ON vr.resource_id = resources.id").
		Where("vr.variant_id = ?", variantID).
		Order("resources.name ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
