// Package commerce writes the cross-entity links of the catalog, cart,
// inventory and promotion domains. Each write checks in its own transaction
// that every entity it connects belongs to the calling merchant.
package commerce

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/repository"
	"github.com/Leganyst/booking-core/internal/tenant"
)

var (
	ErrTenantMismatch = tenant.ErrTenantMismatch
	ErrNotFound       = errors.New("not found")
	ErrInvalidLink    = errors.New("invalid link")
)

type Linker struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLinker(db *gorm.DB, log *zap.Logger) *Linker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Linker{db: db, log: log}
}

func (l *Linker) guarded(ctx context.Context, op string, tenantID uuid.UUID, refs []tenant.Ref, write func(repo *repository.GormCommerceRepository) error) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tenant.AssertOwnedBy(ctx, tx, refs[0], tenantID); err != nil {
			return err
		}
		if err := tenant.AssertAllSameTenant(ctx, tx, refs...); err != nil {
			return err
		}
		return write(repository.NewGormCommerceRepository(tx))
	})
	err = normalize(err)
	if err != nil {
		l.log.Info(op+" rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.Stringers("refs", refs),
			zap.Error(err),
		)
	}
	return err
}

func normalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tenant.ErrEntityNotFound), errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrInvalidLink, err)
	}
	return err
}

// AddCartLine puts a variant, and optionally the resource it is booked on,
// into a cart. Cart lines carry no merchant of their own; they inherit the
// cart's.
func (l *Linker) AddCartLine(ctx context.Context, tenantID uuid.UUID, line *model.CartLine) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidLink)
	}
	refs := []tenant.Ref{tenant.CartRef(line.CartID), tenant.VariantRef(line.VariantID)}
	if line.ResourceID != nil {
		refs = append(refs, tenant.ResourceRef(*line.ResourceID))
	}
	return l.guarded(ctx, "add_cart_line", tenantID, refs, func(repo *repository.GormCommerceRepository) error {
		return repo.CreateCartLine(ctx, line)
	})
}

// AddStock records stock of a variant held in a warehouse.
func (l *Linker) AddStock(ctx context.Context, tenantID uuid.UUID, s *model.Stock) error {
	if s.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", ErrInvalidLink)
	}
	s.MerchantID = tenantID
	refs := []tenant.Ref{tenant.WarehouseRef(s.WarehouseID), tenant.VariantRef(s.VariantID)}
	return l.guarded(ctx, "add_stock", tenantID, refs, func(repo *repository.GormCommerceRepository) error {
		return repo.CreateStock(ctx, s)
	})
}

// RedeemVoucher records a voucher use, optionally by a known customer.
func (l *Linker) RedeemVoucher(ctx context.Context, tenantID uuid.UUID, red *model.VoucherRedemption) error {
	refs := []tenant.Ref{tenant.VoucherRef(red.VoucherID)}
	if red.CustomerID != nil {
		refs = append(refs, tenant.CustomerRef(*red.CustomerID))
	}
	return l.guarded(ctx, "redeem_voucher", tenantID, refs, func(repo *repository.GormCommerceRepository) error {
		return repo.CreateRedemption(ctx, red)
	})
}

// LinkVariantResource makes a resource bookable for a variant.
func (l *Linker) LinkVariantResource(ctx context.Context, tenantID, variantID, resourceID uuid.UUID) (*model.VariantResource, error) {
	vr := &model.VariantResource{VariantID: variantID, ResourceID: resourceID}
	refs := []tenant.Ref{tenant.VariantRef(variantID), tenant.ResourceRef(resourceID)}
	err := l.guarded(ctx, "link_variant_resource", tenantID, refs, func(repo *repository.GormCommerceRepository) error {
		return repo.CreateVariantResource(ctx, vr)
	})
	if err != nil {
		return nil, err
	}
	return vr, nil
}

// ResourcesForVariant lists the resources a variant can be booked on.
func (l *Linker) ResourcesForVariant(ctx context.Context, tenantID, variantID uuid.UUID) ([]model.Resource, error) {
	if err := tenant.AssertOwnedBy(ctx, l.db, tenant.VariantRef(variantID), tenantID); err != nil {
		return nil, normalize(err)
	}
	return repository.NewGormCommerceRepository(l.db).ListResourcesForVariant(ctx, variantID)
}
