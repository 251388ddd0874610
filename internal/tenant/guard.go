// Package tenant checks that records linked across tables belong to the same
// merchant. Checks run on the caller's transaction so the verdict and the
// write it protects commit together.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTenantMismatch = errors.New("tenant mismatch")
	ErrEntityNotFound = errors.New("entity not found")
	ErrUnknownKind    = errors.New("unknown entity kind")
)

type Kind string

const (
	KindMerchant          Kind = "merchant"
	KindResource          Kind = "resource"
	KindBooking           Kind = "booking"
	KindVariant           Kind = "variant"
	KindCustomer          Kind = "customer"
	KindCart              Kind = "cart"
	KindCartLine          Kind = "cart_line"
	KindWarehouse         Kind = "warehouse"
	KindStock             Kind = "stock"
	KindVoucher           Kind = "voucher"
	KindVoucherRedemption Kind = "voucher_redemption"
)

// Ref points at one row of a tenant-scoped entity.
type Ref struct {
	Kind Kind
	ID   uuid.UUID
}

func (r Ref) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.ID)
}

func MerchantRef(id uuid.UUID) Ref { return Ref{Kind: KindMerchant, ID: id} }
func ResourceRef(id uuid.UUID) Ref { return Ref{Kind: KindResource, ID: id} }
func BookingRef(id uuid.UUID) Ref { return Ref{Kind: KindBooking, ID: id} }
func VariantRef(id uuid.UUID) Ref { return Ref{Kind: KindVariant, ID: id} }
func CustomerRef(id uuid.UUID) Ref { return Ref{Kind: KindCustomer, ID: id} }
func CartRef(id uuid.UUID) Ref { return Ref{Kind: KindCart, ID: id} }
func WarehouseRef(id uuid.UUID) Ref { return Ref{Kind: KindWarehouse, ID: id} }
func VoucherRef(id uuid.UUID) Ref { return Ref{Kind: KindVoucher, ID: id} }

// entity describes where a kind keeps its tenant: either a column on its
// own table or a reference to a parent that has one.
type entity struct {
	table        string
	tenantColumn string
	parent       Kind
	parentColumn string
}

var schema = map[Kind]entity{
	KindMerchant:          {table: "merchants", tenantColumn: "id"},
	KindResource:          {table: "resources", tenantColumn: "merchant_id"},
	KindVariant:           {table: "product_variants", tenantColumn: "merchant_id"},
	KindCustomer:          {table: "customers", tenantColumn: "merchant_id"},
	KindCart:              {table: "carts", tenantColumn: "merchant_id"},
	KindWarehouse:         {table: "warehouses", tenantColumn: "merchant_id"},
	KindStock:             {table: "stocks", tenantColumn: "merchant_id"},
	KindVoucher:           {table: "vouchers", tenantColumn: "merchant_id"},
	KindBooking:           {table: "bookings", parent: KindResource, parentColumn: "resource_id"},
	KindCartLine:          {table: "cart_lines", parent: KindCart, parentColumn: "cart_id"},
	KindVoucherRedemption: {table: "voucher_redemptions", parent: KindVoucher, parentColumn: "voucher_id"},
}

// longest parent chain in schema plus slack
const maxDepth = 4

// TenantOf resolves the merchant owning ref, walking parent links for
// kinds without a tenant column. Every row read is share-locked.
func TenantOf(ctx context.Context, tx *gorm.DB, ref Ref) (uuid.UUID, error) {
	cur := ref
	for depth := 0; depth < maxDepth; depth++ {
		e, ok := schema[cur.Kind]
		if !ok {
			return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownKind, cur.Kind)
		}

		col := e.tenantColumn
		if col == "" {
			col = e.parentColumn
		}
		val, err := lookup(ctx, tx, e.table, col, cur.ID)
		if err != nil {
			if errors.Is(err, ErrEntityNotFound) {
				return uuid.Nil, fmt.Errorf("%w: %s", ErrEntityNotFound, cur)
			}
			return uuid.Nil, err
		}

		if e.tenantColumn != "" {
			return val, nil
		}
		cur = Ref{Kind: e.parent, ID: val}
	}
	return uuid.Nil, fmt.Errorf("tenant chain too deep for %s", ref)
}

func lookup(ctx context.Context, tx *gorm.DB, table, column string, id uuid.UUID) (uuid.UUID, error) {
	var vals []uuid.UUID
	err := tx.WithContext(ctx).
		Table(table).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		Limit(1).
		Pluck(column, &vals).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve %s.%s: %w", table, column, err)
	}
	if len(vals) == 0 {
		return uuid.Nil, ErrEntityNotFound
	}
	return vals[0], nil
}

// AssertSameTenant fails with ErrTenantMismatch unless a and b resolve to
// the same merchant.
func AssertSameTenant(ctx context.Context, tx *gorm.DB, a, b Ref) error {
	ta, err := TenantOf(ctx, tx, a)
	if err != nil {
		return err
	}
	tb, err := TenantOf(ctx, tx, b)
	if err != nil {
		return err
	}
	if ta != tb {
		return fmt.Errorf("%w: %s and %s", ErrTenantMismatch, a, b)
	}
	return nil
}

// AssertOwnedBy checks that ref belongs to merchantID.
func AssertOwnedBy(ctx context.Context, tx *gorm.DB, ref Ref, merchantID uuid.UUID) error {
	return AssertSameTenant(ctx, tx, ref, MerchantRef(merchantID))
}

// AssertAllSameTenant checks every ref against the first one. Nil-ID refs
// are skipped so optional links can be passed unconditionally.
func AssertAllSameTenant(ctx context.Context, tx *gorm.DB, refs ...Ref) error {
	var anchor *Ref
	for i := range refs {
		if refs[i].ID == uuid.Nil {
			continue
		}
		if anchor == nil {
			anchor = &refs[i]
			continue
		}
		if err := AssertSameTenant(ctx, tx, *anchor, refs[i]); err != nil {
			return err
		}
	}
	return nil
}
