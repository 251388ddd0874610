package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The records below belong to the catalog, customer, cart, inventory and
// promotions domains. Only their cross-entity references are modelled here:
// those are the links the tenant guard has to vouch for.

// product_variants
type ProductVariant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_sku_per_merchant,priority:1"`
	SKU        string    `gorm:"type:varchar(64);not null;uniqueIndex:uniq_sku_per_merchant,priority:2"`
	Name       string    `gorm:"type:varchar(255)"`
	IsActive   bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// customers
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_customer_email_per_merchant,priority:1"`
	Email      string    `gorm:"type:varchar(255);not null;uniqueIndex:uniq_customer_email_per_merchant,priority:2"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// variant_resources: which booking variants may use which resources.
// Carries no tenant of its own; both ends must share one.
type VariantResource struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	VariantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_variant_resource,priority:1"`
	ResourceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_variant_resource,priority:2;index"`
	CreatedAt  time.Time `gorm:"not null"`

	Variant  *ProductVariant `gorm:"foreignKey:VariantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Resource *Resource       `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// carts
type Cart struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status     string    `gorm:"type:varchar(16);not null;default:'OPEN'"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`

	Lines []CartLine `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// cart_lines: valid only through the parent cart's tenant.
type CartLine struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CartID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ResourceID *uuid.UUID `gorm:"type:uuid;index"`
	Quantity   int        `gorm:"not null;default:1;check:chk_cart_line_qty,quantity > 0"`
	CreatedAt  time.Time  `gorm:"not null"`
	UpdatedAt  time.Time  `gorm:"not null"`
}

// warehouses
type Warehouse struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_warehouse_name_per_merchant,priority:1"`
	Name       string    `gorm:"type:varchar(255);not null;uniqueIndex:uniq_warehouse_name_per_merchant,priority:2"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// stocks
type Stock struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_stock_warehouse_variant,priority:1"`
	VariantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_stock_warehouse_variant,priority:2"`
	Quantity    int       `gorm:"not null;default:0;check:chk_stock_qty,quantity >= 0"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// vouchers
type Voucher struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_voucher_code_per_merchant,priority:1"`
	Code       string    `gorm:"type:varchar(64);not null;uniqueIndex:uniq_voucher_code_per_merchant,priority:2"`
	IsActive   bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// voucher_redemptions: valid only through the parent voucher's tenant.
type VoucherRedemption struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	VoucherID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt  time.Time  `gorm:"not null"`
}

func newIDIfNil(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&v.ID)
	return nil
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&c.ID)
	return nil
}

func (v *VariantResource) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&v.ID)
	return nil
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&c.ID)
	return nil
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&l.ID)
	return nil
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&w.ID)
	return nil
}

func (s *Stock) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&s.ID)
	return nil
}

func (v *Voucher) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&v.ID)
	return nil
}

func (r *VoucherRedemption) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&r.ID)
	return nil
}
