package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/enums"
)

// Invoice is the priced, payable record for exactly one order and the source
// of truth for what is owed and whether it was paid.
//
// Invariant: AmountDue = subtotal + tax + delivery fee - offer discount -
// points discount, clamped at zero.
type Invoice struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Subtotal       decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	OfferDiscount  decimal.Decimal     `gorm:"column:offer_discount;type:numeric(12,2);not null"`
	UsedPoints     int                 `gorm:"column:used_points;not null;default:0"`
	PointsDiscount decimal.Decimal     `gorm:"column:points_discount;type:numeric(12,2);not null"`
	TotalDiscount  decimal.Decimal     `gorm:"column:total_discount;type:numeric(12,2);not null"`
	AmountDue      decimal.Decimal     `gorm:"column:amount_due;type:numeric(12,2);not null"`
	Status         enums.InvoiceStatus `gorm:"column:status;not null;default:'pending'"`
	PaidAt         *time.Time          `gorm:"column:paid_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
