package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/enums"
)

// Payment is either an invoice payment (InvoiceID set, type=order) or a
// wallet top-up charge (CustomerID set, InvoiceID nil, type=wallet_charge).
// Both shapes share the table.
//
// Invariant: (gateway, track_id) is unique. It is the idempotency key for
// webhook processing; a second writer hits the constraint or observes the
// terminal status and no-ops.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Type          enums.PaymentType   `gorm:"column:type;not null;default:'order'"`
	InvoiceID     *uuid.UUID          `gorm:"column:invoice_id;type:uuid;index"`
	CustomerID    *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	Gateway       string              `gorm:"column:gateway;not null;uniqueIndex:idx_payments_gateway_track"`
	TrackID       *string             `gorm:"column:track_id;uniqueIndex:idx_payments_gateway_track"`
	Reference     string              `gorm:"column:reference;not null;unique"`
	TranID        *string             `gorm:"column:tran_id"`
	PaymentID     *string             `gorm:"column:payment_id"`
	ReceiptID     *string             `gorm:"column:receipt_id"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency      string              `gorm:"column:currency;not null;default:'KWD'"`
	BonusAmount   decimal.Decimal     `gorm:"column:bonus_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	Method        enums.PaymentMethod `gorm:"column:method;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	FailureReason *string             `gorm:"column:failure_reason"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
