package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/enums"
)

// RefundRequest is the approval state machine layered on a paid invoice.
type RefundRequest struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	InvoiceID  uuid.UUID                 `gorm:"column:invoice_id;type:uuid;not null;index"`
	CustomerID uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null;index"`
	Amount     decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	Reason     string                    `gorm:"column:reason;not null"`
	Status     enums.RefundRequestStatus `gorm:"column:status;not null;default:'pending'"`
	Notes      *string                   `gorm:"column:notes"`
	ApproverID *uuid.UUID                `gorm:"column:approver_id;type:uuid"`
	ApprovedAt *time.Time                `gorm:"column:approved_at"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
