package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	"github.com/sanabelapp/sanabel-backend/pkg/types"
)

// WalletTransaction is an append-only wallet ledger row. Amount is signed:
// positive credits the wallet, negative debits it.
type WalletTransaction struct {
	ID         uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID                   `gorm:"column:customer_id;type:uuid;not null;index"`
	Type       enums.WalletTransactionType `gorm:"column:type;not null"`
	Amount     decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null"`
	Reference  types.Reference             `gorm:"embedded;embeddedPrefix:reference_"`
	CreatedAt  time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
