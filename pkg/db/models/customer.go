package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer carries the materialized points and wallet counters. Both must
// always equal the sum of their ledger rows; reconciliation is checked by
// tests, not enforced per write.
type Customer struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Phone         string          `gorm:"column:phone;not null;unique"`
	Email         *string         `gorm:"column:email"`
	Points        int             `gorm:"column:points;not null;default:0"`
	WalletBalance decimal.Decimal `gorm:"column:wallet_balance;type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
