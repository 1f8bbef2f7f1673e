package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	"github.com/sanabelapp/sanabel-backend/pkg/types"
)

// PointsTransaction is an append-only loyalty ledger row. Points carries the
// signed delta applied to the customer's counter; Amount is the money value
// of the movement. Rows are never edited or deleted.
type PointsTransaction struct {
	ID         uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID                   `gorm:"column:customer_id;type:uuid;not null;index"`
	Type       enums.PointsTransactionType `gorm:"column:type;not null"`
	Amount     decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null"`
	Points     int                         `gorm:"column:points;not null"`
	Reference  types.Reference             `gorm:"embedded;embeddedPrefix:reference_"`
	CreatedAt  time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
