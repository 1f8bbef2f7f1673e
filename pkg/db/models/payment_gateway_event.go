package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentGatewayEvent is the append-only audit row written for every inbound
// webhook call before any business logic runs. Rows are never mutated; they
// exist for forensic replay.
type PaymentGatewayEvent struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Provider   string          `gorm:"column:provider;not null;index"`
	EventType  string          `gorm:"column:event_type;not null"`
	TrackID    *string         `gorm:"column:track_id;index"`
	ReceiptID  *string         `gorm:"column:receipt_id"`
	Payload    json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	ReceivedAt time.Time       `gorm:"column:received_at;autoCreateTime"`
}
