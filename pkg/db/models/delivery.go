package models

import (
	"time"

	"github.com/google/uuid"
)

// Delivery links a delivery-type order to the address it ships to.
type Delivery struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	AddressID uuid.UUID `gorm:"column:address_id;type:uuid;not null"`
	Status    string    `gorm:"column:status;not null;default:'pending'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
