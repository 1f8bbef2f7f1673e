package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a customer delivery address.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Area       string    `gorm:"column:area;not null"`
	Block      string    `gorm:"column:block;not null"`
	Street     string    `gorm:"column:street;not null"`
	Building   string    `gorm:"column:building;not null"`
	Notes      *string   `gorm:"column:notes"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
