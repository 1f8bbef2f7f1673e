package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/enums"
)

// RedeemedOffer is the snapshot of an offer selection kept on the order for
// forensic review; live offer rows may change after redemption.
type RedeemedOffer struct {
	OfferID  uuid.UUID       `json:"offer_id"`
	Quantity int             `json:"quantity"`
	Discount decimal.Decimal `json:"discount"`
}

// Order is the customer's composed purchase. TotalAmount is computed once at
// creation and immutable after the invoice exists.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID     uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	AddressID      *uuid.UUID          `gorm:"column:address_id;type:uuid"`
	CharityID      *uuid.UUID          `gorm:"column:charity_id;type:uuid"`
	DeliveryType   enums.DeliveryType  `gorm:"column:delivery_type;not null"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Status         enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	TotalAmount    decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	RedeemedOffers []RedeemedOffer     `gorm:"column:redeemed_offers;type:jsonb;serializer:json"`
	Items          []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Invoice        *Invoice            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Delivery       *Delivery           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
