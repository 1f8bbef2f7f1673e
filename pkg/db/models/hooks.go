package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Primary keys are assigned application-side so associated rows can be
// created in one statement batch and referenced before the insert returns.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Customer) BeforeCreate(*gorm.DB) error            { ensureID(&m.ID); return nil }
func (m *Address) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *Charity) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *Product) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *ProductVariant) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *Offer) BeforeCreate(*gorm.DB) error               { ensureID(&m.ID); return nil }
func (m *OfferCondition) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *OfferReward) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (m *Order) BeforeCreate(*gorm.DB) error               { ensureID(&m.ID); return nil }
func (m *OrderItem) BeforeCreate(*gorm.DB) error           { ensureID(&m.ID); return nil }
func (m *Invoice) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *Delivery) BeforeCreate(*gorm.DB) error            { ensureID(&m.ID); return nil }
func (m *Payment) BeforeCreate(*gorm.DB) error             { ensureID(&m.ID); return nil }
func (m *PaymentGatewayEvent) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *PointsTransaction) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
func (m *WalletTransaction) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
func (m *RefundRequest) BeforeCreate(*gorm.DB) error       { ensureID(&m.ID); return nil }
