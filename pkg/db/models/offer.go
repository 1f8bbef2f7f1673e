package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/pkg/enums"
)

// Offer is a "buy X get Y" rule: one or more conditions plus either reward
// product lines or a discount.
type Offer struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Title         string                 `gorm:"column:title;not null"`
	Type          enums.OfferType        `gorm:"column:type;not null;default:'retail'"`
	RewardType    enums.OfferRewardType  `gorm:"column:reward_type;not null"`
	DiscountType  *enums.OfferDiscountType `gorm:"column:discount_type"`
	DiscountValue *decimal.Decimal       `gorm:"column:discount_value;type:numeric(12,2)"`
	CharityID     *uuid.UUID             `gorm:"column:charity_id;type:uuid"`
	Charity       *Charity               `gorm:"foreignKey:CharityID"`
	IsActive      bool                   `gorm:"column:is_active;not null;default:true"`
	StartsAt      time.Time              `gorm:"column:starts_at;not null"`
	EndsAt        time.Time              `gorm:"column:ends_at;not null"`
	Conditions    []OfferCondition       `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE"`
	Rewards       []OfferReward          `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// RedeemableAt reports whether the offer can be redeemed at the given instant.
// Charity offers additionally require an attached charity.
func (o Offer) RedeemableAt(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if now.Before(o.StartsAt) || now.After(o.EndsAt) {
		return false
	}
	if o.Type == enums.OfferTypeCharity && o.CharityID == nil {
		return false
	}
	return true
}

// OfferCondition is a required purchase line for the offer to apply.
type OfferCondition struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OfferID   uuid.UUID `gorm:"column:offer_id;type:uuid;not null;index"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
}

// OfferReward is a gifted product line for reward_type=products offers.
type OfferReward struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OfferID   uuid.UUID `gorm:"column:offer_id;type:uuid;not null;index"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
}
