package enums

import "fmt"

// OfferRewardType is what an offer grants once its conditions are met.
type OfferRewardType string

const (
	OfferRewardTypeProducts OfferRewardType = "products"
	OfferRewardTypeDiscount OfferRewardType = "discount"
)

var validOfferRewardTypes = []OfferRewardType{
	OfferRewardTypeProducts,
	OfferRewardTypeDiscount,
}

// String implements fmt.Stringer.
func (r OfferRewardType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known OfferRewardType.
func (r OfferRewardType) IsValid() bool {
	for _, candidate := range validOfferRewardTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOfferRewardType converts raw input into an OfferRewardType.
func ParseOfferRewardType(value string) (OfferRewardType, error) {
	for _, candidate := range validOfferRewardTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer reward type %q", value)
}

// OfferDiscountType qualifies discount rewards.
type OfferDiscountType string

const (
	OfferDiscountTypePercentage OfferDiscountType = "percentage"
	OfferDiscountTypeFixed      OfferDiscountType = "fixed"
)

var validOfferDiscountTypes = []OfferDiscountType{
	OfferDiscountTypePercentage,
	OfferDiscountTypeFixed,
}

// IsValid reports whether the value is a known OfferDiscountType.
func (d OfferDiscountType) IsValid() bool {
	for _, candidate := range validOfferDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseOfferDiscountType converts raw input into an OfferDiscountType.
func ParseOfferDiscountType(value string) (OfferDiscountType, error) {
	for _, candidate := range validOfferDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer discount type %q", value)
}
