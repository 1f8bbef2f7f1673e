package enums

import "fmt"

// OfferType separates regular retail offers from charity campaign offers,
// which require an associated charity to be redeemable.
type OfferType string

const (
	OfferTypeRetail  OfferType = "retail"
	OfferTypeCharity OfferType = "charity"
)

var validOfferTypes = []OfferType{
	OfferTypeRetail,
	OfferTypeCharity,
}

// String implements fmt.Stringer.
func (o OfferType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferType.
func (o OfferType) IsValid() bool {
	for _, candidate := range validOfferTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOfferType converts raw input into an OfferType.
func ParseOfferType(value string) (OfferType, error) {
	for _, candidate := range validOfferTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer type %q", value)
}
