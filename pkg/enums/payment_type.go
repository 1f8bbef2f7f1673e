package enums

import "fmt"

// PaymentType distinguishes invoice payments from wallet top-up charges, which
// share the payments table.
type PaymentType string

const (
	PaymentTypeOrder        PaymentType = "order"
	PaymentTypeWalletCharge PaymentType = "wallet_charge"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeOrder,
	PaymentTypeWalletCharge,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
