package enums

import "fmt"

// PointsTransactionType classifies immutable loyalty-point ledger rows.
type PointsTransactionType string

const (
	PointsTransactionTypeToWallet PointsTransactionType = "points_to_wallet"
	PointsTransactionTypeEarned   PointsTransactionType = "points_earned"
	PointsTransactionTypeRedeemed PointsTransactionType = "points_redeemed"
)

var validPointsTransactionTypes = []PointsTransactionType{
	PointsTransactionTypeToWallet,
	PointsTransactionTypeEarned,
	PointsTransactionTypeRedeemed,
}

// String implements fmt.Stringer.
func (t PointsTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known PointsTransactionType.
func (t PointsTransactionType) IsValid() bool {
	for _, candidate := range validPointsTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePointsTransactionType converts raw input into a PointsTransactionType.
func ParsePointsTransactionType(value string) (PointsTransactionType, error) {
	for _, candidate := range validPointsTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points transaction type %q", value)
}
