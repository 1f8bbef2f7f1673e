package enums

import "fmt"

// WalletTransactionType classifies immutable wallet ledger rows.
type WalletTransactionType string

const (
	WalletTransactionTypeTopUp      WalletTransactionType = "top_up"
	WalletTransactionTypeBonus      WalletTransactionType = "bonus"
	WalletTransactionTypeConversion WalletTransactionType = "points_conversion"
	WalletTransactionTypeOrderDebit WalletTransactionType = "order_debit"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionTypeTopUp,
	WalletTransactionTypeBonus,
	WalletTransactionTypeConversion,
	WalletTransactionTypeOrderDebit,
}

// String implements fmt.Stringer.
func (t WalletTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (t WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
