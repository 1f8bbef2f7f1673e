package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
)

// Setting keys. Values are stored as plain strings and parsed on read.
const (
	KeyTaxRate               = "tax_rate"
	KeyDeliveryFee           = "delivery_fee"
	KeyFreeDeliveryThreshold = "free_delivery_threshold"
	KeyMinWalletCharge       = "min_wallet_charge"
	KeyWalletChargeGiftRate  = "wallet_charge_gift_rate"
	KeyOnePointValue         = "one_point_money_value"
	KeyMinPointsToConvert    = "min_points_to_convert"
	KeyPointsEarnRate        = "points_earn_rate"
)

var defaults = map[string]string{
	KeyTaxRate:               "0.15",
	KeyDeliveryFee:           "2.00",
	KeyFreeDeliveryThreshold: "50.00",
	KeyMinWalletCharge:       "5.00",
	KeyWalletChargeGiftRate:  "0.10",
	KeyOnePointValue:         "0.05",
	KeyMinPointsToConvert:    "100",
	KeyPointsEarnRate:        "1",
}

// Snapshot is an immutable view of the pricing and wallet business rules,
// taken once per operation and injected into services. No component reads
// settings globally.
type Snapshot struct {
	TaxRate               decimal.Decimal
	DeliveryFee           decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	MinWalletCharge       decimal.Decimal
	WalletChargeGiftRate  decimal.Decimal
	OnePointValue         decimal.Decimal
	MinPointsToConvert    int
	PointsEarnRate        decimal.Decimal
}

// Accessor loads setting rows with defaults for absent keys.
type Accessor interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

type accessor struct {
	db *gorm.DB
}

// NewAccessor returns a settings accessor bound to the provided database.
func NewAccessor(db *gorm.DB) Accessor {
	return &accessor{db: db}
}

func (a *accessor) Snapshot(ctx context.Context) (Snapshot, error) {
	values := map[string]string{}
	for key, value := range defaults {
		values[key] = value
	}

	var rows []models.Setting
	if err := a.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("loading settings: %w", err)
	}
	for _, row := range rows {
		if _, known := defaults[row.Key]; known {
			values[row.Key] = row.Value
		}
	}

	return buildSnapshot(values)
}

func buildSnapshot(values map[string]string) (Snapshot, error) {
	snap := Snapshot{}

	decimalFields := []struct {
		key  string
		dest *decimal.Decimal
	}{
		{KeyTaxRate, &snap.TaxRate},
		{KeyDeliveryFee, &snap.DeliveryFee},
		{KeyFreeDeliveryThreshold, &snap.FreeDeliveryThreshold},
		{KeyMinWalletCharge, &snap.MinWalletCharge},
		{KeyWalletChargeGiftRate, &snap.WalletChargeGiftRate},
		{KeyOnePointValue, &snap.OnePointValue},
		{KeyPointsEarnRate, &snap.PointsEarnRate},
	}
	for _, field := range decimalFields {
		parsed, err := decimal.NewFromString(values[field.key])
		if err != nil {
			return Snapshot{}, fmt.Errorf("setting %s: %w", field.key, err)
		}
		*field.dest = parsed
	}

	minPoints, err := decimal.NewFromString(values[KeyMinPointsToConvert])
	if err != nil {
		return Snapshot{}, fmt.Errorf("setting %s: %w", KeyMinPointsToConvert, err)
	}
	snap.MinPointsToConvert = int(minPoints.IntPart())

	return snap, nil
}

// DefaultSnapshot builds a snapshot from the compiled-in defaults. Useful in
// tests and as a fallback before settings rows are seeded.
func DefaultSnapshot() Snapshot {
	snap, err := buildSnapshot(defaults)
	if err != nil {
		panic(err)
	}
	return snap
}
