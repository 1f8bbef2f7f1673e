package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/internal/customers"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/types"
)

// Points are spent in fixed blocks.
const pointsSpendMultiple = 10

// Ledger applies paired writes: every counter delta on the customer row gets
// an append-only ledger row in the same transaction. Callers running inside a
// transaction must rebind with WithTx first.
type Ledger struct {
	customers customers.Repository
	repo      Repository
}

// NewLedger wires the ledger over the customer and ledger repositories.
func NewLedger(customersRepo customers.Repository, repo Repository) (*Ledger, error) {
	if customersRepo == nil {
		return nil, fmt.Errorf("ledger requires a customers repository")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger requires a ledger repository")
	}
	return &Ledger{customers: customersRepo, repo: repo}, nil
}

// WithTx rebinds both repositories to the given transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{
		customers: l.customers.WithTx(tx),
		repo:      l.repo.WithTx(tx),
	}
}

// DebitPoints burns loyalty points against an order and returns the money
// value of the redemption. Points must be spent in blocks of ten; the balance
// guard in the customer repository rejects overdrafts.
func (l *Ledger) DebitPoints(ctx context.Context, customerID uuid.UUID, points int, onePointValue decimal.Decimal, ref types.Reference) (decimal.Decimal, error) {
	if points <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "points to redeem must be positive")
	}
	if points%pointsSpendMultiple != 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("points must be redeemed in multiples of %d", pointsSpendMultiple))
	}

	value := onePointValue.Mul(decimal.NewFromInt(int64(points))).Round(2)
	if err := l.customers.AddPoints(ctx, customerID, -points); err != nil {
		return decimal.Zero, err
	}
	row := &models.PointsTransaction{
		CustomerID: customerID,
		Type:       enums.PointsTransactionTypeRedeemed,
		Points:     -points,
		Amount:     value.Neg(),
		Reference:  ref,
	}
	if err := l.repo.CreatePointsTransaction(ctx, row); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// EarnPoints credits loyalty points for a settled order.
func (l *Ledger) EarnPoints(ctx context.Context, customerID uuid.UUID, points int, onePointValue decimal.Decimal, ref types.Reference) error {
	if points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points to earn must be positive")
	}
	if err := l.customers.AddPoints(ctx, customerID, points); err != nil {
		return err
	}
	return l.repo.CreatePointsTransaction(ctx, &models.PointsTransaction{
		CustomerID: customerID,
		Type:       enums.PointsTransactionTypeEarned,
		Points:     points,
		Amount:     onePointValue.Mul(decimal.NewFromInt(int64(points))).Round(2),
		Reference:  ref,
	})
}

// CreditWallet adds money to the wallet with a ledger row of the given type.
func (l *Ledger) CreditWallet(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, txType enums.WalletTransactionType, ref types.Reference) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet credit must be positive")
	}
	if err := l.customers.AddWalletBalance(ctx, customerID, amount); err != nil {
		return err
	}
	return l.repo.CreateWalletTransaction(ctx, &models.WalletTransaction{
		CustomerID: customerID,
		Type:       txType,
		Amount:     amount,
		Reference:  ref,
	})
}

// DebitWallet withdraws money from the wallet. Overdrafts are rejected by the
// balance guard.
func (l *Ledger) DebitWallet(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, ref types.Reference) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet debit must be positive")
	}
	if err := l.customers.AddWalletBalance(ctx, customerID, amount.Neg()); err != nil {
		return err
	}
	return l.repo.CreateWalletTransaction(ctx, &models.WalletTransaction{
		CustomerID: customerID,
		Type:       enums.WalletTransactionTypeOrderDebit,
		Amount:     amount.Neg(),
		Reference:  ref,
	})
}
