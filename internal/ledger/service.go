package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/settings"
	"github.com/sanabelapp/sanabel-backend/pkg/types"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ConversionResult reports a completed points-to-wallet conversion.
type ConversionResult struct {
	Points int             `json:"points"`
	Amount decimal.Decimal `json:"amount"`
}

// Service exposes the customer-facing ledger operations.
type Service interface {
	ConvertPointsToWallet(ctx context.Context, customerID uuid.UUID, points int) (*ConversionResult, error)
	ListPointsTransactions(ctx context.Context, customerID uuid.UUID) ([]models.PointsTransaction, error)
	ListWalletTransactions(ctx context.Context, customerID uuid.UUID) ([]models.WalletTransaction, error)
}

type service struct {
	runner   TxRunner
	ledger   *Ledger
	repo     Repository
	settings settings.Accessor
}

// NewService wires the ledger service.
func NewService(runner TxRunner, ledger *Ledger, repo Repository, accessor settings.Accessor) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("ledger service requires a transaction runner")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger service requires a ledger")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger service requires a repository")
	}
	if accessor == nil {
		return nil, fmt.Errorf("ledger service requires a settings accessor")
	}
	return &service{runner: runner, ledger: ledger, repo: repo, settings: accessor}, nil
}

// ConvertPointsToWallet burns points and credits their money value to the
// wallet. Both movements and both ledger rows commit atomically.
func (s *service) ConvertPointsToWallet(ctx context.Context, customerID uuid.UUID, points int) (*ConversionResult, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if points < snap.MinPointsToConvert {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("at least %d points are required to convert", snap.MinPointsToConvert))
	}
	if points%pointsSpendMultiple != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("points must be converted in multiples of %d", pointsSpendMultiple))
	}

	value := snap.OnePointValue.Mul(decimal.NewFromInt(int64(points))).Round(2)

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		txLedger := s.ledger.WithTx(tx)
		if err := txLedger.customers.AddPoints(ctx, customerID, -points); err != nil {
			return err
		}
		if err := txLedger.repo.CreatePointsTransaction(ctx, &models.PointsTransaction{
			CustomerID: customerID,
			Type:       enums.PointsTransactionTypeToWallet,
			Points:     -points,
			Amount:     value.Neg(),
			Reference:  types.Reference{},
		}); err != nil {
			return err
		}
		return txLedger.CreditWallet(ctx, customerID, value, enums.WalletTransactionTypeConversion, types.Reference{})
	})
	if err != nil {
		return nil, err
	}

	return &ConversionResult{Points: points, Amount: value}, nil
}

func (s *service) ListPointsTransactions(ctx context.Context, customerID uuid.UUID) ([]models.PointsTransaction, error) {
	return s.repo.ListPointsTransactions(ctx, customerID)
}

func (s *service) ListWalletTransactions(ctx context.Context, customerID uuid.UUID) ([]models.WalletTransaction, error) {
	return s.repo.ListWalletTransactions(ctx, customerID)
}
