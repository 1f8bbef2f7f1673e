package customers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

// Repository reads customers and applies guarded deltas to their materialized
// points and wallet counters. Callers must pair every delta with a ledger row
// in the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	AddPoints(ctx context.Context, customerID uuid.UUID, delta int) error
	AddWalletBalance(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repository) FindAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, err
	}
	return &address, nil
}

// AddPoints applies a signed delta to the points counter. Negative deltas use
// a balance guard so concurrent debits cannot drive the counter below zero.
func (r *repository) AddPoints(ctx context.Context, customerID uuid.UUID, delta int) error {
	query := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID)
	if delta < 0 {
		query = query.Where("points >= ?", -delta)
	}

	result := query.UpdateColumn("points", gorm.Expr("points + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, customerID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient points balance")
	}
	return nil
}

// AddWalletBalance applies a signed delta to the wallet counter with the same
// guard discipline as AddPoints.
func (r *repository) AddWalletBalance(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error {
	query := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID)
	if delta.IsNegative() {
		query = query.Where("wallet_balance >= ?", delta.Neg())
	}

	result := query.UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, customerID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient wallet balance")
	}
	return nil
}
