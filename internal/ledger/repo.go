package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
)

// Repository appends ledger rows. There are deliberately no update or delete
// methods; both ledgers are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePointsTransaction(ctx context.Context, row *models.PointsTransaction) error
	CreateWalletTransaction(ctx context.Context, row *models.WalletTransaction) error
	ListPointsTransactions(ctx context.Context, customerID uuid.UUID) ([]models.PointsTransaction, error)
	ListWalletTransactions(ctx context.Context, customerID uuid.UUID) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePointsTransaction(ctx context.Context, row *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) CreateWalletTransaction(ctx context.Context, row *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListPointsTransactions(ctx context.Context, customerID uuid.UUID) ([]models.PointsTransaction, error) {
	var rows []models.PointsTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListWalletTransactions(ctx context.Context, customerID uuid.UUID) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
