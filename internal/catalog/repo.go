package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

// Repository provides read access to the live catalog and the stock decrement
// used inside order commit transactions. Nothing else mutates stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductVariant, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		return nil, err
	}
	return &variant, nil
}

func (r *repository) FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductVariant, error) {
	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.ProductVariant, len(variants))
	for _, variant := range variants {
		byID[variant.ID] = variant
	}
	return byID, nil
}

// DecrementStock applies a compare-and-set decrement. Two orders racing for
// the last unit both reach this statement, but only one matches the stock
// guard; the loser gets an insufficient-stock conflict and rolls back.
func (r *repository) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}

	result := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		variant, err := r.FindVariantByID(ctx, variantID)
		if err != nil {
			return err
		}
		return InsufficientStock(variant.SKU, variant.Stock, qty)
	}
	return nil
}

// InsufficientStock builds the typed conflict naming the short SKU and the
// quantity actually available.
func InsufficientStock(sku string, available, requested int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for "+sku).
		WithDetails(map[string]any{
			"sku":       sku,
			"available": available,
			"requested": requested,
		})
}
