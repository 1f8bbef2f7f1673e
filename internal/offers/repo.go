package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
)

// Repository loads offers with their condition and reward lines.
type Repository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Offer, error)
	ListRedeemable(ctx context.Context) ([]models.Offer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an offer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Preload("Conditions").
		Preload("Rewards").
		Preload("Charity").
		Where("id IN ?", ids).
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Offer, len(offers))
	for _, offer := range offers {
		byID[offer.ID] = offer
	}
	return byID, nil
}

func (r *repository) ListRedeemable(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Preload("Conditions").
		Preload("Rewards").
		Preload("Charity").
		Where("is_active = ?", true).
		Where("starts_at <= CURRENT_TIMESTAMP AND ends_at >= CURRENT_TIMESTAMP").
		Order("starts_at DESC").
		Find(&offers).Error
	return offers, err
}
