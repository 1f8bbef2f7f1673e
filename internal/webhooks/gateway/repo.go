package gatewaywebhook

import (
	"context"

	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
)

// EventsRepository appends webhook audit rows. Write-once; there is no update
// surface at all.
type EventsRepository interface {
	Create(ctx context.Context, event *models.PaymentGatewayEvent) error
	ListByTrackID(ctx context.Context, provider, trackID string) ([]models.PaymentGatewayEvent, error)
}

type eventsRepository struct {
	db *gorm.DB
}

// NewEventsRepository returns an audit repository bound to the provided
// database.
func NewEventsRepository(db *gorm.DB) EventsRepository {
	return &eventsRepository{db: db}
}

func (r *eventsRepository) Create(ctx context.Context, event *models.PaymentGatewayEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventsRepository) ListByTrackID(ctx context.Context, provider, trackID string) ([]models.PaymentGatewayEvent, error) {
	var events []models.PaymentGatewayEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND track_id = ?", provider, trackID).
		Order("received_at ASC").
		Find(&events).Error
	return events, err
}
