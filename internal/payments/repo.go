package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

// Repository persists payments. Status changes go through the guarded
// MarkTerminal update so a payment leaves pending at most once.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindByGatewayTrackID(ctx context.Context, gateway, trackID string) (*models.Payment, error)
	FindCompletedByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*models.Payment, error)
	MarkTerminal(ctx context.Context, update TerminalUpdate) (bool, error)
}

// TerminalUpdate moves one pending payment to a terminal status and stores
// the gateway-confirmed identifiers alongside.
type TerminalUpdate struct {
	PaymentID     uuid.UUID
	Status        enums.PaymentStatus
	TranID        *string
	GatewayPayID  *string
	ReceiptID     *string
	FailureReason *string
	PaidAt        *time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return r.findOne(ctx, "reference = ?", reference)
}

func (r *repository) FindByGatewayTrackID(ctx context.Context, gateway, trackID string) (*models.Payment, error) {
	return r.findOne(ctx, "gateway = ? AND track_id = ?", gateway, trackID)
}

func (r *repository) FindCompletedByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*models.Payment, error) {
	return r.findOne(ctx, "invoice_id = ? AND status = ?", invoiceID, enums.PaymentStatusCompleted)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, append([]any{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	return &payment, nil
}

// MarkTerminal transitions the payment out of pending with a status guard in
// the WHERE clause. The false return means another writer got there first;
// callers treat that as a duplicate delivery and no-op.
func (r *repository) MarkTerminal(ctx context.Context, update TerminalUpdate) (bool, error) {
	if !update.Status.IsTerminal() {
		return false, pkgerrors.New(pkgerrors.CodeStateConflict, "payment can only transition to a terminal status")
	}

	values := map[string]any{
		"status":         update.Status,
		"tran_id":        update.TranID,
		"payment_id":     update.GatewayPayID,
		"receipt_id":     update.ReceiptID,
		"failure_reason": update.FailureReason,
		"paid_at":        update.PaidAt,
		"updated_at":     time.Now().UTC(),
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", update.PaymentID, enums.PaymentStatusPending).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
