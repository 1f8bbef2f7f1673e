package refunds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/internal/orders"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the refund approval state machine. Refund execution against the
// gateway is handled elsewhere; approval here settles the invoice state only.
type Service interface {
	Request(ctx context.Context, orderID uuid.UUID, reason string) (*models.RefundRequest, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*models.RefundRequest, error)
	Reject(ctx context.Context, id, approverID uuid.UUID, notes string) (*models.RefundRequest, error)
	ListPending(ctx context.Context) ([]models.RefundRequest, error)
}

type service struct {
	runner TxRunner
	repo   Repository
	orders orders.Repository
	logger *logger.Logger
	nowFn  func() time.Time
}

// NewService wires the refund workflow. nowFn may be nil, in which case the
// wall clock is used.
func NewService(runner TxRunner, repo Repository, ordersRepo orders.Repository, logg *logger.Logger, nowFn func() time.Time) (Service, error) {
	switch {
	case runner == nil:
		return nil, fmt.Errorf("refund service requires a transaction runner")
	case repo == nil:
		return nil, fmt.Errorf("refund service requires a repository")
	case ordersRepo == nil:
		return nil, fmt.Errorf("refund service requires an orders repository")
	case logg == nil:
		return nil, fmt.Errorf("refund service requires a logger")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &service{runner: runner, repo: repo, orders: ordersRepo, logger: logg, nowFn: nowFn}, nil
}

// Request opens a refund against a paid invoice for its full amount due.
func (s *service) Request(ctx context.Context, orderID uuid.UUID, reason string) (*models.RefundRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no invoice")
	}
	if order.Invoice.Status != enums.InvoiceStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only paid invoices can be refunded").
			WithDetails(map[string]any{"status": order.Invoice.Status})
	}
	if _, err := s.repo.FindPendingByOrderID(ctx, orderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a refund request is already pending for this order")
	}

	request := &models.RefundRequest{
		ID:         uuid.New(),
		OrderID:    order.ID,
		InvoiceID:  order.Invoice.ID,
		CustomerID: order.CustomerID,
		Amount:     order.Invoice.AmountDue,
		Reason:     reason,
		Status:     enums.RefundRequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Approve settles a pending request: the request becomes approved and the
// invoice moves to refunded, both terminal.
func (s *service) Approve(ctx context.Context, id, approverID uuid.UUID) (*models.RefundRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund request already decided").
			WithDetails(map[string]any{"status": request.Status})
	}

	invoice, err := s.orders.FindInvoiceByID(ctx, request.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != enums.InvoiceStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is not paid").
			WithDetails(map[string]any{"status": invoice.Status})
	}
	if request.Amount.GreaterThan(invoice.AmountDue) {
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "refund amount exceeds amount due").
			WithDetails(map[string]any{
				"requested":  request.Amount.StringFixed(2),
				"amount_due": invoice.AmountDue.StringFixed(2),
			})
	}

	now := s.nowFn().UTC()
	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txOrders := s.orders.WithTx(tx)

		request.Status = enums.RefundRequestStatusApproved
		request.ApproverID = &approverID
		request.ApprovedAt = &now
		if err := txRepo.Update(ctx, request); err != nil {
			return err
		}
		return txOrders.UpdateInvoiceStatus(ctx, request.InvoiceID, enums.InvoiceStatusRefunded)
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithOrderID(ctx, request.OrderID.String())
	s.logger.Info(ctx, "refund approved")
	return request, nil
}

// Reject closes a pending request with the approver's notes. The invoice is
// untouched.
func (s *service) Reject(ctx context.Context, id, approverID uuid.UUID, notes string) (*models.RefundRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund request already decided").
			WithDetails(map[string]any{"status": request.Status})
	}

	request.Status = enums.RefundRequestStatusRejected
	request.ApproverID = &approverID
	if notes != "" {
		request.Notes = &notes
	}
	if err := s.repo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.RefundRequest, error) {
	return s.repo.ListByStatus(ctx, string(enums.RefundRequestStatusPending))
}
