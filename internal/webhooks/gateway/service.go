package gatewaywebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/internal/ledger"
	"github.com/sanabelapp/sanabel-backend/internal/orders"
	"github.com/sanabelapp/sanabel-backend/internal/payments"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/gateway"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
	"github.com/sanabelapp/sanabel-backend/pkg/metrics"
	"github.com/sanabelapp/sanabel-backend/pkg/settings"
	"github.com/sanabelapp/sanabel-backend/pkg/types"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notification is the lenient shape of an inbound webhook payload. The result
// field is never trusted; the gateway's status API is the source of truth.
type Notification struct {
	TrackID   string `json:"track_id"`
	Result    string `json:"result"`
	EventType string `json:"event_type"`
	ReceiptID string `json:"receipt_id"`
}

// RedirectView is the read-only status shown after the browser returns from
// the hosted checkout page.
type RedirectView struct {
	TrackID       string               `json:"track_id"`
	PaymentStatus enums.PaymentStatus  `json:"payment_status"`
	InvoiceStatus *enums.InvoiceStatus `json:"invoice_status,omitempty"`
}

// Service reconciles gateway notifications against local payment state.
type Service interface {
	HandleNotification(ctx context.Context, payload json.RawMessage) error
	RedirectView(ctx context.Context, trackID string) (*RedirectView, error)
}

type service struct {
	runner   TxRunner
	events   EventsRepository
	payments payments.Repository
	orders   orders.Repository
	ledger   *ledger.Ledger
	gateway  payments.GatewayClient
	settings settings.Accessor
	metrics  *metrics.WebhookMetrics
	logger   *logger.Logger
	nowFn    func() time.Time
}

// NewService wires the reconciliation engine. metrics may be nil; nowFn may
// be nil, in which case the wall clock is used.
func NewService(
	runner TxRunner,
	events EventsRepository,
	paymentsRepo payments.Repository,
	ordersRepo orders.Repository,
	led *ledger.Ledger,
	client payments.GatewayClient,
	accessor settings.Accessor,
	webhookMetrics *metrics.WebhookMetrics,
	logg *logger.Logger,
	nowFn func() time.Time,
) (Service, error) {
	switch {
	case runner == nil:
		return nil, fmt.Errorf("webhook service requires a transaction runner")
	case events == nil:
		return nil, fmt.Errorf("webhook service requires an events repository")
	case paymentsRepo == nil:
		return nil, fmt.Errorf("webhook service requires a payments repository")
	case ordersRepo == nil:
		return nil, fmt.Errorf("webhook service requires an orders repository")
	case led == nil:
		return nil, fmt.Errorf("webhook service requires a ledger")
	case client == nil:
		return nil, fmt.Errorf("webhook service requires a gateway client")
	case accessor == nil:
		return nil, fmt.Errorf("webhook service requires a settings accessor")
	case logg == nil:
		return nil, fmt.Errorf("webhook service requires a logger")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &service{
		runner:   runner,
		events:   events,
		payments: paymentsRepo,
		orders:   ordersRepo,
		ledger:   led,
		gateway:  client,
		settings: accessor,
		metrics:  webhookMetrics,
		logger:   logg,
		nowFn:    nowFn,
	}, nil
}

// HandleNotification runs the verification protocol for one inbound webhook.
// Every payload is audited before any business logic. The returned error is
// retryable only for transient infrastructure failures; integrity mismatches
// and unknown track ids resolve to an ack so the gateway stops retrying.
func (s *service) HandleNotification(ctx context.Context, payload json.RawMessage) error {
	provider := s.gateway.Provider()
	start := s.nowFn()
	defer func() {
		s.metrics.ObserveDuration(provider, s.nowFn().Sub(start))
	}()
	s.metrics.IncReceived(provider)

	var notification Notification
	if err := json.Unmarshal(payload, &notification); err != nil {
		s.logger.Warn(ctx, "webhook payload is not valid JSON")
		notification = Notification{}
	}

	event := &models.PaymentGatewayEvent{
		Provider:  provider,
		EventType: eventTypeOf(notification),
		Payload:   payload,
	}
	if notification.TrackID != "" {
		event.TrackID = &notification.TrackID
	}
	if notification.ReceiptID != "" {
		event.ReceiptID = &notification.ReceiptID
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.metrics.IncFailure(provider)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording gateway event")
	}

	if notification.TrackID == "" {
		s.logger.Warn(ctx, "webhook carries no track id, audited and ignored")
		return nil
	}
	ctx = s.logger.WithTrackID(ctx, notification.TrackID)

	verified, err := s.gateway.GetPaymentStatus(ctx, notification.TrackID)
	if err != nil {
		s.metrics.IncFailure(provider)
		return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "verifying payment status")
	}

	payment, err := s.payments.FindByGatewayTrackID(ctx, provider, notification.TrackID)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			s.logger.Warn(ctx, "webhook for unknown payment intent, audited and ignored")
			return nil
		}
		return err
	}

	if payment.Status.IsTerminal() {
		s.metrics.IncDuplicate(provider)
		s.logger.Info(ctx, "duplicate webhook for settled payment")
		return nil
	}

	if err := s.verifyIntegrity(payment, verified); err != nil {
		s.metrics.IncMismatch(provider)
		s.logger.Error(ctx, "gateway data mismatch, payment left pending for review", err)
		return err
	}

	switch {
	case verified.IsSuccess:
		return s.settle(ctx, payment, verified, enums.PaymentStatusCompleted)
	case verified.IsFailed:
		return s.settle(ctx, payment, verified, enums.PaymentStatusFailed)
	default:
		s.logger.Info(ctx, "payment not yet final at gateway, leaving pending")
		return nil
	}
}

func (s *service) verifyIntegrity(payment *models.Payment, verified *gateway.VerifiedStatus) error {
	if !verified.Amount.Equal(payment.Amount) {
		return pkgerrors.New(pkgerrors.CodeIntegrity, "verified amount does not match payment").
			WithDetails(map[string]any{
				"expected": payment.Amount.StringFixed(2),
				"verified": verified.Amount.StringFixed(2),
			})
	}
	if verified.Currency != "" && verified.Currency != payment.Currency {
		return pkgerrors.New(pkgerrors.CodeIntegrity, "verified currency does not match payment").
			WithDetails(map[string]any{
				"expected": payment.Currency,
				"verified": verified.Currency,
			})
	}
	if verified.OrderRef != "" && verified.OrderRef != payment.Reference {
		return pkgerrors.New(pkgerrors.CodeIntegrity, "verified order reference does not match payment").
			WithDetails(map[string]any{
				"expected": payment.Reference,
				"verified": verified.OrderRef,
			})
	}
	return nil
}

// settle applies the terminal transition and, on success, the invoice update
// and the one ledger side effect, all in one transaction. The status guard in
// MarkTerminal makes a concurrent duplicate a no-op.
func (s *service) settle(ctx context.Context, payment *models.Payment, verified *gateway.VerifiedStatus, status enums.PaymentStatus) error {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	now := s.nowFn().UTC()

	update := payments.TerminalUpdate{
		PaymentID:    payment.ID,
		Status:       status,
		TranID:       nonEmpty(verified.TranID),
		GatewayPayID: nonEmpty(verified.PaymentID),
		ReceiptID:    nonEmpty(verified.ReceiptID),
	}
	if status == enums.PaymentStatusCompleted {
		update.PaidAt = &now
	} else {
		reason := "declined by gateway"
		update.FailureReason = &reason
	}

	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		txPayments := s.payments.WithTx(tx)
		applied, err := txPayments.MarkTerminal(ctx, update)
		if err != nil {
			return err
		}
		if !applied {
			s.metrics.IncDuplicate(s.gateway.Provider())
			s.logger.Info(ctx, "payment already settled by concurrent delivery")
			return nil
		}
		if status != enums.PaymentStatusCompleted {
			s.logger.Info(ctx, "payment marked failed after gateway verification")
			return nil
		}
		return s.applySuccessEffects(ctx, tx, payment, snap, now)
	})
}

func (s *service) applySuccessEffects(ctx context.Context, tx *gorm.DB, payment *models.Payment, snap settings.Snapshot, now time.Time) error {
	txOrders := s.orders.WithTx(tx)
	txLedger := s.ledger.WithTx(tx)

	switch payment.Type {
	case enums.PaymentTypeOrder:
		if payment.InvoiceID == nil {
			return pkgerrors.New(pkgerrors.CodeIntegrity, "order payment has no invoice")
		}
		invoice, err := txOrders.FindInvoiceByID(ctx, *payment.InvoiceID)
		if err != nil {
			return err
		}
		paid, err := txOrders.MarkInvoicePaid(ctx, invoice.ID, now)
		if err != nil {
			return err
		}
		if !paid {
			s.logger.Info(ctx, "invoice already settled, skipping side effects")
			return nil
		}
		if err := txOrders.UpdateOrderStatus(ctx, invoice.OrderID, enums.OrderStatusProcessing); err != nil {
			return err
		}
		if payment.CustomerID != nil {
			if earned := earnedPoints(invoice.AmountDue, snap.PointsEarnRate); earned > 0 {
				return txLedger.EarnPoints(ctx, *payment.CustomerID, earned,
					snap.OnePointValue, types.OrderRef(invoice.OrderID))
			}
		}
		return nil

	case enums.PaymentTypeWalletCharge:
		if payment.CustomerID == nil {
			return pkgerrors.New(pkgerrors.CodeIntegrity, "wallet charge has no customer")
		}
		ref := types.PaymentRef(payment.ID)
		if err := txLedger.CreditWallet(ctx, *payment.CustomerID, payment.Amount,
			enums.WalletTransactionTypeTopUp, ref); err != nil {
			return err
		}
		if payment.BonusAmount.IsPositive() {
			return txLedger.CreditWallet(ctx, *payment.CustomerID, payment.BonusAmount,
				enums.WalletTransactionTypeBonus, ref)
		}
		return nil

	default:
		return pkgerrors.New(pkgerrors.CodeIntegrity,
			fmt.Sprintf("unknown payment type %q", payment.Type))
	}
}

// RedirectView returns the current local status for the browser return page.
// It performs no mutation whatever the query claims.
func (s *service) RedirectView(ctx context.Context, trackID string) (*RedirectView, error) {
	if trackID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "track_id is required")
	}
	ctx = s.logger.WithTrackID(ctx, trackID)
	s.logger.Info(ctx, "payment redirect visit")

	payment, err := s.payments.FindByGatewayTrackID(ctx, s.gateway.Provider(), trackID)
	if err != nil {
		return nil, err
	}

	view := &RedirectView{TrackID: trackID, PaymentStatus: payment.Status}
	if payment.InvoiceID != nil {
		invoice, err := s.orders.FindInvoiceByID(ctx, *payment.InvoiceID)
		if err != nil {
			return nil, err
		}
		view.InvoiceStatus = &invoice.Status
	}
	return view, nil
}

func eventTypeOf(notification Notification) string {
	if notification.EventType != "" {
		return notification.EventType
	}
	return "notification"
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// earnedPoints converts the settled amount to whole loyalty points.
func earnedPoints(amount, rate decimal.Decimal) int {
	return int(amount.Mul(rate).IntPart())
}
