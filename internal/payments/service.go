package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/internal/customers"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/gateway"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
	"github.com/sanabelapp/sanabel-backend/pkg/settings"
)

// GatewayClient is the slice of the payment provider the issuer needs.
type GatewayClient interface {
	Provider() string
	Currency() string
	CreatePaymentLink(ctx context.Context, input gateway.CreateLinkInput) (*gateway.PaymentLink, error)
	GetPaymentStatus(ctx context.Context, trackID string) (*gateway.VerifiedStatus, error)
}

// IntentResult is a created payment plus, for online methods, the hosted
// checkout link the customer is sent to.
type IntentResult struct {
	Payment     *models.Payment `json:"payment"`
	PaymentLink *string         `json:"payment_link,omitempty"`
}

// Service issues payment intents for invoices and wallet top-ups.
type Service interface {
	IssueOrderIntent(ctx context.Context, invoice *models.Invoice, customerID uuid.UUID, method enums.PaymentMethod) (*IntentResult, error)
	IssueWalletCharge(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (*IntentResult, error)
}

type service struct {
	repo      Repository
	customers customers.Repository
	gateway   GatewayClient
	settings  settings.Accessor
	logger    *logger.Logger
}

// NewService wires the payment intent issuer.
func NewService(repo Repository, customersRepo customers.Repository, client GatewayClient, accessor settings.Accessor, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment service requires a repository")
	}
	if customersRepo == nil {
		return nil, fmt.Errorf("payment service requires a customers repository")
	}
	if client == nil {
		return nil, fmt.Errorf("payment service requires a gateway client")
	}
	if accessor == nil {
		return nil, fmt.Errorf("payment service requires a settings accessor")
	}
	if logg == nil {
		return nil, fmt.Errorf("payment service requires a logger")
	}
	return &service{
		repo:      repo,
		customers: customersRepo,
		gateway:   client,
		settings:  accessor,
		logger:    logg,
	}, nil
}

// IssueOrderIntent creates the pending payment for an invoice. Offline
// methods stop there; online methods additionally obtain a hosted payment
// link. A gateway failure marks the payment failed but leaves the invoice
// pending so a fresh intent can be issued.
func (s *service) IssueOrderIntent(ctx context.Context, invoice *models.Invoice, customerID uuid.UUID, method enums.PaymentMethod) (*IntentResult, error) {
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice is required")
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", method))
	}
	if invoice.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is already settled").
			WithDetails(map[string]any{"invoice_id": invoice.ID, "status": invoice.Status})
	}

	payment := &models.Payment{
		ID:         uuid.New(),
		Type:       enums.PaymentTypeOrder,
		InvoiceID:  &invoice.ID,
		CustomerID: &customerID,
		Gateway:    s.gatewayFor(method),
		Reference:  uuid.NewString(),
		Amount:     invoice.AmountDue,
		Currency:   s.gateway.Currency(),
		Method:     method,
		Status:     enums.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	if !method.RequiresGatewaySession() {
		return &IntentResult{Payment: payment}, nil
	}
	return s.requestLink(ctx, payment)
}

// IssueWalletCharge creates a wallet top-up intent. The bonus is computed now
// and stored on the payment, but nothing is credited until reconciliation
// confirms the charge.
func (s *service) IssueWalletCharge(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal) (*IntentResult, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if amount.LessThan(snap.MinWalletCharge) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("wallet charge must be at least %s", snap.MinWalletCharge.StringFixed(2)))
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	bonus := amount.Mul(snap.WalletChargeGiftRate).Round(2)
	payment := &models.Payment{
		ID:          uuid.New(),
		Type:        enums.PaymentTypeWalletCharge,
		CustomerID:  &customerID,
		Gateway:     s.gateway.Provider(),
		Reference:   uuid.NewString(),
		Amount:      amount,
		Currency:    s.gateway.Currency(),
		BonusAmount: bonus,
		TotalAmount: amount.Add(bonus),
		Method:      enums.PaymentMethodCard,
		Status:      enums.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}
	return s.requestLink(ctx, payment)
}

func (s *service) requestLink(ctx context.Context, payment *models.Payment) (*IntentResult, error) {
	link, err := s.gateway.CreatePaymentLink(ctx, gateway.CreateLinkInput{
		Reference: payment.Reference,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	})
	if err != nil {
		reason := err.Error()
		if _, markErr := s.repo.MarkTerminal(ctx, TerminalUpdate{
			PaymentID:     payment.ID,
			Status:        enums.PaymentStatusFailed,
			FailureReason: &reason,
		}); markErr != nil {
			s.logger.Error(ctx, "failed to mark payment failed after gateway error", markErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "creating payment link")
	}

	payment.TrackID = &link.TrackID
	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, err
	}
	return &IntentResult{Payment: payment, PaymentLink: &link.Link}, nil
}

func (s *service) gatewayFor(method enums.PaymentMethod) string {
	if method.RequiresGatewaySession() {
		return s.gateway.Provider()
	}
	return string(method)
}
