package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/internal/catalog"
	"github.com/sanabelapp/sanabel-backend/internal/customers"
	"github.com/sanabelapp/sanabel-backend/internal/ledger"
	"github.com/sanabelapp/sanabel-backend/internal/offers"
	"github.com/sanabelapp/sanabel-backend/internal/payments"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
	"github.com/sanabelapp/sanabel-backend/pkg/settings"
	"github.com/sanabelapp/sanabel-backend/pkg/types"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ItemInput is one manually selected line.
type ItemInput struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the validated order composition request.
type CreateOrderInput struct {
	CustomerID    uuid.UUID           `json:"customer_id" validate:"required"`
	AddressID     *uuid.UUID          `json:"address_id"`
	Items         []ItemInput         `json:"items" validate:"dive"`
	Offers        []offers.Selection  `json:"offers" validate:"dive"`
	UsedPoints    int                 `json:"used_points" validate:"gte=0"`
	DeliveryType  enums.DeliveryType  `json:"delivery_type" validate:"required"`
	PaymentMethod enums.PaymentMethod `json:"payment_method" validate:"required"`
}

// CreateOrderResult is the committed order plus, for online methods, the
// hosted checkout link.
type CreateOrderResult struct {
	Order       *models.Order `json:"order"`
	PaymentLink *string       `json:"payment_link,omitempty"`
}

// Service composes, prices and commits orders.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
}

type service struct {
	runner    TxRunner
	repo      Repository
	catalog   catalog.Repository
	resolver  *offers.Resolver
	customers customers.Repository
	ledger    *ledger.Ledger
	payments  payments.Service
	settings  settings.Accessor
	logger    *logger.Logger
	nowFn     func() time.Time
}

// NewService wires the order pricing engine. nowFn may be nil, in which case
// the wall clock is used.
func NewService(
	runner TxRunner,
	repo Repository,
	catalogRepo catalog.Repository,
	resolver *offers.Resolver,
	customersRepo customers.Repository,
	led *ledger.Ledger,
	paymentsSvc payments.Service,
	accessor settings.Accessor,
	logg *logger.Logger,
	nowFn func() time.Time,
) (Service, error) {
	switch {
	case runner == nil:
		return nil, fmt.Errorf("order service requires a transaction runner")
	case repo == nil:
		return nil, fmt.Errorf("order service requires a repository")
	case catalogRepo == nil:
		return nil, fmt.Errorf("order service requires a catalog repository")
	case resolver == nil:
		return nil, fmt.Errorf("order service requires an offer resolver")
	case customersRepo == nil:
		return nil, fmt.Errorf("order service requires a customers repository")
	case led == nil:
		return nil, fmt.Errorf("order service requires a ledger")
	case paymentsSvc == nil:
		return nil, fmt.Errorf("order service requires a payments service")
	case accessor == nil:
		return nil, fmt.Errorf("order service requires a settings accessor")
	case logg == nil:
		return nil, fmt.Errorf("order service requires a logger")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &service{
		runner:    runner,
		repo:      repo,
		catalog:   catalogRepo,
		resolver:  resolver,
		customers: customersRepo,
		ledger:    led,
		payments:  paymentsSvc,
		settings:  accessor,
		logger:    logg,
		nowFn:     nowFn,
	}, nil
}

type pricedLine struct {
	variantID uuid.UUID
	sku       string
	quantity  int
	unitPrice decimal.Decimal
	total     decimal.Decimal
	isOffer   bool
}

// CreateOrder validates, prices and commits an order. Items, invoice, stock
// decrements and the points debit all land in one transaction; any race lost
// on stock or points rolls back everything.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAddress(ctx, input, customer.ID); err != nil {
		return nil, err
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	manualLines, subtotal, err := s.priceManualItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	resolution, err := s.resolver.Resolve(ctx, input.Offers, subtotal)
	if err != nil {
		return nil, err
	}

	lines := manualLines
	for _, reward := range resolution.RewardItems {
		lines = append(lines, pricedLine{
			variantID: reward.VariantID,
			sku:       reward.SKU,
			quantity:  reward.Quantity,
			unitPrice: reward.UnitPrice,
			total:     reward.UnitPrice.Mul(decimal.NewFromInt(int64(reward.Quantity))).Round(2),
			isOffer:   true,
		})
	}

	tax := subtotal.Mul(snap.TaxRate).Round(2)
	deliveryFee := decimal.Zero
	if input.DeliveryType == enums.DeliveryTypeDelivery && subtotal.LessThan(snap.FreeDeliveryThreshold) {
		deliveryFee = snap.DeliveryFee
	}

	// Discounts can only eat what the order is worth; amount due never
	// goes negative.
	basePayable := subtotal.Add(tax).Add(deliveryFee).Sub(resolution.Discount)
	pointsDiscount := decimal.Zero
	if input.UsedPoints > 0 {
		pointsDiscount = snap.OnePointValue.Mul(decimal.NewFromInt(int64(input.UsedPoints))).Round(2)
		if pointsDiscount.GreaterThan(basePayable) {
			pointsDiscount = basePayable
		}
	}
	amountDue := basePayable.Sub(pointsDiscount)
	if amountDue.IsNegative() {
		amountDue = decimal.Zero
	}

	now := s.nowFn().UTC()
	order := &models.Order{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		AddressID:      input.AddressID,
		DeliveryType:   input.DeliveryType,
		PaymentMethod:  input.PaymentMethod,
		Status:         enums.OrderStatusPending,
		TotalAmount:    amountDue,
		RedeemedOffers: resolution.Redeemed,
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			VariantID:  line.variantID,
			SKU:        line.sku,
			Quantity:   line.quantity,
			UnitPrice:  line.unitPrice,
			TotalPrice: line.total,
			IsOffer:    line.isOffer,
		})
	}
	order.Invoice = &models.Invoice{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DeliveryFee:    deliveryFee,
		OfferDiscount:  resolution.Discount,
		UsedPoints:     input.UsedPoints,
		PointsDiscount: pointsDiscount,
		TotalDiscount:  resolution.Discount.Add(pointsDiscount),
		AmountDue:      amountDue,
		Status:         enums.InvoiceStatusPending,
	}
	if input.DeliveryType == enums.DeliveryTypeDelivery {
		order.Delivery = &models.Delivery{AddressID: *input.AddressID}
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txCatalog := s.catalog.WithTx(tx)
		txLedger := s.ledger.WithTx(tx)

		if err := txRepo.Create(ctx, order); err != nil {
			return err
		}
		for _, line := range lines {
			if err := txCatalog.DecrementStock(ctx, line.variantID, line.quantity); err != nil {
				return err
			}
		}
		if input.UsedPoints > 0 {
			if _, err := txLedger.DebitPoints(ctx, customer.ID, input.UsedPoints,
				snap.OnePointValue, types.OrderRef(order.ID)); err != nil {
				return err
			}
		}
		if input.PaymentMethod == enums.PaymentMethodWallet {
			return s.settleFromWallet(ctx, tx, order, amountDue, snap, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithOrderID(ctx, order.ID.String())
	s.logger.Info(ctx, "order committed")

	result := &CreateOrderResult{Order: order}
	if input.PaymentMethod == enums.PaymentMethodWallet {
		return s.reloadIntoResult(ctx, result)
	}

	intent, err := s.payments.IssueOrderIntent(ctx, order.Invoice, customer.ID, input.PaymentMethod)
	if err != nil {
		// The order and invoice stay valid; a new intent can be issued
		// against the same invoice.
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr.WithDetails(map[string]any{"order_id": order.ID})
		}
		return nil, err
	}
	result.PaymentLink = intent.PaymentLink
	return s.reloadIntoResult(ctx, result)
}

// settleFromWallet debits the wallet and settles the invoice inside the order
// transaction. Wallet orders never touch the gateway, so earned points are
// credited here rather than at reconciliation.
func (s *service) settleFromWallet(ctx context.Context, tx *gorm.DB, order *models.Order, amountDue decimal.Decimal, snap settings.Snapshot, now time.Time) error {
	txRepo := s.repo.WithTx(tx)
	txLedger := s.ledger.WithTx(tx)

	if amountDue.IsPositive() {
		if err := txLedger.DebitWallet(ctx, order.CustomerID, amountDue, types.OrderRef(order.ID)); err != nil {
			return err
		}
	}
	paid, err := txRepo.MarkInvoicePaid(ctx, order.Invoice.ID, now)
	if err != nil {
		return err
	}
	if !paid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice already settled")
	}
	if err := txRepo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusProcessing); err != nil {
		return err
	}

	payment := &models.Payment{
		Type:       enums.PaymentTypeOrder,
		InvoiceID:  &order.Invoice.ID,
		CustomerID: &order.CustomerID,
		Gateway:    string(enums.PaymentMethodWallet),
		Reference:  uuid.NewString(),
		Amount:     amountDue,
		Method:     enums.PaymentMethodWallet,
		Status:     enums.PaymentStatusCompleted,
		PaidAt:     &now,
	}
	if err := tx.WithContext(ctx).Create(payment).Error; err != nil {
		return err
	}

	if earned := earnedPoints(amountDue, snap.PointsEarnRate); earned > 0 {
		return txLedger.EarnPoints(ctx, order.CustomerID, earned, snap.OnePointValue, types.OrderRef(order.ID))
	}
	return nil
}

func (s *service) reloadIntoResult(ctx context.Context, result *CreateOrderResult) (*CreateOrderResult, error) {
	reloaded, err := s.repo.FindByID(ctx, result.Order.ID)
	if err != nil {
		return nil, err
	}
	result.Order = reloaded
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) priceManualItems(ctx context.Context, items []ItemInput) ([]pricedLine, decimal.Decimal, error) {
	subtotal := decimal.Zero
	if len(items) == 0 {
		return nil, subtotal, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}
	variants, err := s.catalog.FindVariantsByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	lines := make([]pricedLine, 0, len(items))
	for _, item := range items {
		variant, ok := variants[item.VariantID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
				WithDetails(map[string]any{"variant_id": item.VariantID})
		}
		if !variant.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "product variant is inactive").
				WithDetails(map[string]any{"sku": variant.SKU})
		}
		if variant.Stock < item.Quantity {
			return nil, decimal.Zero, catalog.InsufficientStock(variant.SKU, variant.Stock, item.Quantity)
		}
		total := variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		lines = append(lines, pricedLine{
			variantID: variant.ID,
			sku:       variant.SKU,
			quantity:  item.Quantity,
			unitPrice: variant.Price,
			total:     total,
		})
		subtotal = subtotal.Add(total)
	}
	return lines, subtotal, nil
}

func (s *service) checkAddress(ctx context.Context, input CreateOrderInput, customerID uuid.UUID) error {
	if input.DeliveryType != enums.DeliveryTypeDelivery {
		return nil
	}
	if input.AddressID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery orders require an address")
	}
	address, err := s.customers.FindAddressByID(ctx, *input.AddressID)
	if err != nil {
		return err
	}
	if address.CustomerID != customerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "address does not belong to customer")
	}
	return nil
}

func validateInput(input CreateOrderInput) error {
	if len(input.Items) == 0 && len(input.Offers) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item or offer")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if input.UsedPoints < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "used points cannot be negative")
	}
	if !input.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown delivery type %q", input.DeliveryType))
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	return nil
}

// earnedPoints converts the settled amount to whole loyalty points.
func earnedPoints(amount, rate decimal.Decimal) int {
	return int(amount.Mul(rate).IntPart())
}
