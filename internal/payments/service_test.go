package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/internal/customers"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
	"github.com/sanabelapp/sanabel-backend/pkg/gateway"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
	"github.com/sanabelapp/sanabel-backend/pkg/settings"
)

type fakeGateway struct {
	createCalls int
	failCreate  bool
	lastInput   gateway.CreateLinkInput
	status      *gateway.VerifiedStatus
}

func (f *fakeGateway) Provider() string { return "upay" }
func (f *fakeGateway) Currency() string { return "KWD" }

func (f *fakeGateway) CreatePaymentLink(_ context.Context, input gateway.CreateLinkInput) (*gateway.PaymentLink, error) {
	f.createCalls++
	f.lastInput = input
	if f.failCreate {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway unavailable")
	}
	return &gateway.PaymentLink{
		TrackID: "trk-" + input.Reference[:8],
		Link:    "https://pay.upay.test/" + input.Reference,
	}, nil
}

func (f *fakeGateway) GetPaymentStatus(context.Context, string) (*gateway.VerifiedStatus, error) {
	return f.status, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(&models.Customer{}, &models.Payment{}, &models.Setting{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, gw *fakeGateway) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), customers.NewRepository(db), gw,
		settings.NewAccessor(db), logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedCustomer(t *testing.T, db *gorm.DB) models.Customer {
	t.Helper()
	customer := models.Customer{ID: uuid.New(), Name: "Noor", Phone: "9" + uuid.NewString()[:7]}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func pendingInvoice(amount string) *models.Invoice {
	return &models.Invoice{
		ID:        uuid.New(),
		OrderID:   uuid.New(),
		AmountDue: decimal.RequireFromString(amount),
		Status:    enums.InvoiceStatusPending,
	}
}

func TestIssueOrderIntentCard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, db, gw)
	customer := seedCustomer(t, db)

	result, err := svc.IssueOrderIntent(context.Background(), pendingInvoice("59.00"), customer.ID, enums.PaymentMethodCard)
	if err != nil {
		t.Fatalf("issue intent: %v", err)
	}
	if result.PaymentLink == nil {
		t.Fatal("expected a payment link for card method")
	}
	if gw.createCalls != 1 {
		t.Fatalf("expected 1 gateway call, got %d", gw.createCalls)
	}
	if !gw.lastInput.Amount.Equal(decimal.RequireFromString("59.00")) {
		t.Fatalf("unexpected gateway amount %s", gw.lastInput.Amount)
	}

	var stored models.Payment
	if err := db.First(&stored, "id = ?", result.Payment.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if stored.Status != enums.PaymentStatusPending || stored.TrackID == nil {
		t.Fatalf("unexpected stored payment %+v", stored)
	}
	if stored.Gateway != "upay" || stored.Type != enums.PaymentTypeOrder {
		t.Fatalf("unexpected payment shape %+v", stored)
	}
}

func TestIssueOrderIntentCash(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, db, gw)
	customer := seedCustomer(t, db)

	result, err := svc.IssueOrderIntent(context.Background(), pendingInvoice("12.00"), customer.ID, enums.PaymentMethodCash)
	if err != nil {
		t.Fatalf("issue intent: %v", err)
	}
	if result.PaymentLink != nil {
		t.Fatal("cash intent must not produce a payment link")
	}
	if gw.createCalls != 0 {
		t.Fatalf("cash intent called the gateway %d times", gw.createCalls)
	}
	if result.Payment.Status != enums.PaymentStatusPending {
		t.Fatalf("unexpected status %s", result.Payment.Status)
	}
}

func TestIssueOrderIntentGatewayFailure(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gw := &fakeGateway{failCreate: true}
	svc := newTestService(t, db, gw)
	customer := seedCustomer(t, db)
	invoice := pendingInvoice("30.00")

	_, err := svc.IssueOrderIntent(context.Background(), invoice, customer.ID, enums.PaymentMethodCard)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if !pkgerrors.IsRetryable(err) {
		t.Fatal("gateway failure must be retryable")
	}

	// The failed intent is recorded, and a fresh intent can be issued
	// against the same invoice.
	var failed models.Payment
	if err := db.First(&failed, "invoice_id = ?", invoice.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if failed.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", failed.Status)
	}

	gw.failCreate = false
	if _, err := svc.IssueOrderIntent(context.Background(), invoice, customer.ID, enums.PaymentMethodCard); err != nil {
		t.Fatalf("retry intent: %v", err)
	}
}

func TestIssueOrderIntentSettledInvoice(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})
	customer := seedCustomer(t, db)
	invoice := pendingInvoice("30.00")
	invoice.Status = enums.InvoiceStatusPaid

	_, err := svc.IssueOrderIntent(context.Background(), invoice, customer.ID, enums.PaymentMethodCard)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestIssueWalletCharge(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gw := &fakeGateway{}
	svc := newTestService(t, db, gw)
	customer := seedCustomer(t, db)

	result, err := svc.IssueWalletCharge(context.Background(), customer.ID, decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("issue wallet charge: %v", err)
	}
	payment := result.Payment
	if payment.Type != enums.PaymentTypeWalletCharge || payment.InvoiceID != nil {
		t.Fatalf("unexpected payment shape %+v", payment)
	}
	if !payment.BonusAmount.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected bonus 10.00, got %s", payment.BonusAmount)
	}
	if !payment.TotalAmount.Equal(decimal.RequireFromString("110.00")) {
		t.Fatalf("expected total 110.00, got %s", payment.TotalAmount)
	}
	// The gateway charges the base amount only; the bonus is a local gift.
	if !gw.lastInput.Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("unexpected gateway amount %s", gw.lastInput.Amount)
	}

	// Nothing is credited at intent time.
	var reloaded models.Customer
	if err := db.First(&reloaded, "id = ?", customer.ID).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	if !reloaded.WalletBalance.IsZero() {
		t.Fatalf("wallet credited at intent time: %s", reloaded.WalletBalance)
	}
}

func TestIssueWalletChargeBelowMinimum(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, &fakeGateway{})
	customer := seedCustomer(t, db)

	_, err := svc.IssueWalletCharge(context.Background(), customer.ID, decimal.RequireFromString("4.99"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkTerminalGuard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	trackID := "trk-guard"
	payment := &models.Payment{
		ID:        uuid.New(),
		Type:      enums.PaymentTypeOrder,
		Gateway:   "upay",
		TrackID:   &trackID,
		Reference: uuid.NewString(),
		Amount:    decimal.RequireFromString("30.00"),
		Currency:  "KWD",
		Method:    enums.PaymentMethodCard,
		Status:    enums.PaymentStatusPending,
	}
	if err := repo.Create(context.Background(), payment); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	first, err := repo.MarkTerminal(context.Background(), TerminalUpdate{
		PaymentID: payment.ID,
		Status:    enums.PaymentStatusCompleted,
	})
	if err != nil || !first {
		t.Fatalf("first transition: applied=%v err=%v", first, err)
	}
	second, err := repo.MarkTerminal(context.Background(), TerminalUpdate{
		PaymentID: payment.ID,
		Status:    enums.PaymentStatusFailed,
	})
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if second {
		t.Fatal("terminal payment transitioned twice")
	}

	reloaded, err := repo.FindByGatewayTrackID(context.Background(), "upay", trackID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %s", reloaded.Status)
	}
}
