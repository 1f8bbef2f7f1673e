package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:customers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.Address{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, points int, wallet string) models.Customer {
	t.Helper()
	customer := models.Customer{
		ID:            uuid.New(),
		Name:          "Noor",
		Phone:         "9" + uuid.NewString()[:7],
		Points:        points,
		WalletBalance: decimal.RequireFromString(wallet),
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func TestAddPoints(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	customer := seedCustomer(t, db, 50, "0.00")

	if err := repo.AddPoints(context.Background(), customer.ID, 30); err != nil {
		t.Fatalf("credit points: %v", err)
	}
	if err := repo.AddPoints(context.Background(), customer.ID, -80); err != nil {
		t.Fatalf("debit points: %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Points != 0 {
		t.Fatalf("expected 0 points, got %d", reloaded.Points)
	}
}

func TestAddPointsInsufficientBalance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	customer := seedCustomer(t, db, 15, "0.00")

	err := repo.AddPoints(context.Background(), customer.ID, -20)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Points != 15 {
		t.Fatalf("points mutated by rejected debit, got %d", reloaded.Points)
	}
}

func TestAddWalletBalance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	customer := seedCustomer(t, db, 0, "10.00")

	if err := repo.AddWalletBalance(context.Background(), customer.ID, decimal.RequireFromString("110.00")); err != nil {
		t.Fatalf("credit wallet: %v", err)
	}
	if err := repo.AddWalletBalance(context.Background(), customer.ID, decimal.RequireFromString("-120.00")); err != nil {
		t.Fatalf("debit wallet: %v", err)
	}

	err := repo.AddWalletBalance(context.Background(), customer.ID, decimal.RequireFromString("-0.01"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddPointsUnknownCustomer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)

	err := repo.AddPoints(context.Background(), uuid.New(), 10)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
