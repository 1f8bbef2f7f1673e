package offers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sanabelapp/sanabel-backend/internal/catalog"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:offers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Charity{},
		&models.Offer{},
		&models.OfferCondition{},
		&models.OfferReward{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestResolver(t *testing.T, db *gorm.DB) *Resolver {
	t.Helper()
	resolver, err := NewResolver(NewRepository(db), catalog.NewRepository(db), func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return resolver
}

func seedVariant(t *testing.T, db *gorm.DB, sku string, price string, stock int) models.ProductVariant {
	t.Helper()
	product := models.Product{ID: uuid.New(), Name: "Dates Box", IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		SKU:       sku,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		IsActive:  true,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

func seedOffer(t *testing.T, db *gorm.DB, offer models.Offer) models.Offer {
	t.Helper()
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	if offer.Title == "" {
		offer.Title = "Ramadan Bundle"
	}
	if offer.Type == "" {
		offer.Type = enums.OfferTypeRetail
	}
	if offer.StartsAt.IsZero() {
		offer.StartsAt = testNow.Add(-24 * time.Hour)
	}
	if offer.EndsAt.IsZero() {
		offer.EndsAt = testNow.Add(24 * time.Hour)
	}
	if err := db.Create(&offer).Error; err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	return offer
}

func TestResolveProductsOffer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gift := seedVariant(t, db, "DATES-250G", "6.00", 10)
	offer := seedOffer(t, db, models.Offer{
		RewardType: enums.OfferRewardTypeProducts,
		IsActive:   true,
		Rewards:    []models.OfferReward{{VariantID: gift.ID, Quantity: 2}},
	})

	resolution, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: offer.ID, Quantity: 3}}, decimal.RequireFromString("40.00"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolution.RewardItems) != 1 {
		t.Fatalf("expected 1 reward line, got %d", len(resolution.RewardItems))
	}
	item := resolution.RewardItems[0]
	if item.SKU != "DATES-250G" || item.Quantity != 6 {
		t.Fatalf("unexpected reward line %+v", item)
	}
	if !item.UnitPrice.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("unexpected reward unit price %s", item.UnitPrice)
	}
	if !resolution.Discount.IsZero() {
		t.Fatalf("products offer should carry no discount, got %s", resolution.Discount)
	}
	if len(resolution.Redeemed) != 1 || resolution.Redeemed[0].Quantity != 3 {
		t.Fatalf("unexpected redemption snapshot %+v", resolution.Redeemed)
	}
}

func TestResolveRejectsRewardBeyondStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	gift := seedVariant(t, db, "DATES-250G", "6.00", 5)
	offer := seedOffer(t, db, models.Offer{
		RewardType: enums.OfferRewardTypeProducts,
		IsActive:   true,
		Rewards:    []models.OfferReward{{VariantID: gift.ID, Quantity: 2}},
	})

	_, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: offer.ID, Quantity: 3}}, decimal.RequireFromString("40.00"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	details, ok := appErr.Details().(map[string]any)
	if !ok || details["sku"] != "DATES-250G" || details["available"] != 5 {
		t.Fatalf("unexpected details %#v", appErr.Details())
	}
}

func TestResolvePercentageDiscount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	discountType := enums.OfferDiscountTypePercentage
	discountValue := decimal.RequireFromString("10")
	offer := seedOffer(t, db, models.Offer{
		RewardType:    enums.OfferRewardTypeDiscount,
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
		IsActive:      true,
	})

	resolution, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: offer.ID, Quantity: 1}}, decimal.RequireFromString("50.00"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolution.Discount.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected 5.00 discount, got %s", resolution.Discount)
	}
}

func TestResolveFixedDiscountCappedAtSubtotal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	discountType := enums.OfferDiscountTypeFixed
	discountValue := decimal.RequireFromString("30.00")
	offer := seedOffer(t, db, models.Offer{
		RewardType:    enums.OfferRewardTypeDiscount,
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
		IsActive:      true,
	})

	resolution, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: offer.ID, Quantity: 2}}, decimal.RequireFromString("45.00"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolution.Discount.Equal(decimal.RequireFromString("45.00")) {
		t.Fatalf("expected discount capped at 45.00, got %s", resolution.Discount)
	}
}

func TestResolveRejectsExpiredOffer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	discountType := enums.OfferDiscountTypeFixed
	discountValue := decimal.RequireFromString("5.00")
	offer := seedOffer(t, db, models.Offer{
		RewardType:    enums.OfferRewardTypeDiscount,
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
		IsActive:      true,
		StartsAt:      testNow.Add(-48 * time.Hour),
		EndsAt:        testNow.Add(-24 * time.Hour),
	})

	_, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: offer.ID, Quantity: 1}}, decimal.RequireFromString("50.00"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestResolveRejectsCharityOfferWithoutCharity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	discountType := enums.OfferDiscountTypeFixed
	discountValue := decimal.RequireFromString("5.00")
	offer := seedOffer(t, db, models.Offer{
		Type:          enums.OfferTypeCharity,
		RewardType:    enums.OfferRewardTypeDiscount,
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
		IsActive:      true,
	})

	_, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: offer.ID, Quantity: 1}}, decimal.RequireFromString("50.00"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestResolveChecksConditionStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	condition := seedVariant(t, db, "COFFEE-1KG", "8.00", 2)
	discountType := enums.OfferDiscountTypeFixed
	discountValue := decimal.RequireFromString("5.00")
	offer := seedOffer(t, db, models.Offer{
		RewardType:    enums.OfferRewardTypeDiscount,
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
		IsActive:      true,
		Conditions:    []models.OfferCondition{{VariantID: condition.ID, Quantity: 3}},
	})

	_, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: offer.ID, Quantity: 1}}, decimal.RequireFromString("50.00"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestResolveUnknownOffer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	_, err := newTestResolver(t, db).Resolve(context.Background(),
		[]Selection{{OfferID: uuid.New(), Quantity: 1}}, decimal.RequireFromString("50.00"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
