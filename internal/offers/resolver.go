package offers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanabelapp/sanabel-backend/internal/catalog"
	"github.com/sanabelapp/sanabel-backend/pkg/db/models"
	"github.com/sanabelapp/sanabel-backend/pkg/enums"
	pkgerrors "github.com/sanabelapp/sanabel-backend/pkg/errors"
)

// Selection is one requested offer redemption.
type Selection struct {
	OfferID  uuid.UUID `json:"offer_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// RewardItem is a gifted line expanded from a products-type offer, priced at
// the live catalog price for margin reporting but not charged.
type RewardItem struct {
	VariantID uuid.UUID
	SKU       string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Resolution is the outcome of expanding a set of offer selections.
type Resolution struct {
	RewardItems []RewardItem
	Discount    decimal.Decimal
	Redeemed    []models.RedeemedOffer
}

// Resolver validates offer selections against the live catalog and expands
// them into reward lines and a discount. It never mutates stock; the order
// commit transaction re-checks and decrements under its own guard.
type Resolver struct {
	repo    Repository
	catalog catalog.Repository
	nowFn   func() time.Time
}

// NewResolver wires the offer resolver. nowFn may be nil, in which case the
// wall clock is used.
func NewResolver(repo Repository, catalogRepo catalog.Repository, nowFn func() time.Time) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("offer resolver requires a repository")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("offer resolver requires a catalog repository")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Resolver{repo: repo, catalog: catalogRepo, nowFn: nowFn}, nil
}

// Resolve expands the selections against the given order subtotal. The
// discount never exceeds the subtotal.
func (r *Resolver) Resolve(ctx context.Context, selections []Selection, subtotal decimal.Decimal) (*Resolution, error) {
	resolution := &Resolution{Discount: decimal.Zero}
	if len(selections) == 0 {
		return resolution, nil
	}

	ids := make([]uuid.UUID, 0, len(selections))
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer quantity must be positive")
		}
		ids = append(ids, sel.OfferID)
	}

	byID, err := r.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := r.nowFn()
	for _, sel := range selections {
		offer, ok := byID[sel.OfferID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found").
				WithDetails(map[string]any{"offer_id": sel.OfferID})
		}
		if !offer.RedeemableAt(now) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "offer is not redeemable").
				WithDetails(map[string]any{"offer_id": offer.ID, "title": offer.Title})
		}

		if err := r.checkConditionStock(ctx, offer, sel.Quantity); err != nil {
			return nil, err
		}

		var discount decimal.Decimal
		switch offer.RewardType {
		case enums.OfferRewardTypeProducts:
			rewards, err := r.expandRewards(ctx, offer, sel.Quantity)
			if err != nil {
				return nil, err
			}
			resolution.RewardItems = append(resolution.RewardItems, rewards...)
		case enums.OfferRewardTypeDiscount:
			discount, err = offerDiscount(offer, sel.Quantity, subtotal)
			if err != nil {
				return nil, err
			}
			resolution.Discount = resolution.Discount.Add(discount)
		default:
			return nil, pkgerrors.New(pkgerrors.CodeInternal,
				fmt.Sprintf("unknown offer reward type %q", offer.RewardType))
		}

		resolution.Redeemed = append(resolution.Redeemed, models.RedeemedOffer{
			OfferID:  offer.ID,
			Quantity: sel.Quantity,
			Discount: discount,
		})
	}

	// A stack of discount offers can exceed what the order is worth.
	if resolution.Discount.GreaterThan(subtotal) {
		resolution.Discount = subtotal
	}
	return resolution, nil
}

func (r *Resolver) checkConditionStock(ctx context.Context, offer models.Offer, quantity int) error {
	for _, cond := range offer.Conditions {
		required := cond.Quantity * quantity
		variant, err := r.catalog.FindVariantByID(ctx, cond.VariantID)
		if err != nil {
			return err
		}
		if !variant.IsActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer condition variant is inactive").
				WithDetails(map[string]any{"offer_id": offer.ID, "sku": variant.SKU})
		}
		if variant.Stock < required {
			return catalog.InsufficientStock(variant.SKU, variant.Stock, required)
		}
	}
	return nil
}

func (r *Resolver) expandRewards(ctx context.Context, offer models.Offer, quantity int) ([]RewardItem, error) {
	if len(offer.Rewards) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products offer has no reward lines").
			WithDetails(map[string]any{"offer_id": offer.ID})
	}

	items := make([]RewardItem, 0, len(offer.Rewards))
	for _, reward := range offer.Rewards {
		required := reward.Quantity * quantity
		variant, err := r.catalog.FindVariantByID(ctx, reward.VariantID)
		if err != nil {
			return nil, err
		}
		if variant.Stock < required {
			return nil, catalog.InsufficientStock(variant.SKU, variant.Stock, required)
		}
		items = append(items, RewardItem{
			VariantID: variant.ID,
			SKU:       variant.SKU,
			Quantity:  required,
			UnitPrice: variant.Price,
		})
	}
	return items, nil
}

func offerDiscount(offer models.Offer, quantity int, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if offer.DiscountType == nil || offer.DiscountValue == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal, "discount offer missing discount fields").
			WithDetails(map[string]any{"offer_id": offer.ID})
	}

	var discount decimal.Decimal
	switch *offer.DiscountType {
	case enums.OfferDiscountTypePercentage:
		rate := offer.DiscountValue.Div(decimal.NewFromInt(100))
		discount = subtotal.Mul(rate).Round(2)
	case enums.OfferDiscountTypeFixed:
		discount = offer.DiscountValue.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("unknown discount type %q", *offer.DiscountType))
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount, nil
}
