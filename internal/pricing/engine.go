package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
	"github.com/vasiliy-maslov/spud-kitchen/internal/promo"
)

var (
	ErrInconsistentCartState    = errors.New("cannot price an empty cart")
	ErrRedemptionExceedsBalance = errors.New("points to redeem exceed available balance")
	ErrRedemptionExceedsCap     = errors.New("points to redeem exceed the order subtotal")
	ErrInvalidRedemption        = errors.New("points to redeem cannot be negative")
	ErrInvalidOrderType         = errors.New("unknown order type")
)

type OrderType string

const (
	Delivery OrderType = "delivery"
	Pickup   OrderType = "pickup"
)

func (t OrderType) Valid() bool {
	return t == Delivery || t == Pickup
}

func (t OrderType) String() string {
	return string(t)
}

// PointsPerDollar is the redemption rate: 100 points are worth $1.00, so one point is one cent.
const PointsPerDollar = 100

// Policy holds the restaurant-wide rates.
type Policy struct {
	TaxRatePercent decimal.Decimal
	DeliveryFee    money.Cents
}

func DefaultPolicy() Policy {
	return Policy{
		TaxRatePercent: decimal.NewFromInt(8),
		DeliveryFee:    500,
	}
}

type Context struct {
	Policy
	OrderType OrderType
	// Promo must already be validated as active, nil means no promo.
	Promo           *promo.PromoCode
	PointsToRedeem  int64
	AvailablePoints int64
}

type Quote struct {
	Subtotal       money.Cents `json:"subtotal"`
	Tax            money.Cents `json:"tax"`
	DeliveryFee    money.Cents `json:"deliveryFee"`
	PointsDiscount money.Cents `json:"pointsDiscount"`
	PromoDiscount  money.Cents `json:"promoDiscount"`
	FinalTotal     money.Cents `json:"finalTotal"`
	PointsRedeemed int64       `json:"pointsRedeemed"`
	PromoCode      string      `json:"promoCode,omitempty"`
}

// Discount is the combined points and promo reduction.
func (q Quote) Discount() money.Cents {
	return q.PointsDiscount + q.PromoDiscount
}

// RedemptionCap is the most points an order with this subtotal accepts.
func RedemptionCap(subtotal money.Cents) int64 {
	if subtotal <= 0 {
		return 0
	}
	return int64(subtotal) * PointsPerDollar / 100
}

// MaxRedeemable is min(available, cap).
func MaxRedeemable(subtotal money.Cents, available int64) int64 {
	limit := RedemptionCap(subtotal)
	if available < limit {
		limit = available
	}
	if limit < 0 {
		return 0
	}
	return limit
}

// Compute prices a cart. It has no side effects and is deterministic.
func Compute(c *cart.Cart, ctx Context) (Quote, error) {
	if c == nil || c.IsEmpty() {
		return Quote{}, ErrInconsistentCartState
	}
	if !ctx.OrderType.Valid() {
		return Quote{}, fmt.Errorf("%w: %q", ErrInvalidOrderType, ctx.OrderType)
	}

	q := Quote{Subtotal: c.Subtotal()}

	q.Tax = q.Subtotal.Percent(ctx.TaxRatePercent)

	if ctx.OrderType == Delivery {
		q.DeliveryFee = ctx.DeliveryFee
	}

	switch {
	case ctx.PointsToRedeem < 0:
		return Quote{}, fmt.Errorf("%w: got %d", ErrInvalidRedemption, ctx.PointsToRedeem)
	case ctx.PointsToRedeem > ctx.AvailablePoints:
		return Quote{}, fmt.Errorf("%w: %d requested, %d available", ErrRedemptionExceedsBalance, ctx.PointsToRedeem, ctx.AvailablePoints)
	case ctx.PointsToRedeem > RedemptionCap(q.Subtotal):
		return Quote{}, fmt.Errorf("%w: %d requested, cap is %d", ErrRedemptionExceedsCap, ctx.PointsToRedeem, RedemptionCap(q.Subtotal))
	}
	q.PointsRedeemed = ctx.PointsToRedeem
	q.PointsDiscount = money.Cents(ctx.PointsToRedeem * 100 / PointsPerDollar)

	if ctx.Promo != nil {
		q.PromoDiscount = q.Subtotal.Percent(ctx.Promo.DiscountPercentage)
		q.PromoCode = ctx.Promo.Code
	}

	q.FinalTotal = q.Subtotal + q.Tax + q.DeliveryFee - q.PointsDiscount - q.PromoDiscount
	if q.FinalTotal < 0 {
		q.FinalTotal = 0
	}

	return q, nil
}
