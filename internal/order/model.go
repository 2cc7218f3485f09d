package order

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/loyalty"
	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
	"github.com/vasiliy-maslov/spud-kitchen/internal/pricing"
)

const DefaultPickupTime = "15-20 minutes"

const (
	deliveryLeadTime = 30 * time.Minute
	pickupLeadTime   = 20 * time.Minute
)

// Order is a confirmed quote. It is never modified after it is appended to history.
type Order struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"userId"`
	Lines            []cart.Line       `json:"items"`
	Subtotal         money.Cents       `json:"subtotal"`
	Tax              money.Cents       `json:"tax"`
	DeliveryFee      money.Cents       `json:"deliveryFee"`
	PointsDiscount   money.Cents       `json:"pointsDiscount"`
	PromoDiscount    money.Cents       `json:"promoDiscount"`
	Discount         money.Cents       `json:"discount"`
	Total            money.Cents       `json:"totalPrice"`
	PointsRedeemed   int64             `json:"pointsRedeemed"`
	PointsEarned     int64             `json:"pointsEarned"`
	PromoCode        string            `json:"promoCode,omitempty"`
	OrderType        pricing.OrderType `json:"orderType"`
	DeliveryAddress  string            `json:"deliveryAddress,omitempty"`
	PickupTime       string            `json:"pickupTime,omitempty"`
	ScheduledFor     *time.Time        `json:"scheduledFor,omitempty"`
	EstimatedReadyAt time.Time         `json:"estimatedReadyAt"`
	CreatedAt        time.Time         `json:"date"`
}

// Summary projects the order onto what badge rules look at.
func (o Order) Summary() loyalty.OrderSummary {
	ids := make([]int64, 0, len(o.Lines))
	for _, l := range o.Lines {
		ids = append(ids, l.ItemID)
	}
	return loyalty.OrderSummary{ItemIDs: ids, PointsRedeemed: o.PointsRedeemed}
}

type Fulfillment struct {
	DeliveryAddress string
	PickupTime      string
	ScheduledFor    *time.Time
}

type QuoteRequest struct {
	OrderType      pricing.OrderType
	PromoCode      string
	PointsToRedeem int64
}

type QuoteResult struct {
	pricing.Quote
	AvailablePoints     int64 `json:"availablePoints"`
	MaxRedeemablePoints int64 `json:"maxRedeemablePoints"`
	PointsToEarn        int64 `json:"pointsToEarn"`
	LoyaltyVersion      int64 `json:"loyaltyVersion"`
}

type ConfirmRequest struct {
	QuoteRequest
	Fulfillment
	// ExpectedLoyaltyVersion, when set, must match the stored loyalty version.
	ExpectedLoyaltyVersion *int64
}

type Confirmation struct {
	Order             Order               `json:"order"`
	NewBalance        int64               `json:"newBalance"`
	Badges            []loyalty.BadgeInfo `json:"badges"`
	NewlyEarnedBadges []loyalty.BadgeInfo `json:"newlyEarnedBadges"`
}

type LoyaltySummary struct {
	Points      int64               `json:"spudPoints"`
	Version     int64               `json:"version"`
	Badges      []loyalty.BadgeInfo `json:"badges"`
	Accessories []string            `json:"accessories"`
}

func badgeInfos(ids []loyalty.BadgeID) []loyalty.BadgeInfo {
	out := make([]loyalty.BadgeInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, loyalty.Info(id))
	}
	return out
}
