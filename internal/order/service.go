package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/loyalty"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/pricing"
	"github.com/vasiliy-maslov/spud-kitchen/internal/promo"
)

var (
	ErrMissingDeliveryAddress = errors.New("delivery orders require an address")
	ErrScheduleInPast         = errors.New("scheduled time is in the past")
)

// MaxLeaderboardSize caps the number of standings a single request may ask for.
const MaxLeaderboardSize = 100

type PromoFinder interface {
	FindActive(ctx context.Context, code string) (promo.PromoCode, error)
}

type MenuLister interface {
	ListItems(ctx context.Context) ([]menu.MenuItem, error)
}

type Config struct {
	Policy                pricing.Policy
	CompletionistCategory string
	LeaderboardSize       int
}

type Service interface {
	Quote(ctx context.Context, userID uuid.UUID, req QuoteRequest) (QuoteResult, error)
	Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (Confirmation, error)
	History(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (Order, error)
	Reorder(ctx context.Context, userID, orderID uuid.UUID) (*cart.Cart, error)
	Loyalty(ctx context.Context, userID uuid.UUID) (LoyaltySummary, error)
	Leaderboard(ctx context.Context, limit int) ([]loyalty.Standing, error)
	AdjustPoints(ctx context.Context, userID uuid.UUID, points int64) (LoyaltySummary, error)
}

type service struct {
	store     Store
	carts     cart.Service
	promos    PromoFinder
	menu      MenuLister
	evaluator *loyalty.Evaluator
	cfg       Config

	now   func() time.Time
	newID func() (uuid.UUID, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithIDGenerator(gen func() (uuid.UUID, error)) Option {
	return func(s *service) { s.newID = gen }
}

func NewService(store Store, carts cart.Service, promos PromoFinder, menuItems MenuLister, cfg Config, opts ...Option) Service {
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 10
	}
	cfg.LeaderboardSize = min(cfg.LeaderboardSize, MaxLeaderboardSize)

	s := &service{
		store:     store,
		carts:     carts,
		promos:    promos,
		menu:      menuItems,
		evaluator: loyalty.DefaultEvaluator(cfg.CompletionistCategory),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewV4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func persistence(op string, err error) error {
	if errors.Is(err, ErrStaleLoyaltyState) {
		return ErrStaleLoyaltyState
	}
	return &PersistenceError{Op: op, Err: err}
}

func (s *service) resolvePromo(ctx context.Context, code string) (*promo.PromoCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, nil
	}
	p, err := s.promos.FindActive(ctx, code)
	if err != nil {
		if errors.Is(err, promo.ErrInvalidPromo) {
			return nil, err
		}
		return nil, persistence("load promo", err)
	}
	return &p, nil
}

func (s *service) pricingContext(req QuoteRequest, p *promo.PromoCode, available int64) pricing.Context {
	return pricing.Context{
		Policy:          s.cfg.Policy,
		OrderType:       req.OrderType,
		Promo:           p,
		PointsToRedeem:  req.PointsToRedeem,
		AvailablePoints: available,
	}
}

// loadCart returns the user's cart, rejecting an empty one before any pricing happens.
func (s *service) loadCart(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, persistence("load cart", err)
	}
	if c.IsEmpty() {
		return nil, pricing.ErrInconsistentCartState
	}
	return c, nil
}

func (s *service) Quote(ctx context.Context, userID uuid.UUID, req QuoteRequest) (QuoteResult, error) {
	c, err := s.loadCart(ctx, userID)
	if err != nil {
		return QuoteResult{}, err
	}

	p, err := s.resolvePromo(ctx, req.PromoCode)
	if err != nil {
		return QuoteResult{}, err
	}

	state, err := s.store.LoyaltyState(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to load loyalty state")
		return QuoteResult{}, persistence("load loyalty state", err)
	}

	q, err := pricing.Compute(c, s.pricingContext(req, p, state.Points))
	if err != nil {
		return QuoteResult{}, err
	}

	return QuoteResult{
		Quote:               q,
		AvailablePoints:     state.Points,
		MaxRedeemablePoints: pricing.MaxRedeemable(q.Subtotal, state.Points),
		PointsToEarn:        loyalty.PointsEarned(q.Subtotal),
		LoyaltyVersion:      state.Version,
	}, nil
}

func (s *service) validateFulfillment(orderType pricing.OrderType, f Fulfillment, now time.Time) (Fulfillment, error) {
	if !orderType.Valid() {
		return Fulfillment{}, fmt.Errorf("%w: %q", pricing.ErrInvalidOrderType, orderType)
	}

	out := Fulfillment{ScheduledFor: f.ScheduledFor}
	if out.ScheduledFor != nil {
		if out.ScheduledFor.Before(now) {
			return Fulfillment{}, ErrScheduleInPast
		}
		t := out.ScheduledFor.UTC()
		out.ScheduledFor = &t
	}

	switch orderType {
	case pricing.Delivery:
		out.DeliveryAddress = strings.TrimSpace(f.DeliveryAddress)
		if out.DeliveryAddress == "" {
			return Fulfillment{}, ErrMissingDeliveryAddress
		}
	case pricing.Pickup:
		if out.ScheduledFor == nil {
			out.PickupTime = strings.TrimSpace(f.PickupTime)
			if out.PickupTime == "" {
				out.PickupTime = DefaultPickupTime
			}
		}
	}
	return out, nil
}

func estimatedReadyAt(orderType pricing.OrderType, f Fulfillment, now time.Time) time.Time {
	if f.ScheduledFor != nil {
		return *f.ScheduledFor
	}
	if orderType == pricing.Delivery {
		return now.Add(deliveryLeadTime)
	}
	return now.Add(pickupLeadTime)
}

func (s *service) Confirm(ctx context.Context, userID uuid.UUID, req ConfirmRequest) (Confirmation, error) {
	now := s.now()

	fulfillment, err := s.validateFulfillment(req.OrderType, req.Fulfillment, now)
	if err != nil {
		return Confirmation{}, err
	}

	c, err := s.loadCart(ctx, userID)
	if err != nil {
		return Confirmation{}, err
	}

	p, err := s.resolvePromo(ctx, req.PromoCode)
	if err != nil {
		return Confirmation{}, err
	}

	menuItems, err := s.menu.ListItems(ctx)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to load menu for badge rules")
		return Confirmation{}, persistence("load menu", err)
	}

	orderID, err := s.newID()
	if err != nil {
		return Confirmation{}, fmt.Errorf("service: failed to generate order id: %w", err)
	}

	draft := confirmDraft{
		orderID:     orderID,
		userID:      userID,
		cart:        c,
		promo:       p,
		menu:        menuItems,
		req:         req,
		fulfillment: fulfillment,
		now:         now,
	}

	var (
		result Confirmation
		newly  []loyalty.BadgeID
		fnErr  error
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		result, newly, fnErr = s.confirmInTx(ctx, tx, draft)
		return fnErr
	})
	if err != nil {
		if fnErr == nil {
			err = persistence("commit", err)
		}
		if errors.Is(err, ErrStaleLoyaltyState) {
			log.Warn().Stringer("user_id", userID).Msg("service: order confirmation rejected, loyalty state is stale")
		} else {
			log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to confirm order")
		}
		return Confirmation{}, err
	}

	// убираем только строки заказа
	if _, err := s.carts.RemoveLines(ctx, userID, result.Order.Lines); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Stringer("order_id", result.Order.ID).Msg("service: order confirmed but cart lines were not removed")
	}

	for _, b := range newly {
		log.Info().Stringer("user_id", userID).Str("badge", string(b)).Msg("service: badge earned")
	}
	log.Info().
		Stringer("order_id", result.Order.ID).
		Stringer("user_id", userID).
		Stringer("total", result.Order.Total).
		Int64("new_balance", result.NewBalance).
		Msg("service: order confirmed")

	return result, nil
}

type confirmDraft struct {
	orderID     uuid.UUID
	userID      uuid.UUID
	cart        *cart.Cart
	promo       *promo.PromoCode
	menu        []menu.MenuItem
	req         ConfirmRequest
	fulfillment Fulfillment
	now         time.Time
}

// confirmInTx re-prices the cart against the balance read inside the
// transaction, appends the order and saves the settled loyalty state.
func (s *service) confirmInTx(ctx context.Context, tx Tx, d confirmDraft) (Confirmation, []loyalty.BadgeID, error) {
	state, err := tx.LoadLoyaltyState(ctx, d.userID)
	if err != nil {
		return Confirmation{}, nil, persistence("load loyalty state", err)
	}
	if d.req.ExpectedLoyaltyVersion != nil && *d.req.ExpectedLoyaltyVersion != state.Version {
		return Confirmation{}, nil, ErrStaleLoyaltyState
	}

	q, err := pricing.Compute(d.cart, s.pricingContext(d.req.QuoteRequest, d.promo, state.Points))
	if err != nil {
		return Confirmation{}, nil, err
	}

	settlement, err := loyalty.Settle(state.Points, q.Subtotal, q.PointsRedeemed)
	if err != nil {
		return Confirmation{}, nil, err
	}

	history, err := tx.LoadOrderHistory(ctx, d.userID)
	if err != nil {
		return Confirmation{}, nil, persistence("load order history", err)
	}

	o := Order{
		ID:               d.orderID,
		UserID:           d.userID,
		Lines:            d.cart.Lines(),
		Subtotal:         q.Subtotal,
		Tax:              q.Tax,
		DeliveryFee:      q.DeliveryFee,
		PointsDiscount:   q.PointsDiscount,
		PromoDiscount:    q.PromoDiscount,
		Discount:         q.Discount(),
		Total:            q.FinalTotal,
		PointsRedeemed:   q.PointsRedeemed,
		PointsEarned:     settlement.PointsEarned,
		PromoCode:        q.PromoCode,
		OrderType:        d.req.OrderType,
		DeliveryAddress:  d.fulfillment.DeliveryAddress,
		PickupTime:       d.fulfillment.PickupTime,
		ScheduledFor:     d.fulfillment.ScheduledFor,
		EstimatedReadyAt: estimatedReadyAt(d.req.OrderType, d.fulfillment, d.now),
		CreatedAt:        d.now,
	}

	if err := tx.AppendOrder(ctx, d.userID, o); err != nil {
		return Confirmation{}, nil, persistence("append order", err)
	}

	summaries := make([]loyalty.OrderSummary, 0, len(history)+1)
	summaries = append(summaries, o.Summary())
	for _, h := range history {
		summaries = append(summaries, h.Summary())
	}

	evaluation := s.evaluator.Evaluate(loyalty.Evaluation{
		History: summaries,
		Current: o.Summary(),
		Menu:    d.menu,
		Held:    state.Badges,
	})

	next := state.Apply(settlement, evaluation.Badges)
	if err := tx.SaveLoyaltyState(ctx, d.userID, next, state.Version); err != nil {
		return Confirmation{}, nil, persistence("save loyalty state", err)
	}

	return Confirmation{
		Order:             o,
		NewBalance:        next.Points,
		Badges:            badgeInfos(next.Badges),
		NewlyEarnedBadges: badgeInfos(evaluation.NewlyEarned),
	}, evaluation.NewlyEarned, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	history, err := s.store.OrderHistory(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch order history")
		return nil, persistence("load order history", err)
	}
	return history, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (Order, error) {
	o, err := s.store.GetOrder(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Stringer("user_id", userID).Msg("service: order not found")
			return Order{}, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to fetch order")
		return Order{}, persistence("load order", err)
	}
	return o, nil
}

// Reorder puts the lines of a past order back into the cart at their original prices.
func (s *service) Reorder(ctx context.Context, userID, orderID uuid.UUID) (*cart.Cart, error) {
	o, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.AddLines(ctx, userID, o.Lines)
	if err != nil {
		return nil, err
	}

	log.Info().Stringer("order_id", orderID).Stringer("user_id", userID).Int("lines", len(o.Lines)).Msg("service: order added back to cart")
	return c, nil
}

func summarize(st loyalty.State) LoyaltySummary {
	return LoyaltySummary{
		Points:      st.Points,
		Version:     st.Version,
		Badges:      badgeInfos(st.Badges),
		Accessories: loyalty.Accessories(st.Badges),
	}
}

func (s *service) Loyalty(ctx context.Context, userID uuid.UUID) (LoyaltySummary, error) {
	st, err := s.store.LoyaltyState(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to load loyalty state")
		return LoyaltySummary{}, persistence("load loyalty state", err)
	}
	return summarize(st), nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]loyalty.Standing, error) {
	if limit <= 0 {
		limit = s.cfg.LeaderboardSize
	}
	limit = min(limit, MaxLeaderboardSize)
	standings, err := s.store.Leaderboard(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load leaderboard")
		return nil, persistence("load leaderboard", err)
	}
	return standings, nil
}

func (s *service) AdjustPoints(ctx context.Context, userID uuid.UUID, points int64) (LoyaltySummary, error) {
	var next loyalty.State
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		st, err := tx.LoadLoyaltyState(ctx, userID)
		if err != nil {
			return persistence("load loyalty state", err)
		}
		next, err = st.WithPoints(points)
		if err != nil {
			return err
		}
		if err := tx.SaveLoyaltyState(ctx, userID, next, st.Version); err != nil {
			return persistence("save loyalty state", err)
		}
		return nil
	})
	if err != nil {
		var pe *PersistenceError
		if !errors.As(err, &pe) && !errors.Is(err, ErrStaleLoyaltyState) && !errors.Is(err, loyalty.ErrNegativePoints) {
			err = persistence("commit", err)
		}
		return LoyaltySummary{}, err
	}

	log.Info().Stringer("user_id", userID).Int64("points", points).Msg("service: points adjusted")
	return summarize(next), nil
}
