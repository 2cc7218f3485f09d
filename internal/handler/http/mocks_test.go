package http_test

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/loyalty"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/order"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cartResult(args mock.Arguments) (*cart.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	return m.cartResult(m.Called(ctx, userID))
}

func (m *MockCartService) AddItem(ctx context.Context, userID uuid.UUID, itemID int64, quantity int, selections []menu.Selection) (*cart.Cart, error) {
	return m.cartResult(m.Called(ctx, userID, itemID, quantity, selections))
}

func (m *MockCartService) AddSpecial(ctx context.Context, userID uuid.UUID, quantity int) (*cart.Cart, error) {
	return m.cartResult(m.Called(ctx, userID, quantity))
}

func (m *MockCartService) AddLines(ctx context.Context, userID uuid.UUID, lines []cart.Line) (*cart.Cart, error) {
	return m.cartResult(m.Called(ctx, userID, lines))
}

func (m *MockCartService) SetQuantity(ctx context.Context, userID uuid.UUID, key cart.Key, quantity int) (*cart.Cart, error) {
	return m.cartResult(m.Called(ctx, userID, key, quantity))
}

func (m *MockCartService) Remove(ctx context.Context, userID uuid.UUID, key cart.Key) (*cart.Cart, error) {
	return m.cartResult(m.Called(ctx, userID, key))
}

func (m *MockCartService) RemoveLines(ctx context.Context, userID uuid.UUID, lines []cart.Line) (*cart.Cart, error) {
	return m.cartResult(m.Called(ctx, userID, lines))
}

func (m *MockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Quote(ctx context.Context, userID uuid.UUID, req order.QuoteRequest) (order.QuoteResult, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(order.QuoteResult), args.Error(1)
}

func (m *MockOrderService) Confirm(ctx context.Context, userID uuid.UUID, req order.ConfirmRequest) (order.Confirmation, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(order.Confirmation), args.Error(1)
}

func (m *MockOrderService) History(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (order.Order, error) {
	args := m.Called(ctx, userID, orderID)
	return args.Get(0).(order.Order), args.Error(1)
}

func (m *MockOrderService) Reorder(ctx context.Context, userID, orderID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockOrderService) Loyalty(ctx context.Context, userID uuid.UUID) (order.LoyaltySummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(order.LoyaltySummary), args.Error(1)
}

func (m *MockOrderService) Leaderboard(ctx context.Context, limit int) ([]loyalty.Standing, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loyalty.Standing), args.Error(1)
}

func (m *MockOrderService) AdjustPoints(ctx context.Context, userID uuid.UUID, points int64) (order.LoyaltySummary, error) {
	args := m.Called(ctx, userID, points)
	return args.Get(0).(order.LoyaltySummary), args.Error(1)
}
