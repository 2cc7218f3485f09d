package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
)

// ItemSource is the part of the menu the cart reads at mutation time.
type ItemSource interface {
	GetItem(ctx context.Context, id int64) (menu.MenuItem, error)
	DailySpecial(ctx context.Context) (menu.DailySpecial, error)
}

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, itemID int64, quantity int, selections []menu.Selection) (*Cart, error)
	AddSpecial(ctx context.Context, userID uuid.UUID, quantity int) (*Cart, error)
	AddLines(ctx context.Context, userID uuid.UUID, lines []Line) (*Cart, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, key Key, quantity int) (*Cart, error)
	Remove(ctx context.Context, userID uuid.UUID, key Key) (*Cart, error)
	RemoveLines(ctx context.Context, userID uuid.UUID, lines []Line) (*Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	store Store
	items ItemSource

	// read-modify-write одной корзины выполняется под мьютексом пользователя
	locks sync.Map
}

func NewService(store Store, items ItemSource) Service {
	return &service{store: store, items: items}
}

func (s *service) lock(userID uuid.UUID) func() {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to load cart")
		return nil, fmt.Errorf("service: failed to load cart: %w", err)
	}
	return c, nil
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(c *Cart) error) (*Cart, error) {
	unlock := s.lock(userID)
	defer unlock()

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, userID, c); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to save cart")
		return nil, fmt.Errorf("service: failed to save cart: %w", err)
	}
	return c, nil
}

func (s *service) orderableItem(ctx context.Context, itemID int64) (menu.MenuItem, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			return menu.MenuItem{}, menu.ErrItemNotFound
		}
		return menu.MenuItem{}, fmt.Errorf("service: failed to get menu item: %w", err)
	}
	if !item.Available {
		return menu.MenuItem{}, fmt.Errorf("%w: %s", menu.ErrItemUnavailable, item.Name)
	}
	return item, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, itemID int64, quantity int, selections []menu.Selection) (*Cart, error) {
	if err := CheckQuantity(quantity); err != nil {
		return nil, err
	}

	item, err := s.orderableItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	customizations, err := item.Resolve(selections)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(c *Cart) error {
		key, err := c.Add(item, quantity, customizations)
		if err != nil {
			return err
		}
		log.Debug().Stringer("user_id", userID).Str("key", key.String()).Int("quantity", quantity).Msg("service: item added to cart")
		return nil
	})
}

func (s *service) AddSpecial(ctx context.Context, userID uuid.UUID, quantity int) (*Cart, error) {
	if err := CheckQuantity(quantity); err != nil {
		return nil, err
	}

	special, err := s.items.DailySpecial(ctx)
	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			return nil, menu.ErrItemNotFound
		}
		return nil, fmt.Errorf("service: failed to get daily special: %w", err)
	}

	item, err := s.orderableItem(ctx, special.ItemID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, func(c *Cart) error {
		_, err := c.AddAtPrice(item, special.SpecialPrice, quantity, nil)
		return err
	})
}

// AddLines merges previously priced lines back into the cart, keeping their prices.
func (s *service) AddLines(ctx context.Context, userID uuid.UUID, lines []Line) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		for _, l := range lines {
			if _, err := c.AddLine(l); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) SetQuantity(ctx context.Context, userID uuid.UUID, key Key, quantity int) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		return c.SetQuantity(key, quantity)
	})
}

// RemoveLines takes confirmed order lines out of the cart. Anything added
// after the order was priced stays.
func (s *service) RemoveLines(ctx context.Context, userID uuid.UUID, lines []Line) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.Subtract(lines)
		return nil
	})
}

func (s *service) Remove(ctx context.Context, userID uuid.UUID, key Key) (*Cart, error) {
	return s.mutate(ctx, userID, func(c *Cart) error {
		c.Remove(key)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.Delete(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}
	return nil
}
