package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Service interface {
	ListItems(ctx context.Context) ([]MenuItem, error)
	GetItem(ctx context.Context, id int64) (MenuItem, error)
	ItemsInCategory(ctx context.Context, category string) ([]MenuItem, error)
	Search(ctx context.Context, f Filter) ([]MenuItem, error)
	AddReview(ctx context.Context, itemID int64, review Review) (MenuItem, error)
	SaveItem(ctx context.Context, item MenuItem) error
	DeleteItem(ctx context.Context, id int64) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	DailySpecial(ctx context.Context) (DailySpecial, error)
	SetDailySpecial(ctx context.Context, special DailySpecial) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *service) ListItems(ctx context.Context) ([]MenuItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list menu items")
		return nil, fmt.Errorf("service: failed to list menu items: %w", err)
	}
	return items, nil
}

func (s *service) GetItem(ctx context.Context, id int64) (MenuItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return MenuItem{}, ErrItemNotFound
		}
		log.Error().Err(err).Int64("item_id", id).Msg("service: failed to get menu item")
		return MenuItem{}, fmt.Errorf("service: failed to get menu item: %w", err)
	}
	return item, nil
}

// ItemsInCategory returns every catalog item in the category, available or not.
func (s *service) ItemsInCategory(ctx context.Context, category string) ([]MenuItem, error) {
	return s.Search(ctx, Filter{Category: category})
}

func (s *service) Search(ctx context.Context, f Filter) ([]MenuItem, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]MenuItem, 0)
	for _, it := range items {
		if f.Matches(it) {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

// AddReview stamps the review with the current time unless it carries one.
func (s *service) AddReview(ctx context.Context, itemID int64, review Review) (MenuItem, error) {
	if err := review.Validate(); err != nil {
		return MenuItem{}, err
	}
	if review.Date.IsZero() {
		review.Date = s.now()
	}

	item, err := s.repo.AddReview(ctx, itemID, review)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return MenuItem{}, ErrItemNotFound
		}
		log.Error().Err(err).Int64("item_id", itemID).Msg("service: failed to add review")
		return MenuItem{}, fmt.Errorf("service: failed to add review: %w", err)
	}

	log.Info().Int64("item_id", itemID).Int("rating", review.Rating).Float64("average_rating", item.AverageRating).Msg("service: review added")
	return item, nil
}

func (s *service) SaveItem(ctx context.Context, item MenuItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	if err := s.repo.UpsertItem(ctx, item); err != nil {
		log.Error().Err(err).Int64("item_id", item.ID).Msg("service: failed to save menu item")
		return fmt.Errorf("service: failed to save menu item: %w", err)
	}

	log.Info().Int64("item_id", item.ID).Str("name", item.Name).Msg("service: menu item saved")
	return nil
}

func (s *service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Int64("item_id", id).Msg("service: failed to delete menu item")
		return fmt.Errorf("service: failed to delete menu item: %w", err)
	}

	log.Info().Int64("item_id", id).Msg("service: menu item deleted")
	return nil
}

func (s *service) SetAvailability(ctx context.Context, id int64, available bool) error {
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Int64("item_id", id).Msg("service: failed to set availability")
		return fmt.Errorf("service: failed to set availability: %w", err)
	}

	log.Info().Int64("item_id", id).Bool("available", available).Msg("service: availability updated")
	return nil
}

func (s *service) DailySpecial(ctx context.Context) (DailySpecial, error) {
	special, err := s.repo.DailySpecial(ctx)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return DailySpecial{}, ErrItemNotFound
		}
		log.Error().Err(err).Msg("service: failed to get daily special")
		return DailySpecial{}, fmt.Errorf("service: failed to get daily special: %w", err)
	}
	return special, nil
}

func (s *service) SetDailySpecial(ctx context.Context, special DailySpecial) error {
	if special.SpecialPrice < 0 || special.SpecialPrice > MaxPrice {
		return fmt.Errorf("%w: price must be between 0.00 and %s", ErrInvalidSpecial, MaxPrice)
	}

	if _, err := s.GetItem(ctx, special.ItemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return fmt.Errorf("%w: item %d does not exist", ErrInvalidSpecial, special.ItemID)
		}
		return err
	}

	if err := s.repo.SetDailySpecial(ctx, special); err != nil {
		log.Error().Err(err).Msg("service: failed to save daily special")
		return fmt.Errorf("service: failed to save daily special: %w", err)
	}

	log.Info().Int64("item_id", special.ItemID).Stringer("price", special.SpecialPrice).Msg("service: daily special updated")
	return nil
}
