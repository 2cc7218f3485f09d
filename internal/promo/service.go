package promo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Service interface {
	// FindActive looks a code up case-insensitively. Unknown and inactive
	// codes both return ErrInvalidPromo.
	FindActive(ctx context.Context, code string) (PromoCode, error)
	Create(ctx context.Context, code string, discountPercentage decimal.Decimal) (PromoCode, error)
	Toggle(ctx context.Context, code string) (PromoCode, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]PromoCode, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) FindActive(ctx context.Context, code string) (PromoCode, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return PromoCode{}, ErrInvalidPromo
	}

	p, err := s.repo.Get(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrPromoNotFound) {
			log.Warn().Str("code", normalized).Msg("service: unknown promo code")
			return PromoCode{}, ErrInvalidPromo
		}
		log.Error().Err(err).Str("code", normalized).Msg("service: failed to look up promo code")
		return PromoCode{}, fmt.Errorf("service: failed to look up promo code: %w", err)
	}

	if !p.IsActive {
		log.Warn().Str("code", normalized).Msg("service: inactive promo code")
		return PromoCode{}, ErrInvalidPromo
	}
	return p, nil
}

func (s *service) Create(ctx context.Context, code string, discountPercentage decimal.Decimal) (PromoCode, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return PromoCode{}, ErrEmptyCode
	}
	if !validDiscount(discountPercentage) {
		return PromoCode{}, ErrInvalidDiscount
	}

	p := PromoCode{Code: normalized, DiscountPercentage: discountPercentage, IsActive: true}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrPromoExists) {
			return PromoCode{}, ErrPromoExists
		}
		log.Error().Err(err).Str("code", normalized).Msg("service: failed to create promo code")
		return PromoCode{}, fmt.Errorf("service: failed to create promo code: %w", err)
	}

	log.Info().Str("code", normalized).Str("discount", discountPercentage.String()).Msg("service: promo code created")
	return p, nil
}

func (s *service) Toggle(ctx context.Context, code string) (PromoCode, error) {
	p, err := s.repo.Toggle(ctx, Normalize(code))
	if err != nil {
		if errors.Is(err, ErrPromoNotFound) {
			return PromoCode{}, ErrPromoNotFound
		}
		return PromoCode{}, fmt.Errorf("service: failed to toggle promo code: %w", err)
	}

	log.Info().Str("code", p.Code).Bool("active", p.IsActive).Msg("service: promo code toggled")
	return p, nil
}

func (s *service) Delete(ctx context.Context, code string) error {
	if err := s.repo.Delete(ctx, Normalize(code)); err != nil {
		if errors.Is(err, ErrPromoNotFound) {
			return ErrPromoNotFound
		}
		return fmt.Errorf("service: failed to delete promo code: %w", err)
	}
	log.Info().Str("code", Normalize(code)).Msg("service: promo code deleted")
	return nil
}

func (s *service) List(ctx context.Context) ([]PromoCode, error) {
	codes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list promo codes: %w", err)
	}
	return codes, nil
}
