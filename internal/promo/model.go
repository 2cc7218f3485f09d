package promo

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPromo    = errors.New("promo code is invalid or inactive")
	ErrPromoNotFound   = errors.New("promo code not found")
	ErrPromoExists     = errors.New("promo code already exists")
	ErrInvalidDiscount = errors.New("discount percentage must be between 0 and 100")
	ErrEmptyCode       = errors.New("promo code cannot be empty")
)

type PromoCode struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	IsActive           bool            `json:"isActive"`
}

// Normalize trims and upper-cases a code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validDiscount(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(decimal.NewFromInt(100))
}
