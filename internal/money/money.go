package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Cents хранит денежную сумму в центах.
type Cents int64

var (
	ErrSubCent    = errors.New("money: amount has more than two decimal places")
	ErrOutOfRange = errors.New("money: amount out of range")
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FromDecimal converts a dollar amount to cents, rounding half away from zero.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Exact converts a dollar amount to cents without rounding.
func Exact(d decimal.Decimal) (Cents, error) {
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrSubCent, d)
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d)
	}
	return Cents(cents.IntPart()), nil
}

// Parse reads a decimal dollar amount such as "8.99". Fractions of a cent are rejected.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Exact(d)
}

func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

func (c Cents) Times(quantity int) Cents {
	return c * Cents(quantity)
}

// Percent returns c × pct / 100 rounded to the nearest cent.
func (c Cents) Percent(pct decimal.Decimal) Cents {
	return FromDecimal(c.Decimal().Mul(pct).Div(hundred))
}

// WholeUnits returns the number of whole dollars in a non-negative amount.
func (c Cents) WholeUnits() int64 {
	if c < 0 {
		return 0
	}
	return int64(c) / 100
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: invalid amount %s: %w", data, err)
	}
	cents, err := Exact(d)
	if err != nil {
		return err
	}
	*c = cents
	return nil
}
