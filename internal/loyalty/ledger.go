package loyalty

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

var (
	ErrInsufficientPoints = errors.New("insufficient spud points")
	ErrNegativePoints     = errors.New("points cannot be negative")
)

// State is a user's loyalty record. Version increases with every saved change
// and is used to detect concurrent writers.
type State struct {
	Points  int64     `json:"spudPoints"`
	Badges  []BadgeID `json:"badges"`
	Version int64     `json:"version"`
}

func (s State) Has(id BadgeID) bool {
	for _, b := range s.Badges {
		if b == id {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	s.Badges = append([]BadgeID(nil), s.Badges...)
	return s
}

// Standing is one leaderboard row.
type Standing struct {
	UserID uuid.UUID `json:"userId"`
	Points int64     `json:"spudPoints"`
	Badges int       `json:"badgeCount"`
}

type Settlement struct {
	OldBalance     int64 `json:"oldBalance"`
	PointsRedeemed int64 `json:"pointsRedeemed"`
	PointsEarned   int64 `json:"pointsEarned"`
	NewBalance     int64 `json:"newBalance"`
}

// PointsEarned is one point per whole dollar of the pre-discount subtotal.
func PointsEarned(subtotal money.Cents) int64 {
	return subtotal.WholeUnits()
}

// Settle computes the balance after redeeming points and earning on subtotal.
func Settle(balance int64, subtotal money.Cents, redeemed int64) (Settlement, error) {
	if redeemed < 0 {
		return Settlement{}, fmt.Errorf("%w: redeemed %d", ErrNegativePoints, redeemed)
	}
	if redeemed > balance {
		return Settlement{}, fmt.Errorf("%w: redeemed %d of %d", ErrInsufficientPoints, redeemed, balance)
	}

	earned := PointsEarned(subtotal)
	return Settlement{
		OldBalance:     balance,
		PointsRedeemed: redeemed,
		PointsEarned:   earned,
		NewBalance:     balance - redeemed + earned,
	}, nil
}

// Apply returns the next state for a settlement and a badge set. The version is bumped.
func (s State) Apply(settlement Settlement, badges []BadgeID) State {
	next := s.clone()
	next.Points = settlement.NewBalance
	next.Badges = append([]BadgeID(nil), badges...)
	next.Version++
	return next
}

// WithPoints overrides the balance, as done from the admin dashboard.
func (s State) WithPoints(points int64) (State, error) {
	if points < 0 {
		return State{}, fmt.Errorf("%w: got %d", ErrNegativePoints, points)
	}
	next := s.clone()
	next.Points = points
	next.Version++
	return next, nil
}
