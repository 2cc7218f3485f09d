package menu

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

type Review struct {
	Author  string    `json:"author"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}

func (r Review) Validate() error {
	if strings.TrimSpace(r.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidReview)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidReview, MinRating, MaxRating)
	}
	if utf8.RuneCountInString(r.Comment) > MaxCommentLength {
		return fmt.Errorf("%w: comment is longer than %d characters", ErrInvalidReview, MaxCommentLength)
	}
	return nil
}

// WithReview puts r in front of the item's reviews and recomputes the rating.
func (m MenuItem) WithReview(r Review) MenuItem {
	next := m.clone()
	r.Author = strings.TrimSpace(r.Author)
	next.Reviews = append([]Review{r}, next.Reviews...)
	return next.withRatings()
}

// withRatings derives ReviewCount and AverageRating from Reviews.
func (m MenuItem) withRatings() MenuItem {
	m.ReviewCount = len(m.Reviews)
	m.AverageRating = averageRating(m.Reviews)
	return m
}

// averageRating is the mean rating rounded to two places, 0 without reviews.
func averageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	avg, _ := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(reviews)))).
		Round(2).
		Float64()
	return avg
}
