package menu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

var (
	ErrItemNotFound         = errors.New("menu item not found")
	ErrItemUnavailable      = errors.New("menu item is unavailable")
	ErrInvalidCustomization = errors.New("invalid customization")
	ErrInvalidItem          = errors.New("invalid menu item")
	ErrInvalidSpecial       = errors.New("invalid daily special")
	ErrInvalidReview        = errors.New("invalid review")
	ErrInvalidFilter        = errors.New("invalid menu filter")
)

// MaxPrice bounds item, option and special prices so cart totals stay far from overflow.
const MaxPrice money.Cents = 100000

// MaxSpicyLevel is the hottest level an item can carry; 0 is not spicy.
const MaxSpicyLevel = 3

type Dietary string

const (
	Vegetarian Dietary = "V"
	Vegan      Dietary = "VG"
	GlutenFree Dietary = "GF"
)

func (d Dietary) Valid() bool {
	return d == Vegetarian || d == Vegan || d == GlutenFree
}

type SelectionType string

const (
	SingleSelect SelectionType = "single"
	MultiSelect  SelectionType = "multi"
)

type CustomizationOption struct {
	Name  string      `json:"name"`
	Price money.Cents `json:"price"`
}

type CustomizationCategory struct {
	Title   string                `json:"title"`
	Type    SelectionType         `json:"type"`
	Options []CustomizationOption `json:"options"`
}

type MenuItem struct {
	ID             int64                   `json:"id"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	Price          money.Cents             `json:"price"`
	Category       string                  `json:"category"`
	Available      bool                    `json:"available"`
	SpicyLevel     int                     `json:"spicyLevel"`
	DietaryTags    []Dietary               `json:"dietaryTags"`
	Customizations []CustomizationCategory `json:"customizations,omitempty"`
	Reviews        []Review                `json:"reviews"`
	AverageRating  float64                 `json:"averageRating"`
	ReviewCount    int                     `json:"reviewCount"`
}

func (m MenuItem) HasDietary(d Dietary) bool {
	for _, tag := range m.DietaryTags {
		if tag == d {
			return true
		}
	}
	return false
}

// Selection is a requested (category title, option name) pair, not yet priced.
type Selection struct {
	Title  string `json:"title"`
	Option string `json:"option"`
}

// SelectedCustomization is a resolved selection with the option price captured.
type SelectedCustomization struct {
	Title  string      `json:"title"`
	Option string      `json:"option"`
	Price  money.Cents `json:"price"`
}

type DailySpecial struct {
	ItemID       int64       `json:"itemId"`
	SpecialPrice money.Cents `json:"specialPrice"`
	Description  string      `json:"description"`
}

// Resolve validates selections against the item's customization schema and
// returns them priced and sorted by (title, option). Repeated pairs collapse.
func (m MenuItem) Resolve(selections []Selection) ([]SelectedCustomization, error) {
	if len(selections) == 0 {
		return nil, nil
	}

	seen := make(map[Selection]struct{}, len(selections))
	perCategory := make(map[string]int)
	resolved := make([]SelectedCustomization, 0, len(selections))

	for _, sel := range selections {
		if _, ok := seen[sel]; ok {
			continue
		}
		seen[sel] = struct{}{}

		category, ok := m.category(sel.Title)
		if !ok {
			return nil, fmt.Errorf("%w: item %d has no customization %q", ErrInvalidCustomization, m.ID, sel.Title)
		}

		option, ok := category.option(sel.Option)
		if !ok {
			return nil, fmt.Errorf("%w: %q has no option %q", ErrInvalidCustomization, sel.Title, sel.Option)
		}

		perCategory[category.Title]++
		if category.Type == SingleSelect && perCategory[category.Title] > 1 {
			return nil, fmt.Errorf("%w: %q allows a single choice", ErrInvalidCustomization, sel.Title)
		}

		resolved = append(resolved, SelectedCustomization{
			Title:  category.Title,
			Option: option.Name,
			Price:  option.Price,
		})
	}

	SortSelected(resolved)
	return resolved, nil
}

// Validate checks the fields an admin can set on an item.
func (m MenuItem) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidItem)
	}
	if m.Name == "" || m.Category == "" {
		return fmt.Errorf("%w: name and category are required", ErrInvalidItem)
	}
	if m.Price < 0 || m.Price > MaxPrice {
		return fmt.Errorf("%w: price must be between 0.00 and %s", ErrInvalidItem, MaxPrice)
	}

	if m.SpicyLevel < 0 || m.SpicyLevel > MaxSpicyLevel {
		return fmt.Errorf("%w: spicy level must be between 0 and %d", ErrInvalidItem, MaxSpicyLevel)
	}
	tags := make(map[Dietary]struct{}, len(m.DietaryTags))
	for _, d := range m.DietaryTags {
		if !d.Valid() {
			return fmt.Errorf("%w: unknown dietary tag %q", ErrInvalidItem, d)
		}
		if _, dup := tags[d]; dup {
			return fmt.Errorf("%w: duplicate dietary tag %q", ErrInvalidItem, d)
		}
		tags[d] = struct{}{}
	}

	titles := make(map[string]struct{}, len(m.Customizations))
	for _, c := range m.Customizations {
		if c.Type != SingleSelect && c.Type != MultiSelect {
			return fmt.Errorf("%w: customization %q has unknown type %q", ErrInvalidItem, c.Title, c.Type)
		}
		if _, dup := titles[c.Title]; dup {
			return fmt.Errorf("%w: duplicate customization %q", ErrInvalidItem, c.Title)
		}
		titles[c.Title] = struct{}{}

		for _, o := range c.Options {
			if o.Price < 0 || o.Price > MaxPrice {
				return fmt.Errorf("%w: option %q price must be between 0.00 and %s", ErrInvalidItem, o.Name, MaxPrice)
			}
		}
	}

	return nil
}

func (m MenuItem) category(title string) (CustomizationCategory, bool) {
	for _, c := range m.Customizations {
		if c.Title == title {
			return c, true
		}
	}
	return CustomizationCategory{}, false
}

func (c CustomizationCategory) option(name string) (CustomizationOption, bool) {
	for _, o := range c.Options {
		if o.Name == name {
			return o, true
		}
	}
	return CustomizationOption{}, false
}

// SortSelected orders customizations by title, then option name.
func SortSelected(s []SelectedCustomization) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Title != s[j].Title {
			return s[i].Title < s[j].Title
		}
		return s[i].Option < s[j].Option
	})
}

func (m MenuItem) clone() MenuItem {
	m.DietaryTags = append([]Dietary(nil), m.DietaryTags...)
	m.Reviews = append([]Review(nil), m.Reviews...)
	if m.Customizations == nil {
		return m
	}
	cats := make([]CustomizationCategory, len(m.Customizations))
	for i, c := range m.Customizations {
		c.Options = append([]CustomizationOption(nil), c.Options...)
		cats[i] = c
	}
	m.Customizations = cats
	return m
}
