package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 99

var ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")

// CheckQuantity rejects quantities outside 1..MaxQuantity.
func CheckQuantity(quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	return nil
}

// Line is one priced cart entry. UnitPrice and customization prices are
// frozen when the line is first added.
type Line struct {
	Key            Key                          `json:"key"`
	ItemID         int64                        `json:"itemId"`
	Name           string                       `json:"name"`
	Category       string                       `json:"category"`
	UnitPrice      money.Cents                  `json:"unitPrice"`
	Customizations []menu.SelectedCustomization `json:"customizations,omitempty"`
	Quantity       int                          `json:"quantity"`
}

// EachPrice is the unit price plus every selected customization delta.
func (l Line) EachPrice() money.Cents {
	total := l.UnitPrice
	for _, c := range l.Customizations {
		total += c.Price
	}
	return total
}

func (l Line) Subtotal() money.Cents {
	return l.EachPrice().Times(l.Quantity)
}

func (l Line) clone() Line {
	l.Customizations = append([]menu.SelectedCustomization(nil), l.Customizations...)
	return l
}

// Cart keeps at most one line per Key. Lines stay in insertion order.
type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// Add puts quantity units of item into the cart at the item's current price.
func (c *Cart) Add(item menu.MenuItem, quantity int, customizations []menu.SelectedCustomization) (Key, error) {
	return c.AddAtPrice(item, item.Price, quantity, customizations)
}

// AddAtPrice is Add with an explicit unit price, used for the daily special.
// When a line with the same key exists only its quantity changes.
func (c *Cart) AddAtPrice(item menu.MenuItem, unitPrice money.Cents, quantity int, customizations []menu.SelectedCustomization) (Key, error) {
	return c.AddLine(Line{
		ItemID:         item.ID,
		Name:           item.Name,
		Category:       item.Category,
		UnitPrice:      unitPrice,
		Customizations: customizations,
		Quantity:       quantity,
	})
}

// AddLine merges a prebuilt line into the cart. The key is recomputed.
func (c *Cart) AddLine(line Line) (Key, error) {
	if err := CheckQuantity(line.Quantity); err != nil {
		return "", err
	}

	line = normalize(line)

	if i := c.index(line.Key); i >= 0 {
		merged := c.lines[i].Quantity + line.Quantity
		if err := CheckQuantity(merged); err != nil {
			return "", err
		}
		c.lines[i].Quantity = merged
		return line.Key, nil
	}

	c.lines = append(c.lines, line)
	return line.Key, nil
}

func (c *Cart) Remove(key Key) {
	if i := c.index(key); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SetQuantity overwrites a line's quantity; non-positive removes the line.
// Unknown keys are ignored.
func (c *Cart) SetQuantity(key Key, quantity int) error {
	if quantity <= 0 {
		c.Remove(key)
		return nil
	}
	if err := CheckQuantity(quantity); err != nil {
		return err
	}
	if i := c.index(key); i >= 0 {
		c.lines[i].Quantity = quantity
	}
	return nil
}

// Subtract takes the quantities of lines out of the cart, matching by key.
// A line whose quantity drops to zero is removed; keys not in the cart are skipped.
func (c *Cart) Subtract(lines []Line) {
	for _, l := range lines {
		key := NewKey(l.ItemID, l.Customizations)
		i := c.index(key)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity <= l.Quantity {
			c.Remove(key)
			continue
		}
		c.lines[i].Quantity -= l.Quantity
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() money.Cents {
	var total money.Cents
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Line(key Key) (Line, bool) {
	if i := c.index(key); i >= 0 {
		return c.lines[i].clone(), true
	}
	return Line{}, false
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.clone()
	}
	return out
}

func (c *Cart) index(key Key) int {
	for i := range c.lines {
		if c.lines[i].Key == key {
			return i
		}
	}
	return -1
}

func normalize(line Line) Line {
	line = line.clone()
	if len(line.Customizations) == 0 {
		line.Customizations = nil
	} else {
		seen := make(map[[2]string]struct{}, len(line.Customizations))
		unique := line.Customizations[:0]
		for _, cust := range line.Customizations {
			p := [2]string{cust.Title, cust.Option}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			unique = append(unique, cust)
		}
		line.Customizations = unique
		menu.SortSelected(line.Customizations)
	}
	line.Key = NewKey(line.ItemID, line.Customizations)
	return line
}

type cartJSON struct {
	Lines     []Line      `json:"lines"`
	ItemCount int         `json:"itemCount"`
	Subtotal  money.Cents `json:"subtotal"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.Lines()
	return json.Marshal(cartJSON{Lines: lines, ItemCount: c.ItemCount(), Subtotal: c.Subtotal()})
}

// UnmarshalJSON rebuilds the cart from its lines, re-deriving keys and
// merging duplicates. Derived totals in the payload are ignored.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var payload cartJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	rebuilt := New()
	for _, l := range payload.Lines {
		if _, err := rebuilt.AddLine(l); err != nil {
			return fmt.Errorf("cart: line %s: %w", l.Key, err)
		}
	}
	*c = *rebuilt
	return nil
}
