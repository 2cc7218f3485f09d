package menu

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

//go:embed seed.yaml
var defaultSeed []byte

type Seed struct {
	Items   []MenuItem
	Special DailySpecial
}

type seedFile struct {
	Items []struct {
		ID             int64    `yaml:"id"`
		Name           string   `yaml:"name"`
		Description    string   `yaml:"description"`
		Price          string   `yaml:"price"`
		Category       string   `yaml:"category"`
		Available      bool     `yaml:"available"`
		SpicyLevel     int      `yaml:"spicy_level"`
		Dietary        []string `yaml:"dietary"`
		Customizations []struct {
			Title   string `yaml:"title"`
			Type    string `yaml:"type"`
			Options []struct {
				Name  string `yaml:"name"`
				Price string `yaml:"price"`
			} `yaml:"options"`
		} `yaml:"customizations"`
	} `yaml:"items"`
	Special struct {
		ItemID       int64  `yaml:"item_id"`
		SpecialPrice string `yaml:"special_price"`
		Description  string `yaml:"description"`
	} `yaml:"special"`
}

// DefaultSeed returns the embedded starter menu.
func DefaultSeed() (Seed, error) {
	return decodeSeed(defaultSeed)
}

// LoadSeed reads a seed file from disk; an empty path yields the embedded seed.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("menu: failed to read seed file: %w", err)
	}
	return decodeSeed(data)
}

func decodeSeed(data []byte) (Seed, error) {
	var f seedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return Seed{}, fmt.Errorf("menu: invalid seed file: %w", err)
	}

	seed := Seed{Items: make([]MenuItem, 0, len(f.Items))}
	for _, raw := range f.Items {
		price, err := money.Parse(raw.Price)
		if err != nil {
			return Seed{}, fmt.Errorf("menu: item %d: %w", raw.ID, err)
		}

		item := MenuItem{
			ID:          raw.ID,
			Name:        raw.Name,
			Description: raw.Description,
			Price:       price,
			Category:    raw.Category,
			Available:   raw.Available,
			SpicyLevel:  raw.SpicyLevel,
		}
		for _, d := range raw.Dietary {
			item.DietaryTags = append(item.DietaryTags, Dietary(d))
		}
		for _, c := range raw.Customizations {
			cat := CustomizationCategory{Title: c.Title, Type: SelectionType(c.Type)}
			for _, o := range c.Options {
				op, err := money.Parse(o.Price)
				if err != nil {
					return Seed{}, fmt.Errorf("menu: item %d option %q: %w", raw.ID, o.Name, err)
				}
				cat.Options = append(cat.Options, CustomizationOption{Name: o.Name, Price: op})
			}
			item.Customizations = append(item.Customizations, cat)
		}

		if err := item.Validate(); err != nil {
			return Seed{}, fmt.Errorf("menu: seed item %d: %w", raw.ID, err)
		}
		seed.Items = append(seed.Items, item)
	}

	specialPrice, err := money.Parse(f.Special.SpecialPrice)
	if err != nil {
		return Seed{}, fmt.Errorf("menu: daily special: %w", err)
	}
	seed.Special = DailySpecial{
		ItemID:       f.Special.ItemID,
		SpecialPrice: specialPrice,
		Description:  f.Special.Description,
	}

	return seed, nil
}
