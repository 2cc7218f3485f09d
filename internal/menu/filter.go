package menu

import (
	"fmt"
	"strings"
)

// Filter narrows a menu listing. Zero fields match everything.
type Filter struct {
	Category string
	// Dietary requires every listed tag on the item.
	Dietary []Dietary
	// Search matches name or description, case-insensitively.
	Search string
}

// ParseDietary reads tags such as "V,GF". Empty parts are skipped.
func ParseDietary(values ...string) ([]Dietary, error) {
	var tags []Dietary
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			d := Dietary(part)
			if !d.Valid() {
				return nil, fmt.Errorf("%w: unknown dietary tag %q", ErrInvalidFilter, part)
			}
			tags = append(tags, d)
		}
	}
	return tags, nil
}

func (f Filter) Matches(m MenuItem) bool {
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	for _, d := range f.Dietary {
		if !m.HasDietary(d) {
			return false
		}
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Name), term) ||
		strings.Contains(strings.ToLower(m.Description), term)
}
