package cart

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
)

// Key identifies an item together with its set of chosen customizations.
type Key string

// NewKey canonicalizes customizations by (title, option) and serializes them
// after the item id. Prices do not take part in identity.
func NewKey(itemID int64, customizations []menu.SelectedCustomization) Key {
	id := strconv.FormatInt(itemID, 10)
	pairs := canonicalPairs(customizations)
	if len(pairs) == 0 {
		return Key(id)
	}

	// [][2]string всегда сериализуется без ошибок
	encoded, _ := json.Marshal(pairs)
	return Key(id + "-" + string(encoded))
}

func canonicalPairs(customizations []menu.SelectedCustomization) [][2]string {
	if len(customizations) == 0 {
		return nil
	}

	seen := make(map[[2]string]struct{}, len(customizations))
	pairs := make([][2]string, 0, len(customizations))
	for _, c := range customizations {
		p := [2]string{c.Title, c.Option}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}

func (k Key) String() string {
	return string(k)
}
