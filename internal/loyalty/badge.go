package loyalty

import (
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
)

type BadgeID string

const (
	BadgeFirstFry     BadgeID = "first-fry"
	BadgeLoadedLegend BadgeID = "loaded-legend"
	BadgeSpudSaver    BadgeID = "spud-saver"
)

type BadgeInfo struct {
	ID          BadgeID `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Unlocks     string  `json:"unlocks,omitempty"`
}

var badgeCatalog = map[BadgeID]BadgeInfo{
	BadgeFirstFry: {
		ID:          BadgeFirstFry,
		Title:       "First Fry",
		Description: "Placed your very first order!",
		Unlocks:     "chef-hat",
	},
	BadgeLoadedLegend: {
		ID:          BadgeLoadedLegend,
		Title:       "Loaded Legend",
		Description: "Tried every loaded fry on the menu.",
		Unlocks:     "crown",
	},
	BadgeSpudSaver: {
		ID:          BadgeSpudSaver,
		Title:       "Spud Saver",
		Description: "Redeemed points for the first time.",
		Unlocks:     "monocle",
	},
}

// Info describes a badge. Unknown ids get a bare record with the id as title.
func Info(id BadgeID) BadgeInfo {
	if info, ok := badgeCatalog[id]; ok {
		return info
	}
	return BadgeInfo{ID: id, Title: string(id)}
}

// Accessories lists the avatar parts unlocked by badges, in badge order.
func Accessories(badges []BadgeID) []string {
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		if u := Info(b).Unlocks; u != "" {
			out = append(out, u)
		}
	}
	return out
}

// OrderSummary is what badge rules need to know about one completed order.
type OrderSummary struct {
	ItemIDs        []int64
	PointsRedeemed int64
}

// Evaluation is the input to badge rules. History holds every order of the
// user including Current.
type Evaluation struct {
	History []OrderSummary
	Current OrderSummary
	Menu    []menu.MenuItem
	Held    []BadgeID
}

type Rule interface {
	Badge() BadgeID
	Holds(e Evaluation) bool
}

type firstOrderRule struct{}

func FirstOrder() Rule { return firstOrderRule{} }

func (firstOrderRule) Badge() BadgeID { return BadgeFirstFry }

func (firstOrderRule) Holds(e Evaluation) bool {
	return len(e.History) == 1
}

type categoryCompletionistRule struct {
	category string
}

// CategoryCompletionist holds once every item the current menu lists in
// category has been bought at least once. A category with no items holds
// trivially.
func CategoryCompletionist(category string) Rule {
	return categoryCompletionistRule{category: category}
}

func (categoryCompletionistRule) Badge() BadgeID { return BadgeLoadedLegend }

func (r categoryCompletionistRule) Holds(e Evaluation) bool {
	required := make(map[int64]struct{})
	for _, it := range e.Menu {
		if it.Category == r.category {
			required[it.ID] = struct{}{}
		}
	}
	purchased := make(map[int64]struct{}, len(required))
	for _, o := range e.History {
		for _, id := range o.ItemIDs {
			if _, ok := required[id]; ok {
				purchased[id] = struct{}{}
			}
		}
	}
	return len(purchased) == len(required)
}

type firstRedemptionRule struct{}

func FirstRedemption() Rule { return firstRedemptionRule{} }

func (firstRedemptionRule) Badge() BadgeID { return BadgeSpudSaver }

func (firstRedemptionRule) Holds(e Evaluation) bool {
	return e.Current.PointsRedeemed > 0
}

type Result struct {
	Badges      []BadgeID
	NewlyEarned []BadgeID
}

type Evaluator struct {
	rules []Rule
}

func NewEvaluator(rules ...Rule) *Evaluator {
	return &Evaluator{rules: rules}
}

func DefaultEvaluator(completionistCategory string) *Evaluator {
	return NewEvaluator(
		FirstOrder(),
		CategoryCompletionist(completionistCategory),
		FirstRedemption(),
	)
}

// Evaluate keeps every held badge and appends newly earned ones in rule order.
func (ev *Evaluator) Evaluate(e Evaluation) Result {
	held := make(map[BadgeID]struct{}, len(e.Held))
	badges := make([]BadgeID, 0, len(e.Held)+len(ev.rules))
	for _, b := range e.Held {
		if _, dup := held[b]; dup {
			continue
		}
		held[b] = struct{}{}
		badges = append(badges, b)
	}

	var newly []BadgeID
	for _, rule := range ev.rules {
		id := rule.Badge()
		if _, ok := held[id]; ok {
			continue
		}
		if rule.Holds(e) {
			held[id] = struct{}{}
			badges = append(badges, id)
			newly = append(newly, id)
		}
	}

	return Result{Badges: badges, NewlyEarned: newly}
}
