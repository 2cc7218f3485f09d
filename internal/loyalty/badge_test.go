package loyalty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/spud-kitchen/internal/loyalty"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
)

var testMenu = []menu.MenuItem{
	{ID: 1, Category: "loaded-fries", Available: true},
	{ID: 2, Category: "loaded-fries", Available: true},
	{ID: 3, Category: "loaded-fries", Available: false},
	{ID: 4, Category: "sides", Available: true},
}

func order(redeemed int64, ids ...int64) loyalty.OrderSummary {
	return loyalty.OrderSummary{ItemIDs: ids, PointsRedeemed: redeemed}
}

// evaluation builds input from history given oldest first.
func evaluation(held []loyalty.BadgeID, oldestFirst ...loyalty.OrderSummary) loyalty.Evaluation {
	history := make([]loyalty.OrderSummary, 0, len(oldestFirst))
	for i := len(oldestFirst) - 1; i >= 0; i-- {
		history = append(history, oldestFirst[i])
	}
	return loyalty.Evaluation{
		History: history,
		Current: history[0],
		Menu:    testMenu,
		Held:    held,
	}
}

func TestEvaluator_FirstOrder(t *testing.T) {
	ev := loyalty.DefaultEvaluator("loaded-fries")

	first := ev.Evaluate(evaluation(nil, order(0, 4)))
	assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeFirstFry}, first.NewlyEarned)

	second := ev.Evaluate(evaluation(first.Badges, order(0, 4), order(0, 4)))
	assert.Empty(t, second.NewlyEarned)
	assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeFirstFry}, second.Badges)

	// the badge is only earned on the transition to one order
	late := ev.Evaluate(evaluation(nil, order(0, 4), order(0, 4)))
	assert.NotContains(t, late.NewlyEarned, loyalty.BadgeFirstFry)
}

func TestEvaluator_CategoryCompletionist(t *testing.T) {
	ev := loyalty.NewEvaluator(loyalty.CategoryCompletionist("loaded-fries"))

	partial := ev.Evaluate(evaluation(nil, order(0, 1, 2), order(0, 4)))
	assert.Empty(t, partial.NewlyEarned, "item 3 is still on the menu")

	full := ev.Evaluate(evaluation(nil, order(0, 1), order(0, 2, 4), order(0, 3)))
	assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeLoadedLegend}, full.NewlyEarned)

	t.Run("menu changes move the target", func(t *testing.T) {
		in := evaluation(nil, order(0, 1, 2))
		in.Menu = testMenu[:2]
		res := ev.Evaluate(in)
		assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeLoadedLegend}, res.NewlyEarned)
	})

	t.Run("removed items do not count", func(t *testing.T) {
		in := evaluation(nil, order(0, 1, 99))
		in.Menu = append([]menu.MenuItem{}, testMenu...)
		in.Menu = append(in.Menu, menu.MenuItem{ID: 5, Category: "loaded-fries"})
		res := ev.Evaluate(in)
		assert.Empty(t, res.NewlyEarned)
	})

	t.Run("empty category completes trivially", func(t *testing.T) {
		ev := loyalty.NewEvaluator(loyalty.CategoryCompletionist("desserts"))
		res := ev.Evaluate(evaluation(nil, order(0, 7)))
		assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeLoadedLegend}, res.NewlyEarned)

		in := evaluation(nil, order(0, 1))
		in.Menu = nil
		res = ev.Evaluate(in)
		assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeLoadedLegend}, res.NewlyEarned)
	})
}

func TestEvaluator_FirstRedemption(t *testing.T) {
	ev := loyalty.NewEvaluator(loyalty.FirstRedemption())

	none := ev.Evaluate(evaluation(nil, order(0, 1)))
	assert.Empty(t, none.NewlyEarned)

	redeemed := ev.Evaluate(evaluation(nil, order(0, 1), order(150, 2)))
	assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeSpudSaver}, redeemed.NewlyEarned)

	again := ev.Evaluate(evaluation(redeemed.Badges, order(0, 1), order(150, 2), order(50, 1)))
	assert.Empty(t, again.NewlyEarned)
}

func TestEvaluator_DeterministicAndMonotonic(t *testing.T) {
	ev := loyalty.DefaultEvaluator("loaded-fries")
	history := []loyalty.OrderSummary{order(0, 1), order(100, 2), order(0, 3)}

	var held []loyalty.BadgeID
	for n := 1; n <= len(history); n++ {
		in := evaluation(held, history[:n]...)

		res := ev.Evaluate(in)
		repeat := ev.Evaluate(in)
		require.Equal(t, res, repeat)

		for _, b := range held {
			assert.Contains(t, res.Badges, b)
		}
		for _, b := range res.NewlyEarned {
			assert.NotContains(t, held, b)
		}
		held = res.Badges
	}

	assert.Equal(t, []loyalty.BadgeID{
		loyalty.BadgeFirstFry,
		loyalty.BadgeSpudSaver,
		loyalty.BadgeLoadedLegend,
	}, held)

	// feeding the final set back earns nothing new
	final := ev.Evaluate(evaluation(held, history...))
	assert.Empty(t, final.NewlyEarned)
	assert.Equal(t, held, final.Badges)
}

func TestEvaluator_DuplicateHeldBadgesCollapse(t *testing.T) {
	ev := loyalty.NewEvaluator()
	res := ev.Evaluate(evaluation([]loyalty.BadgeID{loyalty.BadgeFirstFry, loyalty.BadgeFirstFry}, order(0, 1)))
	assert.Equal(t, []loyalty.BadgeID{loyalty.BadgeFirstFry}, res.Badges)
}

func TestAccessories(t *testing.T) {
	got := loyalty.Accessories([]loyalty.BadgeID{loyalty.BadgeSpudSaver, "mystery", loyalty.BadgeFirstFry})
	assert.Equal(t, []string{"monocle", "chef-hat"}, got)
	assert.Equal(t, "mystery", loyalty.Info("mystery").Title)
}
