package menu_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

func newSeededService(t *testing.T) menu.Service {
	t.Helper()
	seed, err := menu.DefaultSeed()
	require.NoError(t, err)
	return menu.NewService(menu.NewMemoryRepository(seed))
}

func TestMenuService_ItemsInCategory(t *testing.T) {
	svc := newSeededService(t)

	items, err := svc.ItemsInCategory(context.Background(), "loaded-fries")
	require.NoError(t, err)

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	// unavailable item 8 still counts as part of the category
	assert.Equal(t, []int64{1, 2, 3, 8}, ids)
}

func TestMenuService_SetAvailability(t *testing.T) {
	svc := newSeededService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetAvailability(ctx, 8, true))
	item, err := svc.GetItem(ctx, 8)
	require.NoError(t, err)
	assert.True(t, item.Available)

	require.ErrorIs(t, svc.SetAvailability(ctx, 404, true), menu.ErrItemNotFound)
}

func TestMenuService_SaveAndDeleteItem(t *testing.T) {
	svc := newSeededService(t)
	ctx := context.Background()

	item := menu.MenuItem{ID: 10, Name: "Sweet Potato Fries", Price: 699, Category: "sides", Available: true}
	require.NoError(t, svc.SaveItem(ctx, item))

	got, err := svc.GetItem(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, item, got)

	require.ErrorIs(t, svc.SaveItem(ctx, menu.MenuItem{ID: 11}), menu.ErrInvalidItem)

	require.NoError(t, svc.DeleteItem(ctx, 10))
	_, err = svc.GetItem(ctx, 10)
	require.ErrorIs(t, err, menu.ErrItemNotFound)
	require.ErrorIs(t, svc.DeleteItem(ctx, 10), menu.ErrItemNotFound)
}

func TestMenuService_GetItemReturnsCopy(t *testing.T) {
	svc := newSeededService(t)
	ctx := context.Background()

	item, err := svc.GetItem(ctx, 1)
	require.NoError(t, err)
	item.Customizations[0].Options[0].Price = 1

	again, err := svc.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, item.Customizations[0].Options[0].Price, again.Customizations[0].Options[0].Price)
}

func TestMenuService_SetDailySpecial(t *testing.T) {
	svc := newSeededService(t)
	ctx := context.Background()

	special := menu.DailySpecial{ItemID: 5, SpecialPrice: 499, Description: "Wedge Wednesday"}
	require.NoError(t, svc.SetDailySpecial(ctx, special))

	got, err := svc.DailySpecial(ctx)
	require.NoError(t, err)
	assert.Equal(t, special, got)

	err = svc.SetDailySpecial(ctx, menu.DailySpecial{ItemID: 77, SpecialPrice: 100})
	require.ErrorIs(t, err, menu.ErrInvalidSpecial)

	err = svc.SetDailySpecial(ctx, menu.DailySpecial{ItemID: 5, SpecialPrice: -1})
	require.ErrorIs(t, err, menu.ErrInvalidSpecial)
}

func itemIDs(items []menu.MenuItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestMenuService_Search(t *testing.T) {
	svc := newSeededService(t)

	tests := []struct {
		name   string
		filter menu.Filter
		want   []int64
	}{
		{name: "no filter", filter: menu.Filter{}, want: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{name: "vegan and gluten free", filter: menu.Filter{Dietary: []menu.Dietary{menu.Vegan, menu.GlutenFree}}, want: []int64{5, 7}},
		{name: "search is case-insensitive", filter: menu.Filter{Search: "FRIES"}, want: []int64{1, 2, 3, 8}},
		{name: "search matches description", filter: menu.Filter{Search: " aioli "}, want: []int64{5}},
		{name: "all filters combine", filter: menu.Filter{Category: "loaded-fries", Dietary: []menu.Dietary{menu.Vegetarian}, Search: "fries"}, want: []int64{1, 3}},
		{name: "nothing matches", filter: menu.Filter{Category: "drinks", Dietary: []menu.Dietary{menu.GlutenFree}, Search: "cola"}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.Search(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, itemIDs(items))
		})
	}
}

func TestMenuService_AddReview(t *testing.T) {
	svc := newSeededService(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	item, err := svc.AddReview(ctx, 1, menu.Review{Author: "Ada", Rating: 5, Comment: "Perfect", Date: day})
	require.NoError(t, err)
	assert.Equal(t, 1, item.ReviewCount)
	assert.Equal(t, 5.0, item.AverageRating)

	item, err = svc.AddReview(ctx, 1, menu.Review{Author: " Grace ", Rating: 4})
	require.NoError(t, err)
	require.Len(t, item.Reviews, 2)
	assert.Equal(t, "Grace", item.Reviews[0].Author)
	assert.False(t, item.Reviews[0].Date.IsZero())
	assert.Equal(t, 4.5, item.AverageRating)

	item, err = svc.AddReview(ctx, 1, menu.Review{Author: "Linus", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, item.ReviewCount)
	assert.Equal(t, 4.33, item.AverageRating)

	stored, err := svc.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, item, stored)

	// admin edits keep reviews
	stored.Price = 949
	stored.Reviews = nil
	require.NoError(t, svc.SaveItem(ctx, stored))
	edited, err := svc.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(949), edited.Price)
	assert.Equal(t, 3, edited.ReviewCount)
	assert.Equal(t, 4.33, edited.AverageRating)
}

func TestMenuService_AddReviewRejected(t *testing.T) {
	svc := newSeededService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		itemID int64
		review menu.Review
		want   error
	}{
		{name: "rating too low", itemID: 1, review: menu.Review{Author: "Ada", Rating: 0}, want: menu.ErrInvalidReview},
		{name: "rating too high", itemID: 1, review: menu.Review{Author: "Ada", Rating: 6}, want: menu.ErrInvalidReview},
		{name: "blank author", itemID: 1, review: menu.Review{Author: "  ", Rating: 3}, want: menu.ErrInvalidReview},
		{name: "unknown item", itemID: 404, review: menu.Review{Author: "Ada", Rating: 3}, want: menu.ErrItemNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddReview(ctx, tt.itemID, tt.review)
			require.ErrorIs(t, err, tt.want)
		})
	}

	item, err := svc.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, item.ReviewCount)
}
