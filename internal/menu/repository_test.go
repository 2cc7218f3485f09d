package menu_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/spud-kitchen/internal/db/dbtest"
	"github.com/vasiliy-maslov/spud-kitchen/internal/menu"
	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	pg := dbtest.Open()
	if pg != nil {
		testDB = pg.Pool
	}

	exitCode := m.Run()

	if pg != nil {
		pg.Close()
	}
	os.Exit(exitCode)
}

// seededPostgres loads the default menu into an emptied database.
func seededPostgres(t *testing.T) (menu.Repository, menu.Seed) {
	t.Helper()
	pool := dbtest.Pool(t, testDB)
	dbtest.Truncate(t, pool, "menu_items", "daily_special")

	seed, err := menu.DefaultSeed()
	require.NoError(t, err)
	require.NoError(t, menu.SeedPostgres(context.Background(), pool, seed))
	return menu.NewPostgresRepository(pool), seed
}

func TestPostgresRepository_Seeded(t *testing.T) {
	repo, seed := seededPostgres(t)
	ctx := context.Background()

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, len(seed.Items))
	for i, it := range items {
		want := seed.Items[i]
		assert.Equal(t, want.ID, it.ID)
		assert.Equal(t, want.Price, it.Price)
		assert.Equal(t, want.Available, it.Available)
		assert.Equal(t, want.SpicyLevel, it.SpicyLevel)
		assert.ElementsMatch(t, want.DietaryTags, it.DietaryTags)
		assert.Equal(t, want.Customizations, it.Customizations)
		assert.Zero(t, it.ReviewCount)
	}

	special, err := repo.DailySpecial(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.Special, special)

	// повторный сид ничего не меняет
	require.NoError(t, repo.SetAvailability(ctx, 8, true))
	require.NoError(t, menu.SeedPostgres(ctx, testDB, seed))
	it, err := repo.GetItem(ctx, 8)
	require.NoError(t, err)
	assert.True(t, it.Available)
	items, err = repo.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(seed.Items))
}

func TestPostgresRepository_UpsertAndDelete(t *testing.T) {
	repo, _ := seededPostgres(t)
	ctx := context.Background()

	item := menu.MenuItem{
		ID:          42,
		Name:        "Truffle Fries",
		Price:       1425,
		Category:    "loaded-fries",
		Available:   true,
		SpicyLevel:  1,
		DietaryTags: []menu.Dietary{menu.Vegetarian, menu.GlutenFree},
	}
	require.NoError(t, repo.UpsertItem(ctx, item))

	got, err := repo.GetItem(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Truffle Fries", got.Name)
	assert.Equal(t, []menu.Dietary{menu.Vegetarian, menu.GlutenFree}, got.DietaryTags)
	assert.Equal(t, 1, got.SpicyLevel)

	item.Price = 1525
	item.DietaryTags = nil
	require.NoError(t, repo.UpsertItem(ctx, item))
	got, err = repo.GetItem(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(1525), got.Price)
	assert.Empty(t, got.DietaryTags)

	require.NoError(t, repo.DeleteItem(ctx, 42))
	_, err = repo.GetItem(ctx, 42)
	require.ErrorIs(t, err, menu.ErrItemNotFound)
	require.ErrorIs(t, repo.DeleteItem(ctx, 42), menu.ErrItemNotFound)
	require.ErrorIs(t, repo.SetAvailability(ctx, 42, false), menu.ErrItemNotFound)
}

func TestPostgresRepository_Reviews(t *testing.T) {
	repo, _ := seededPostgres(t)
	ctx := context.Background()
	day := time.Date(2026, 10, 1, 18, 30, 0, 0, time.UTC)

	_, err := repo.AddReview(ctx, 5, menu.Review{Author: "Ada", Rating: 5, Comment: "Crunchy", Date: day})
	require.NoError(t, err)
	item, err := repo.AddReview(ctx, 5, menu.Review{Author: "Grace", Rating: 3, Date: day.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 2, item.ReviewCount)
	assert.Equal(t, 4.0, item.AverageRating)

	got, err := repo.GetItem(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got.Reviews, 2)
	assert.Equal(t, "Grace", got.Reviews[0].Author)
	assert.True(t, day.Equal(got.Reviews[1].Date))
	assert.Equal(t, 4.0, got.AverageRating)

	// правка из админки не затирает отзывы
	got.Price = 699
	got.Reviews = nil
	require.NoError(t, repo.UpsertItem(ctx, got))
	got, err = repo.GetItem(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(699), got.Price)
	assert.Equal(t, 2, got.ReviewCount)

	_, err = repo.AddReview(ctx, 404, menu.Review{Author: "Ada", Rating: 4})
	require.ErrorIs(t, err, menu.ErrItemNotFound)
}
