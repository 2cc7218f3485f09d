package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/money"
)

type Repository interface {
	ListItems(ctx context.Context) ([]MenuItem, error)
	GetItem(ctx context.Context, id int64) (MenuItem, error)
	// UpsertItem keeps the reviews an existing item already has.
	UpsertItem(ctx context.Context, item MenuItem) error
	// AddReview appends a validated review and returns the updated item.
	AddReview(ctx context.Context, id int64, review Review) (MenuItem, error)
	DeleteItem(ctx context.Context, id int64) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	DailySpecial(ctx context.Context) (DailySpecial, error)
	SetDailySpecial(ctx context.Context, special DailySpecial) error
}

type memoryRepository struct {
	mu      sync.RWMutex
	items   map[int64]MenuItem
	special DailySpecial
}

// NewMemoryRepository returns a catalog held in process memory, filled from seed.
func NewMemoryRepository(seed Seed) Repository {
	items := make(map[int64]MenuItem, len(seed.Items))
	for _, it := range seed.Items {
		items[it.ID] = it.clone().withRatings()
	}
	return &memoryRepository{items: items, special: seed.Special}
}

func (r *memoryRepository) ListItems(_ context.Context) ([]MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]MenuItem, 0, len(r.items))
	for _, it := range r.items {
		items = append(items, it.clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *memoryRepository) GetItem(_ context.Context, id int64) (MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return MenuItem{}, ErrItemNotFound
	}
	return it.clone(), nil
}

func (r *memoryRepository) UpsertItem(_ context.Context, item MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := item.clone()
	if existing, ok := r.items[item.ID]; ok {
		next.Reviews = existing.clone().Reviews
	}
	r.items[item.ID] = next.withRatings()
	return nil
}

func (r *memoryRepository) AddReview(_ context.Context, id int64, review Review) (MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return MenuItem{}, ErrItemNotFound
	}
	it = it.WithReview(review)
	r.items[id] = it
	return it.clone(), nil
}

func (r *memoryRepository) DeleteItem(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) SetAvailability(_ context.Context, id int64, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return ErrItemNotFound
	}
	it.Available = available
	r.items[id] = it
	return nil
}

func (r *memoryRepository) DailySpecial(_ context.Context) (DailySpecial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.special, nil
}

func (r *memoryRepository) SetDailySpecial(_ context.Context, special DailySpecial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.special = special
	return nil
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// SeedPostgres inserts seed items and the default special unless the catalog already has data.
func SeedPostgres(ctx context.Context, db *pgxpool.Pool, seed Seed) error {
	var count int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM menu_items`).Scan(&count); err != nil {
		return fmt.Errorf("repository: failed to count menu items: %w", err)
	}
	if count > 0 {
		log.Debug().Int("items", count).Msg("repository: menu already seeded")
		return nil
	}

	repo := &postgresRepository{db: db}
	for _, it := range seed.Items {
		if err := repo.UpsertItem(ctx, it); err != nil {
			return err
		}
	}
	if err := repo.SetDailySpecial(ctx, seed.Special); err != nil {
		return err
	}

	log.Info().Int("items", len(seed.Items)).Msg("repository: menu seeded")
	return nil
}

const selectItem = `
	SELECT id, name, description, price_cents, category, available,
		spicy_level, dietary_tags, customizations, reviews
	FROM menu_items`

func scanItem(row pgx.Row) (MenuItem, error) {
	var (
		it      MenuItem
		price   int64
		dietary []string
		custom  []byte
		reviews []byte
	)
	err := row.Scan(&it.ID, &it.Name, &it.Description, &price, &it.Category, &it.Available,
		&it.SpicyLevel, &dietary, &custom, &reviews)
	if err != nil {
		return MenuItem{}, err
	}
	it.Price = money.Cents(price)
	for _, d := range dietary {
		it.DietaryTags = append(it.DietaryTags, Dietary(d))
	}
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &it.Customizations); err != nil {
			return MenuItem{}, fmt.Errorf("repository: failed to decode customizations for item %d: %w", it.ID, err)
		}
	}
	if len(reviews) > 0 {
		if err := json.Unmarshal(reviews, &it.Reviews); err != nil {
			return MenuItem{}, fmt.Errorf("repository: failed to decode reviews for item %d: %w", it.ID, err)
		}
	}
	return it.withRatings(), nil
}

func dietaryStrings(tags []Dietary) []string {
	out := make([]string, 0, len(tags))
	for _, d := range tags {
		out = append(out, string(d))
	}
	return out
}

func encodeReviews(reviews []Review) ([]byte, error) {
	if reviews == nil {
		reviews = []Review{}
	}
	return json.Marshal(reviews)
}

func (r *postgresRepository) ListItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := r.db.Query(ctx, selectItem+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := make([]MenuItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan menu item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating menu items: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) GetItem(ctx context.Context, id int64) (MenuItem, error) {
	it, err := scanItem(r.db.QueryRow(ctx, selectItem+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItem{}, ErrItemNotFound
		}
		return MenuItem{}, fmt.Errorf("repository: failed to select menu item %d: %w", id, err)
	}
	return it, nil
}

func (r *postgresRepository) UpsertItem(ctx context.Context, item MenuItem) error {
	custom, err := json.Marshal(item.Customizations)
	if err != nil {
		return fmt.Errorf("repository: failed to encode customizations for item %d: %w", item.ID, err)
	}

	reviews, err := encodeReviews(item.Reviews)
	if err != nil {
		return fmt.Errorf("repository: failed to encode reviews for item %d: %w", item.ID, err)
	}

	// reviews are written only for a new row
	query := `
		INSERT INTO menu_items (id, name, description, price_cents, category, available,
			spicy_level, dietary_tags, customizations, reviews)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price_cents = EXCLUDED.price_cents,
			category = EXCLUDED.category,
			available = EXCLUDED.available,
			spicy_level = EXCLUDED.spicy_level,
			dietary_tags = EXCLUDED.dietary_tags,
			customizations = EXCLUDED.customizations
	`
	_, err = r.db.Exec(ctx, query, item.ID, item.Name, item.Description, int64(item.Price), item.Category, item.Available,
		item.SpicyLevel, dietaryStrings(item.DietaryTags), custom, reviews)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert menu item %d: %w", item.ID, err)
	}
	return nil
}

func (r *postgresRepository) AddReview(ctx context.Context, id int64, review Review) (item MenuItem, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return MenuItem{}, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit review for item %d: %w", id, commitErr)
		}
	}()

	current, err := scanItem(tx.QueryRow(ctx, selectItem+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItem{}, ErrItemNotFound
		}
		return MenuItem{}, fmt.Errorf("repository: failed to select menu item %d: %w", id, err)
	}

	item = current.WithReview(review)
	reviews, err := encodeReviews(item.Reviews)
	if err != nil {
		return MenuItem{}, fmt.Errorf("repository: failed to encode reviews for item %d: %w", id, err)
	}
	if _, err = tx.Exec(ctx, `UPDATE menu_items SET reviews = $1 WHERE id = $2`, reviews, id); err != nil {
		return MenuItem{}, fmt.Errorf("repository: failed to save review for item %d: %w", id, err)
	}
	return item, nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete menu item %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE menu_items SET available = $1 WHERE id = $2`, available, id)
	if err != nil {
		return fmt.Errorf("repository: failed to update availability of item %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) DailySpecial(ctx context.Context) (DailySpecial, error) {
	var (
		s     DailySpecial
		price int64
	)
	err := r.db.QueryRow(ctx, `SELECT item_id, special_price_cents, description FROM daily_special WHERE id = 1`).
		Scan(&s.ItemID, &price, &s.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailySpecial{}, ErrItemNotFound
		}
		return DailySpecial{}, fmt.Errorf("repository: failed to select daily special: %w", err)
	}
	s.SpecialPrice = money.Cents(price)
	return s, nil
}

func (r *postgresRepository) SetDailySpecial(ctx context.Context, special DailySpecial) error {
	query := `
		INSERT INTO daily_special (id, item_id, special_price_cents, description)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			special_price_cents = EXCLUDED.special_price_cents,
			description = EXCLUDED.description
	`
	if _, err := r.db.Exec(ctx, query, special.ItemID, int64(special.SpecialPrice), special.Description); err != nil {
		return fmt.Errorf("repository: failed to save daily special: %w", err)
	}
	return nil
}
