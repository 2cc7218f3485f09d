package promo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository stores codes already normalized by the service.
type Repository interface {
	Create(ctx context.Context, p PromoCode) error
	Get(ctx context.Context, code string) (PromoCode, error)
	List(ctx context.Context) ([]PromoCode, error)
	Toggle(ctx context.Context, code string) (PromoCode, error)
	Delete(ctx context.Context, code string) error
}

type memoryRepository struct {
	mu    sync.RWMutex
	codes map[string]PromoCode
}

func NewMemoryRepository() Repository {
	return &memoryRepository{codes: make(map[string]PromoCode)}
}

func (r *memoryRepository) Create(_ context.Context, p PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[p.Code]; ok {
		return ErrPromoExists
	}
	r.codes[p.Code] = p
	return nil
}

func (r *memoryRepository) Get(_ context.Context, code string) (PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.codes[code]
	if !ok {
		return PromoCode{}, ErrPromoNotFound
	}
	return p, nil
}

func (r *memoryRepository) List(_ context.Context) ([]PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PromoCode, 0, len(r.codes))
	for _, p := range r.codes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memoryRepository) Toggle(_ context.Context, code string) (PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.codes[code]
	if !ok {
		return PromoCode{}, ErrPromoNotFound
	}
	p.IsActive = !p.IsActive
	r.codes[code] = p
	return p, nil
}

func (r *memoryRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[code]; !ok {
		return ErrPromoNotFound
	}
	delete(r.codes, code)
	return nil
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, p PromoCode) error {
	query := `INSERT INTO promo_codes (code, discount_percentage, is_active) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, p.Code, p.DiscountPercentage.String(), p.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrPromoExists
		}
		return fmt.Errorf("repository: failed to insert promo code %s: %w", p.Code, err)
	}
	return nil
}

func scanPromo(row pgx.Row) (PromoCode, error) {
	var (
		p   PromoCode
		pct string
	)
	if err := row.Scan(&p.Code, &pct, &p.IsActive); err != nil {
		return PromoCode{}, err
	}
	d, err := decimal.NewFromString(pct)
	if err != nil {
		return PromoCode{}, fmt.Errorf("repository: bad discount for %s: %w", p.Code, err)
	}
	p.DiscountPercentage = d
	return p, nil
}

func (r *postgresRepository) Get(ctx context.Context, code string) (PromoCode, error) {
	query := `SELECT code, discount_percentage::text, is_active FROM promo_codes WHERE code = $1`
	p, err := scanPromo(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PromoCode{}, ErrPromoNotFound
		}
		return PromoCode{}, fmt.Errorf("repository: failed to select promo code %s: %w", code, err)
	}
	return p, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]PromoCode, error) {
	rows, err := r.db.Query(ctx, `SELECT code, discount_percentage::text, is_active FROM promo_codes ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query promo codes: %w", err)
	}
	defer rows.Close()

	out := make([]PromoCode, 0)
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan promo code: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating promo codes: %w", err)
	}
	return out, nil
}

func (r *postgresRepository) Toggle(ctx context.Context, code string) (PromoCode, error) {
	query := `
		UPDATE promo_codes SET is_active = NOT is_active
		WHERE code = $1
		RETURNING code, discount_percentage::text, is_active
	`
	p, err := scanPromo(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PromoCode{}, ErrPromoNotFound
		}
		return PromoCode{}, fmt.Errorf("repository: failed to toggle promo code %s: %w", code, err)
	}
	return p, nil
}

func (r *postgresRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM promo_codes WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("repository: failed to delete promo code %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPromoNotFound
	}
	return nil
}
