package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/spud-kitchen/internal/loyalty"
)

type postgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) Store {
	return &postgresStore{db: db}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	tx, beginErr := s.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Msg("repository: panic recovered inside transaction, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Msg("repository: failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	err = fn(ctx, &postgresTx{tx: tx})
	return err
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LoadOrderHistory(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return selectHistory(ctx, t.tx, userID)
}

func (t *postgresTx) AppendOrder(ctx context.Context, userID uuid.UUID, o Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("repository: failed to encode order %s: %w", o.ID, err)
	}

	query := `
		INSERT INTO orders (id, user_id, order_type, total_cents, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = t.tx.Exec(ctx, query, o.ID, userID, string(o.OrderType), int64(o.Total), o.CreatedAt, payload)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order %s: %w", o.ID, err)
	}
	return nil
}

func (t *postgresTx) LoadLoyaltyState(ctx context.Context, userID uuid.UUID) (loyalty.State, error) {
	return selectLoyaltyState(ctx, t.tx, userID)
}

func (t *postgresTx) SaveLoyaltyState(ctx context.Context, userID uuid.UUID, state loyalty.State, expectedVersion int64) error {
	badges := make([]string, 0, len(state.Badges))
	for _, b := range state.Badges {
		badges = append(badges, string(b))
	}

	var query string
	if expectedVersion == 0 {
		// первая запись: строки может ещё не быть
		query = `
			INSERT INTO loyalty_states (user_id, points, badges, version)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE SET
				points = EXCLUDED.points,
				badges = EXCLUDED.badges,
				version = EXCLUDED.version
			WHERE loyalty_states.version = $5
		`
	} else {
		query = `
			UPDATE loyalty_states SET points = $2, badges = $3, version = $4
			WHERE user_id = $1 AND version = $5
		`
	}

	tag, err := t.tx.Exec(ctx, query, userID, state.Points, badges, state.Version, expectedVersion)
	if err != nil {
		return fmt.Errorf("repository: failed to save loyalty state for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		log.Warn().Stringer("user_id", userID).Int64("expected_version", expectedVersion).Msg("repository: stale loyalty state")
		return ErrStaleLoyaltyState
	}
	return nil
}

func (s *postgresStore) OrderHistory(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return selectHistory(ctx, s.db, userID)
}

func (s *postgresStore) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (Order, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("repository: failed to select order %s: %w", orderID, err)
	}

	var o Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return Order{}, fmt.Errorf("repository: failed to decode order %s: %w", orderID, err)
	}
	return o, nil
}

func (s *postgresStore) LoyaltyState(ctx context.Context, userID uuid.UUID) (loyalty.State, error) {
	return selectLoyaltyState(ctx, s.db, userID)
}

func (s *postgresStore) Leaderboard(ctx context.Context, limit int) ([]loyalty.Standing, error) {
	query := `
		SELECT user_id, points, cardinality(badges)
		FROM loyalty_states
		ORDER BY points DESC, user_id::text
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]loyalty.Standing, 0)
	for rows.Next() {
		var st loyalty.Standing
		if err := rows.Scan(&st.UserID, &st.Points, &st.Badges); err != nil {
			return nil, fmt.Errorf("repository: failed to scan leaderboard row: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating leaderboard: %w", err)
	}
	return out, nil
}

func selectHistory(ctx context.Context, q querier, userID uuid.UUID) ([]Order, error) {
	rows, err := q.Query(ctx, `SELECT payload FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	history := make([]Order, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for user %s: %w", userID, err)
		}
		var o Order
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to decode order for user %s: %w", userID, err)
		}
		history = append(history, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders for user %s: %w", userID, err)
	}
	return history, nil
}

func selectLoyaltyState(ctx context.Context, q querier, userID uuid.UUID) (loyalty.State, error) {
	var (
		st     loyalty.State
		badges []string
	)
	err := q.QueryRow(ctx, `SELECT points, badges, version FROM loyalty_states WHERE user_id = $1`, userID).
		Scan(&st.Points, &badges, &st.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loyalty.State{}, nil
		}
		return loyalty.State{}, fmt.Errorf("repository: failed to select loyalty state for user %s: %w", userID, err)
	}

	for _, b := range badges {
		st.Badges = append(st.Badges, loyalty.BadgeID(b))
	}
	return st, nil
}
