package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists one cart per user. Loading an unknown user yields an empty cart.
type Store interface {
	Load(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, userID uuid.UUID, c *Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type memoryStore struct {
	mu    sync.RWMutex
	carts map[uuid.UUID][]Line
}

func NewMemoryStore() Store {
	return &memoryStore{carts: make(map[uuid.UUID][]Line)}
}

func (s *memoryStore) Load(_ context.Context, userID uuid.UUID) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := New()
	for _, l := range s.carts[userID] {
		if _, err := c.AddLine(l); err != nil {
			return nil, fmt.Errorf("store: corrupt cart for user %s: %w", userID, err)
		}
	}
	return c, nil
}

func (s *memoryStore) Save(_ context.Context, userID uuid.UUID, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.IsEmpty() {
		delete(s.carts, userID)
		return nil
	}
	s.carts[userID] = c.Lines()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

type postgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Load(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT lines FROM carts WHERE user_id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return New(), nil
		}
		return nil, fmt.Errorf("repository: failed to select cart for user %s: %w", userID, err)
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("repository: failed to decode cart for user %s: %w", userID, err)
	}

	c := New()
	for _, l := range lines {
		if _, err := c.AddLine(l); err != nil {
			return nil, fmt.Errorf("repository: corrupt cart for user %s: %w", userID, err)
		}
	}
	return c, nil
}

func (s *postgresStore) Save(ctx context.Context, userID uuid.UUID, c *Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, userID)
	}

	raw, err := json.Marshal(c.Lines())
	if err != nil {
		return fmt.Errorf("repository: failed to encode cart for user %s: %w", userID, err)
	}

	query := `
		INSERT INTO carts (user_id, lines, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET lines = EXCLUDED.lines, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.Exec(ctx, query, userID, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("repository: failed to save cart for user %s: %w", userID, err)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("repository: failed to delete cart for user %s: %w", userID, err)
	}
	return nil
}
