package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/spud-kitchen/internal/cart"
	"github.com/vasiliy-maslov/spud-kitchen/internal/loyalty"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStaleLoyaltyState means another writer changed the loyalty state since it was read.
	ErrStaleLoyaltyState = errors.New("loyalty state was modified concurrently")
)

// PersistenceError wraps a storage failure. Nothing from the failed operation was applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Tx is a unit of work over one or more users' orders and loyalty states.
type Tx interface {
	LoadOrderHistory(ctx context.Context, userID uuid.UUID) ([]Order, error)
	AppendOrder(ctx context.Context, userID uuid.UUID, o Order) error
	LoadLoyaltyState(ctx context.Context, userID uuid.UUID) (loyalty.State, error)
	// SaveLoyaltyState fails with ErrStaleLoyaltyState unless the stored
	// version equals expectedVersion.
	SaveLoyaltyState(ctx context.Context, userID uuid.UUID, state loyalty.State, expectedVersion int64) error
}

type Store interface {
	// WithinTx commits everything fn wrote if fn returns nil, and nothing otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	OrderHistory(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (Order, error)
	LoyaltyState(ctx context.Context, userID uuid.UUID) (loyalty.State, error)
	Leaderboard(ctx context.Context, limit int) ([]loyalty.Standing, error)
}

type memoryStore struct {
	mu        sync.RWMutex
	histories map[uuid.UUID][]Order // newest first
	states    map[uuid.UUID]loyalty.State
}

func NewMemoryStore() Store {
	return &memoryStore{
		histories: make(map[uuid.UUID][]Order),
		states:    make(map[uuid.UUID]loyalty.State),
	}
}

type stagedState struct {
	state    loyalty.State
	baseline int64
}

// memoryTx buffers writes and validates versions again at commit time, so
// two transactions that read the same version cannot both commit.
type memoryTx struct {
	store    *memoryStore
	appended map[uuid.UUID][]Order
	saved    map[uuid.UUID]stagedState
}

func (s *memoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memoryTx{
		store:    s,
		appended: make(map[uuid.UUID][]Order),
		saved:    make(map[uuid.UUID]stagedState),
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.commit()
}

func (tx *memoryTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, staged := range tx.saved {
		if s.states[userID].Version != staged.baseline {
			return ErrStaleLoyaltyState
		}
	}

	for userID, orders := range tx.appended {
		s.histories[userID] = append(append([]Order(nil), orders...), s.histories[userID]...)
	}
	for userID, staged := range tx.saved {
		s.states[userID] = cloneState(staged.state)
	}
	return nil
}

func (tx *memoryTx) LoadOrderHistory(_ context.Context, userID uuid.UUID) ([]Order, error) {
	tx.store.mu.RLock()
	committed := tx.store.histories[userID]
	tx.store.mu.RUnlock()

	out := make([]Order, 0, len(tx.appended[userID])+len(committed))
	for _, o := range tx.appended[userID] {
		out = append(out, cloneOrder(o))
	}
	for _, o := range committed {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (tx *memoryTx) AppendOrder(_ context.Context, userID uuid.UUID, o Order) error {
	tx.appended[userID] = append([]Order{cloneOrder(o)}, tx.appended[userID]...)
	return nil
}

func (tx *memoryTx) LoadLoyaltyState(_ context.Context, userID uuid.UUID) (loyalty.State, error) {
	if staged, ok := tx.saved[userID]; ok {
		return cloneState(staged.state), nil
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	return cloneState(tx.store.states[userID]), nil
}

func (tx *memoryTx) SaveLoyaltyState(ctx context.Context, userID uuid.UUID, state loyalty.State, expectedVersion int64) error {
	current, err := tx.LoadLoyaltyState(ctx, userID)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return ErrStaleLoyaltyState
	}

	baseline := expectedVersion
	if staged, ok := tx.saved[userID]; ok {
		baseline = staged.baseline
	}
	tx.saved[userID] = stagedState{state: cloneState(state), baseline: baseline}
	return nil
}

func (s *memoryStore) OrderHistory(_ context.Context, userID uuid.UUID) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.histories[userID]))
	for _, o := range s.histories[userID] {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (s *memoryStore) GetOrder(_ context.Context, userID, orderID uuid.UUID) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.histories[userID] {
		if o.ID == orderID {
			return cloneOrder(o), nil
		}
	}
	return Order{}, ErrOrderNotFound
}

func (s *memoryStore) LoyaltyState(_ context.Context, userID uuid.UUID) (loyalty.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.states[userID]), nil
}

func (s *memoryStore) Leaderboard(_ context.Context, limit int) ([]loyalty.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]loyalty.Standing, 0, len(s.states))
	for userID, st := range s.states {
		out = append(out, loyalty.Standing{UserID: userID, Points: st.Points, Badges: len(st.Badges)})
	}
	sortStandings(out)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortStandings(s []loyalty.Standing) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Points != s[j].Points {
			return s[i].Points > s[j].Points
		}
		return s[i].UserID.String() < s[j].UserID.String()
	})
}

func cloneState(s loyalty.State) loyalty.State {
	s.Badges = append([]loyalty.BadgeID(nil), s.Badges...)
	return s
}

func cloneOrder(o Order) Order {
	lines := make([]cart.Line, len(o.Lines))
	for i, l := range o.Lines {
		l.Customizations = append(l.Customizations[:0:0], l.Customizations...)
		lines[i] = l
	}
	o.Lines = lines
	if o.ScheduledFor != nil {
		t := *o.ScheduledFor
		o.ScheduledFor = &t
	}
	return o
}
