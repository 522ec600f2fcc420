// Package memstore keeps ledger, promo and eco-habit state in process memory.
// It backs the memory storage driver and end-to-end tests. Units of work hold
// row locks until they end and undo their writes on rollback.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecomove/internal/db"
	"ecomove/internal/ecohabit"
	"ecomove/internal/ledger"
	"ecomove/internal/promo"
)

type txKey struct{}

// txState is the memory counterpart of a database transaction.
type txState struct {
	undo []func()
	held []string
}

type redemptionKey struct {
	code    string
	orderID string
}

type Store struct {
	mu    sync.Mutex
	freed *sync.Cond
	locks map[string]*txState

	entries      []ledger.Transaction
	wallets      map[string]time.Time
	codes        map[string]promo.Code
	redemptions  map[redemptionKey]promo.Redemption
	declarations map[string]ecohabit.Declaration

	now func() time.Time
}

func New() *Store {
	s := &Store{
		locks:        make(map[string]*txState),
		wallets:      make(map[string]time.Time),
		codes:        make(map[string]promo.Code),
		redemptions:  make(map[redemptionKey]promo.Redemption),
		declarations: make(map[string]ecohabit.Declaration),
		now:          func() time.Time { return time.Now().UTC() },
	}
	s.freed = sync.NewCond(&s.mu)
	return s
}

func (s *Store) Ledger() *LedgerRepository {
	return &LedgerRepository{s: s}
}

func (s *Store) Promos() *PromoRepository {
	return &PromoRepository{s: s}
}

func (s *Store) EcoHabits() *EcoHabitRepository {
	return &EcoHabitRepository{s: s}
}

// WithinTx implements db.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.InUnit(ctx) {
		return fn(ctx)
	}

	tx := &txState{}
	unit := db.NewUnit()
	txCtx := context.WithValue(db.WithUnit(ctx, unit), txKey{}, tx)

	if err := fn(txCtx); err != nil {
		s.finish(tx, true)
		return err
	}

	s.finish(tx, false)
	unit.Committed()
	return nil
}

func (s *Store) finish(tx *txState, rollback bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rollback {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}
	for _, key := range tx.held {
		delete(s.locks, key)
	}
	tx.undo = nil
	tx.held = nil
	s.freed.Broadcast()
}

// lockLocked takes the row lock for key on behalf of the unit in ctx and
// keeps it until the unit ends. Outside a unit there is nothing to hold the
// lock for, so it is a no-op. s.mu must be held.
func (s *Store) lockLocked(ctx context.Context, key string) error {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok {
		return nil
	}

	for {
		owner, taken := s.locks[key]
		if !taken {
			s.locks[key] = tx
			tx.held = append(tx.held, key)
			return nil
		}
		if owner == tx {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.freed.Wait()
	}
}

// recordUndo registers f to run if the unit in ctx rolls back. s.mu must be
// held.
func (s *Store) recordUndo(ctx context.Context, f func()) {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok {
		tx.undo = append(tx.undo, f)
	}
}

func paginate(n, limit, offset int) (int, int) {
	limit, offset = ledger.ClampPage(limit, offset)
	if offset > n {
		offset = n
	}
	end := offset + limit
	if end > n {
		end = n
	}
	return offset, end
}

func errWalletMissing(userID string) error {
	return fmt.Errorf("wallet %q does not exist", userID)
}
