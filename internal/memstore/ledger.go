package memstore

import (
	"context"

	"ecomove/internal/apperr"
	"ecomove/internal/ledger"

	"github.com/google/uuid"
)

type LedgerRepository struct {
	s *Store
}

func (r *LedgerRepository) EnsureWallet(ctx context.Context, userID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lockLocked(ctx, "wallet:"+userID); err != nil {
		return apperr.LedgerWrite("lock wallet", err)
	}

	if _, ok := s.wallets[userID]; !ok {
		s.wallets[userID] = s.now()
		s.recordUndo(ctx, func() { delete(s.wallets, userID) })
	}
	return nil
}

func (r *LedgerRepository) Append(ctx context.Context, t *ledger.Transaction) (*ledger.Transaction, error) {
	if t.Amount == 0 {
		return nil, apperr.Invalid("amount", "cannot be zero")
	}
	if !t.Category.Valid() {
		return nil, apperr.Invalid("category", "unknown category "+string(t.Category))
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[t.UserID]; !ok {
		return nil, apperr.LedgerWrite("append transaction", errWalletMissing(t.UserID))
	}

	saved := *t
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.Status == "" {
		saved.Status = ledger.StatusCompleted
	}
	saved.CreatedAt = s.now()

	s.entries = append(s.entries, saved)
	id := saved.ID
	s.recordUndo(ctx, func() {
		for i := len(s.entries) - 1; i >= 0; i-- {
			if s.entries[i].ID == id {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				return
			}
		}
	})

	return &saved, nil
}

// ListByUser returns newest first. Entries are kept in insertion order.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ledger.Transaction, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var mine []ledger.Transaction
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].UserID == userID {
			mine = append(mine, s.entries[i])
		}
	}

	from, to := paginate(len(mine), limit, offset)
	out := make([]ledger.Transaction, 0, to-from)
	return append(out, mine[from:to]...), nil
}

func (r *LedgerRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, e := range s.entries {
		if e.UserID == userID {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (r *LedgerRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}
