package memstore

import (
	"context"
	"sort"
	"time"

	"ecomove/internal/ecohabit"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EcoHabitRepository struct {
	s *Store
}

func clone(d ecohabit.Declaration) *ecohabit.Declaration {
	d.Proofs = append(d.Proofs[:0:0], d.Proofs...)
	return &d
}

func (r *EcoHabitRepository) Create(ctx context.Context, d *ecohabit.Declaration) (*ecohabit.Declaration, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *clone(*d)
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.Proofs == nil {
		saved.Proofs = []string{}
	}
	saved.CreatedAt = s.now()
	s.declarations[saved.ID] = saved

	id := saved.ID
	s.recordUndo(ctx, func() { delete(s.declarations, id) })
	return clone(saved), nil
}

func (r *EcoHabitRepository) Get(ctx context.Context, id string) (*ecohabit.Declaration, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.declarations[id]
	if !ok {
		return nil, ecohabit.ErrNotFound
	}
	return clone(d), nil
}

func (r *EcoHabitRepository) GetForUpdate(ctx context.Context, id string) (*ecohabit.Declaration, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.declarations[id]; !ok {
		return nil, ecohabit.ErrNotFound
	}
	if err := s.lockLocked(ctx, "eco:"+id); err != nil {
		return nil, err
	}

	d, ok := s.declarations[id]
	if !ok {
		return nil, ecohabit.ErrNotFound
	}
	return clone(d), nil
}

func (r *EcoHabitRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ecohabit.Declaration, error) {
	return r.list(limit, offset, func(d ecohabit.Declaration) bool { return d.UserID == userID }, false)
}

func (r *EcoHabitRepository) ListByStatus(ctx context.Context, status ecohabit.Status, limit, offset int) ([]ecohabit.Declaration, error) {
	return r.list(limit, offset, func(d ecohabit.Declaration) bool { return d.Status == status }, true)
}

func (r *EcoHabitRepository) list(limit, offset int, keep func(ecohabit.Declaration) bool, oldestFirst bool) ([]ecohabit.Declaration, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []ecohabit.Declaration
	for _, d := range s.declarations {
		if keep(d) {
			matched = append(matched, *clone(d))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		if oldestFirst {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	from, to := paginate(len(matched), limit, offset)
	out := make([]ecohabit.Declaration, 0, to-from)
	return append(out, matched[from:to]...), nil
}

func (r *EcoHabitRepository) MarkValidated(ctx context.Context, id string, dec ecohabit.Decision) error {
	return r.decide(ctx, id, func(d *ecohabit.Declaration) {
		txID := dec.TransactionID
		d.Status = ecohabit.StatusValidated
		d.ValidatedCo2Kg = decimal.NullDecimal{Decimal: dec.Co2SavedKg, Valid: true}
		d.CreditAmount = dec.CreditAmount
		d.CreditTransactionID = &txID
		d.AdminComment = dec.Comment
		d.ValidatedAt = timePtr(dec.At)
	})
}

func (r *EcoHabitRepository) MarkRejected(ctx context.Context, id string, comment string, at time.Time) error {
	return r.decide(ctx, id, func(d *ecohabit.Declaration) {
		d.Status = ecohabit.StatusRejected
		d.AdminComment = comment
		d.ValidatedAt = timePtr(at)
	})
}

// decide applies change to a pending declaration only.
func (r *EcoHabitRepository) decide(ctx context.Context, id string, change func(d *ecohabit.Declaration)) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.declarations[id]
	if !ok || prev.Status != ecohabit.StatusPending {
		return ecohabit.ErrAlreadyDecided
	}

	next := *clone(prev)
	change(&next)
	s.declarations[id] = next

	s.recordUndo(ctx, func() { s.declarations[id] = prev })
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
