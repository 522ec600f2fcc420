package memstore

import (
	"context"
	"fmt"
	"sort"

	"ecomove/internal/promo"
)

type PromoRepository struct {
	s *Store
}

func (r *PromoRepository) Create(ctx context.Context, c *promo.Code) (*promo.Code, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[c.Code]; ok {
		return nil, promo.ErrCodeExists
	}

	saved := *c
	saved.UsageCount = 0
	saved.CreatedAt = s.now()
	saved.UpdatedAt = saved.CreatedAt
	s.codes[saved.Code] = saved

	key := saved.Code
	s.recordUndo(ctx, func() { delete(s.codes, key) })
	return &saved, nil
}

func (r *PromoRepository) Get(ctx context.Context, code string) (*promo.Code, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, promo.ErrCodeNotFound
	}
	return &c, nil
}

func (r *PromoRepository) GetForUpdate(ctx context.Context, code string) (*promo.Code, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code]; !ok {
		return nil, promo.ErrCodeNotFound
	}
	if err := s.lockLocked(ctx, "promo:"+code); err != nil {
		return nil, err
	}

	// re-read: the code may have changed or gone while we waited
	c, ok := s.codes[code]
	if !ok {
		return nil, promo.ErrCodeNotFound
	}
	return &c, nil
}

// List returns the newest codes first.
func (r *PromoRepository) List(ctx context.Context, limit, offset int) ([]promo.Code, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]promo.Code, 0, len(s.codes))
	for _, c := range s.codes {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Code < all[j].Code
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	from, to := paginate(len(all), limit, offset)
	return all[from:to], nil
}

func (r *PromoRepository) Update(ctx context.Context, c *promo.Code) (*promo.Code, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.codes[c.Code]
	if !ok {
		return nil, promo.ErrCodeNotFound
	}

	saved := prev
	saved.Value = c.Value
	saved.UsageLimit = c.UsageLimit
	saved.MinAmount = c.MinAmount
	saved.ExpiryDate = c.ExpiryDate
	saved.IsActive = c.IsActive
	saved.UpdatedAt = s.now()
	s.codes[c.Code] = saved

	s.recordUndo(ctx, func() { s.codes[prev.Code] = prev })
	return &saved, nil
}

func (r *PromoRepository) Delete(ctx context.Context, code string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.codes[code]
	if !ok {
		return promo.ErrCodeNotFound
	}
	delete(s.codes, code)

	s.recordUndo(ctx, func() { s.codes[prev.Code] = prev })
	return nil
}

func (r *PromoRepository) IncrementUsage(ctx context.Context, code string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok || c.UsageCount >= c.UsageLimit {
		return 0, promo.ErrCodeExhausted
	}

	c.UsageCount++
	c.UpdatedAt = s.now()
	s.codes[code] = c

	s.recordUndo(ctx, func() {
		if cur, ok := s.codes[code]; ok {
			cur.UsageCount--
			s.codes[code] = cur
		}
	})
	return c.UsageCount, nil
}

func (r *PromoRepository) FindRedemption(ctx context.Context, code, orderID string) (*promo.Redemption, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	red, ok := s.redemptions[redemptionKey{code: code, orderID: orderID}]
	if !ok {
		return nil, nil
	}
	return &red, nil
}

func (r *PromoRepository) SaveRedemption(ctx context.Context, red *promo.Redemption) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := redemptionKey{code: red.Code, orderID: red.OrderID}
	if _, ok := s.redemptions[key]; ok {
		return fmt.Errorf("redemption of %s for order %s already recorded", red.Code, red.OrderID)
	}

	saved := *red
	saved.CreatedAt = s.now()
	s.redemptions[key] = saved

	s.recordUndo(ctx, func() { delete(s.redemptions, key) })
	return nil
}

func (r *PromoRepository) CountRedemptions(ctx context.Context, code string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.redemptions {
		if key.code == code {
			n++
		}
	}
	return n, nil
}
