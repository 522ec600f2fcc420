// Package dbtest holds helpers for service tests that mock repositories.
package dbtest

import (
	"context"

	"ecomove/internal/db"
)

// Transactor opens a unit of work without any storage behind it. It counts
// commits and rollbacks so tests can assert on transaction boundaries.
type Transactor struct {
	Commits   int
	Rollbacks int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.InUnit(ctx) {
		return fn(ctx)
	}

	unit := db.NewUnit()
	if err := fn(db.WithUnit(ctx, unit)); err != nil {
		t.Rollbacks++
		return err
	}

	t.Commits++
	unit.Committed()
	return nil
}
