package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transactor runs fn inside a unit of work. A call made while a unit is
// already open on ctx joins it instead of starting a new one, so nested
// service calls commit or roll back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type unitKey struct{}
type sqlTxKey struct{}

// Unit tracks callbacks that must only run once the outermost unit of work
// has committed.
type Unit struct {
	afterCommit []func()
}

func NewUnit() *Unit {
	return &Unit{}
}

func WithUnit(ctx context.Context, u *Unit) context.Context {
	return context.WithValue(ctx, unitKey{}, u)
}

func UnitFrom(ctx context.Context) *Unit {
	u, _ := ctx.Value(unitKey{}).(*Unit)
	return u
}

func InUnit(ctx context.Context) bool {
	return UnitFrom(ctx) != nil
}

// AfterCommit defers f until the surrounding unit commits. Outside of a unit
// f runs immediately. Hooks are dropped on rollback.
func AfterCommit(ctx context.Context, f func()) {
	if u := UnitFrom(ctx); u != nil {
		u.afterCommit = append(u.afterCommit, f)
		return
	}
	f()
}

func (u *Unit) Committed() {
	hooks := u.afterCommit
	u.afterCommit = nil
	for _, f := range hooks {
		f()
	}
}

// Queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
type Queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// Conn returns the transaction bound to ctx, or the pool when there is none.
func Conn(ctx context.Context, db *sqlx.DB) Queryer {
	if tx, ok := ctx.Value(sqlTxKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type SQLTransactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InUnit(ctx) {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	unit := NewUnit()
	txCtx := context.WithValue(WithUnit(ctx, unit), sqlTxKey{}, tx)

	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	unit.Committed()
	return nil
}
