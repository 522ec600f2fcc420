package ledger

import (
	"context"

	"ecomove/internal/apperr"
	"ecomove/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

func (r *PostgresRepository) EnsureWallet(ctx context.Context, userID string) error {
	q := db.Conn(ctx, r.db)

	_, err := q.ExecContext(ctx,
		`INSERT INTO wallets (user_id)
		 VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return apperr.LedgerWrite("create wallet", err)
	}

	var locked string
	err = q.GetContext(ctx, &locked,
		`SELECT user_id
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	)
	if err != nil {
		return apperr.LedgerWrite("lock wallet", err)
	}

	return nil
}

func (r *PostgresRepository) Append(ctx context.Context, entry *Transaction) (*Transaction, error) {
	if entry.Amount == 0 {
		return nil, apperr.Invalid("amount", "cannot be zero")
	}
	if !entry.Category.Valid() {
		return nil, apperr.Invalid("category", "unknown category "+string(entry.Category))
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = StatusCompleted
	}

	saved := &Transaction{}
	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO transactions (id, user_id, amount, description, category, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, user_id, amount, description, category, status, created_at`,
		entry.ID, entry.UserID, entry.Amount, entry.Description, entry.Category, entry.Status,
	).StructScan(saved)
	if err != nil {
		return nil, apperr.LedgerWrite("append transaction", err)
	}

	return saved, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	limit, offset = ClampPage(limit, offset)

	txs := []Transaction{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &txs, `
		SELECT id, user_id, amount, description, category, status, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *PostgresRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := db.Conn(ctx, r.db).GetContext(ctx, &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.Conn(ctx, r.db).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`,
		userID,
	)
	return count, err
}
