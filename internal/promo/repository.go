package promo

import (
	"context"
	"database/sql"
	"errors"

	"ecomove/internal/db"
	"ecomove/internal/ledger"

	"github.com/jmoiron/sqlx"
)

const codeColumns = `code, type, value, usage_limit, usage_count, min_amount, expiry_date, is_active, created_at, updated_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Code) (*Code, error) {
	saved := &Code{}
	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO promo_codes (code, type, value, usage_limit, min_amount, expiry_date, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+codeColumns,
		c.Code, c.Type, c.Value, c.UsageLimit, c.MinAmount, c.ExpiryDate, c.IsActive,
	).StructScan(saved)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrCodeExists
		}
		return nil, err
	}
	return saved, nil
}

func (r *PostgresRepository) Get(ctx context.Context, code string) (*Code, error) {
	return r.get(ctx, `SELECT `+codeColumns+` FROM promo_codes WHERE code = $1`, code)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, code string) (*Code, error) {
	return r.get(ctx, `SELECT `+codeColumns+` FROM promo_codes WHERE code = $1 FOR UPDATE`, code)
}

func (r *PostgresRepository) get(ctx context.Context, query, code string) (*Code, error) {
	c := &Code{}
	err := db.Conn(ctx, r.db).GetContext(ctx, c, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]Code, error) {
	limit, offset = ledger.ClampPage(limit, offset)

	codes := []Code{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &codes,
		`SELECT `+codeColumns+` FROM promo_codes ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *Code) (*Code, error) {
	saved := &Code{}
	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`UPDATE promo_codes
		 SET value = $2, usage_limit = $3, min_amount = $4, expiry_date = $5, is_active = $6, updated_at = NOW()
		 WHERE code = $1
		 RETURNING `+codeColumns,
		c.Code, c.Value, c.UsageLimit, c.MinAmount, c.ExpiryDate, c.IsActive,
	).StructScan(saved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return saved, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM promo_codes WHERE code = $1`, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementUsage(ctx context.Context, code string) (int, error) {
	var count int
	err := db.Conn(ctx, r.db).GetContext(ctx, &count,
		`UPDATE promo_codes
		 SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE code = $1 AND usage_count < usage_limit
		 RETURNING usage_count`,
		code,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCodeExhausted
		}
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) FindRedemption(ctx context.Context, code, orderID string) (*Redemption, error) {
	red := &Redemption{}
	err := db.Conn(ctx, r.db).GetContext(ctx, red,
		`SELECT code, order_id, discount_value, usage_count_after, created_at
		 FROM promo_redemptions
		 WHERE code = $1 AND order_id = $2`,
		code, orderID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return red, nil
}

func (r *PostgresRepository) SaveRedemption(ctx context.Context, red *Redemption) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO promo_redemptions (code, order_id, discount_value, usage_count_after)
		 VALUES ($1, $2, $3, $4)`,
		red.Code, red.OrderID, red.DiscountValue, red.UsageCountAfter,
	)
	return err
}

func (r *PostgresRepository) CountRedemptions(ctx context.Context, code string) (int, error) {
	var count int
	err := db.Conn(ctx, r.db).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM promo_redemptions WHERE code = $1`, code)
	return count, err
}
