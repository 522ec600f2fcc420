package ecohabit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ecomove/internal/db"
	"ecomove/internal/ledger"

	"github.com/jmoiron/sqlx"
)

const declarationColumns = `id, user_id, title, description, category, frequency, estimated_impact_kg, proofs,
	status, admin_comment, validated_co2_kg, credit_amount, credit_transaction_id, created_at, validated_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

func (r *PostgresRepository) Create(ctx context.Context, d *Declaration) (*Declaration, error) {
	saved := &Declaration{}
	err := db.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO eco_habit_declarations (id, user_id, title, description, category, frequency, estimated_impact_kg, proofs, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+declarationColumns,
		d.ID, d.UserID, d.Title, d.Description, d.Category, d.Frequency, d.EstimatedImpactKg, d.Proofs, d.Status,
	).StructScan(saved)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Declaration, error) {
	return r.get(ctx, `SELECT `+declarationColumns+` FROM eco_habit_declarations WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*Declaration, error) {
	return r.get(ctx, `SELECT `+declarationColumns+` FROM eco_habit_declarations WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*Declaration, error) {
	d := &Declaration{}
	if err := db.Conn(ctx, r.db).GetContext(ctx, d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || db.IsInvalidInput(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Declaration, error) {
	limit, offset = ledger.ClampPage(limit, offset)

	list := []Declaration{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &list,
		`SELECT `+declarationColumns+`
		 FROM eco_habit_declarations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Declaration, error) {
	limit, offset = ledger.ClampPage(limit, offset)

	list := []Declaration{}
	err := db.Conn(ctx, r.db).SelectContext(ctx, &list,
		`SELECT `+declarationColumns+`
		 FROM eco_habit_declarations
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *PostgresRepository) MarkValidated(ctx context.Context, id string, d Decision) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE eco_habit_declarations
		 SET status = 'validated', validated_co2_kg = $2, credit_amount = $3,
		     credit_transaction_id = $4, admin_comment = $5, validated_at = $6
		 WHERE id = $1 AND status = 'pending'`,
		id, d.Co2SavedKg, d.CreditAmount, d.TransactionID, d.Comment, d.At,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) MarkRejected(ctx context.Context, id string, comment string, at time.Time) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE eco_habit_declarations
		 SET status = 'rejected', admin_comment = $2, validated_at = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, comment, at,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyDecided
	}
	return nil
}
