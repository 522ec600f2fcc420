package ecohabit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"ecomove/internal/apperr"
	"ecomove/internal/db"
	"ecomove/internal/ledger"
	"ecomove/internal/logger"
	"ecomove/internal/metrics"
	"ecomove/internal/notify"
	"ecomove/internal/settings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const creditDescription = "carbon credit"

// Crediter is the part of the wallet the workflow needs. Credit must join the
// unit of work carried by ctx.
type Crediter interface {
	Credit(ctx context.Context, userID string, amount int64, description string, category ledger.Category) (*ledger.Transaction, error)
}

type Service interface {
	Submit(ctx context.Context, userID string, in SubmitInput) (*Declaration, error)
	// Validate approves a pending declaration and credits the owner with
	// co2SavedKg converted at the current rate, all in one unit of work.
	Validate(ctx context.Context, id string, co2SavedKg decimal.Decimal, comment string) (*Declaration, error)
	Reject(ctx context.Context, id string, comment string) (*Declaration, error)
	Get(ctx context.Context, id string) (*Declaration, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Declaration, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Declaration, error)
}

type service struct {
	repo     Repository
	tx       db.Transactor
	crediter Crediter
	settings settings.Provider
	notifier notify.Publisher
	now      func() time.Time
}

func NewService(repo Repository, tx db.Transactor, crediter Crediter, provider settings.Provider, notifier notify.Publisher) Service {
	return &service{
		repo:     repo,
		tx:       tx,
		crediter: crediter,
		settings: provider,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *service) Submit(ctx context.Context, userID string, in SubmitInput) (*Declaration, error) {
	d := &Declaration{
		ID:                uuid.NewString(),
		UserID:            userID,
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		Category:          in.Category,
		Frequency:         in.Frequency,
		EstimatedImpactKg: in.EstimatedImpactKg,
		Proofs:            in.Proofs,
		Status:            StatusPending,
	}
	if d.Frequency == "" {
		d.Frequency = FrequencyDaily
	}
	if d.Proofs == nil {
		d.Proofs = []string{}
	}
	if err := validateSubmission(d); err != nil {
		return nil, err
	}

	saved, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, err
	}

	logger.Info("eco-habit submitted", "id", saved.ID, "user_id", userID, "category", saved.Category)
	return saved, nil
}

func (s *service) Validate(ctx context.Context, id string, co2SavedKg decimal.Decimal, comment string) (*Declaration, error) {
	if !co2SavedKg.IsPositive() {
		return nil, apperr.Invalid("co2_saved_kg", "must be positive")
	}

	var validated *Declaration
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d.Status != StatusPending {
			return ErrAlreadyDecided
		}

		rate, err := s.settings.ConversionRate(ctx)
		if err != nil {
			return fmt.Errorf("read conversion rate: %w", err)
		}
		amount, err := CreditAmount(co2SavedKg, rate)
		if err != nil {
			return err
		}
		if amount < 1 {
			return apperr.Invalid("co2_saved_kg", "converts to less than one credit")
		}

		txn, err := s.crediter.Credit(ctx, d.UserID, amount, creditDescription, ledger.CategoryCarbonCredit)
		if err != nil {
			return err
		}

		decision := Decision{
			Co2SavedKg:    co2SavedKg,
			CreditAmount:  amount,
			TransactionID: txn.ID,
			Comment:       comment,
			At:            s.now().UTC(),
		}
		if err := s.repo.MarkValidated(ctx, id, decision); err != nil {
			return err
		}

		applyDecision(d, StatusValidated, decision)
		validated = d

		db.AfterCommit(ctx, func() {
			metrics.RecordEcoHabitDecision(string(StatusValidated))
			metrics.RecordCarbonCredit(amount)
			logger.Info("eco-habit validated", "id", id, "user_id", d.UserID, "co2_kg", co2SavedKg.String(), "credit", amount, "transaction_id", txn.ID)
			notify.Dispatch(ctx, s.notifier, notify.Event{
				Type:      notify.EcoHabitValidated,
				UserID:    d.UserID,
				Title:     "Eco-habit validated",
				Body:      fmt.Sprintf("%q earned %d carbon credits", d.Title, amount),
				Amount:    amount,
				Reference: id,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return validated, nil
}

func (s *service) Reject(ctx context.Context, id string, comment string) (*Declaration, error) {
	var rejected *Declaration
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d.Status != StatusPending {
			return ErrAlreadyDecided
		}

		decision := Decision{Comment: comment, At: s.now().UTC()}
		if err := s.repo.MarkRejected(ctx, id, comment, decision.At); err != nil {
			return err
		}

		applyDecision(d, StatusRejected, decision)
		rejected = d

		db.AfterCommit(ctx, func() {
			metrics.RecordEcoHabitDecision(string(StatusRejected))
			logger.Info("eco-habit rejected", "id", id, "user_id", d.UserID)
			notify.Dispatch(ctx, s.notifier, notify.Event{
				Type:      notify.EcoHabitRejected,
				UserID:    d.UserID,
				Title:     "Eco-habit not validated",
				Body:      comment,
				Reference: id,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func (s *service) Get(ctx context.Context, id string) (*Declaration, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Declaration, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Declaration, error) {
	if !status.Valid() {
		return nil, apperr.Invalid("status", "must be pending, validated or rejected")
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

var maxCredit = decimal.NewFromInt(math.MaxInt64)

// CreditAmount converts kilograms of CO2 into whole credits, rounding half
// away from zero. Amounts that do not fit in an int64 are rejected.
func CreditAmount(co2Kg, rate decimal.Decimal) (int64, error) {
	amount := co2Kg.Mul(rate).Round(0)
	if amount.GreaterThan(maxCredit) {
		return 0, apperr.Invalid("co2_saved_kg", "converts to more credits than a wallet can hold")
	}
	return amount.IntPart(), nil
}

func applyDecision(d *Declaration, status Status, dec Decision) {
	at := dec.At
	d.Status = status
	d.AdminComment = dec.Comment
	d.ValidatedAt = &at
	if status == StatusValidated {
		txID := dec.TransactionID
		d.ValidatedCo2Kg = decimal.NullDecimal{Decimal: dec.Co2SavedKg, Valid: true}
		d.CreditAmount = dec.CreditAmount
		d.CreditTransactionID = &txID
	}
}

func validateSubmission(d *Declaration) error {
	if d.UserID == "" {
		return apperr.Invalid("user_id", "is required")
	}
	if d.Title == "" {
		return apperr.Invalid("title", "is required")
	}
	if d.Description == "" {
		return apperr.Invalid("description", "is required")
	}
	if !d.Category.Valid() {
		return apperr.Invalid("category", "unknown category "+string(d.Category))
	}
	if !d.Frequency.Valid() {
		return apperr.Invalid("frequency", "must be daily, weekly, monthly or occasional")
	}
	if d.EstimatedImpactKg.IsNegative() {
		return apperr.Invalid("estimated_impact_kg", "cannot be negative")
	}
	if len(d.Proofs) > MaxProofs {
		return apperr.Invalid("proofs", fmt.Sprintf("at most %d proofs", MaxProofs))
	}
	return nil
}
