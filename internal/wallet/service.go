package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ecomove/internal/apperr"
	"ecomove/internal/db"
	"ecomove/internal/ledger"
	"ecomove/internal/logger"
	"ecomove/internal/metrics"
	"ecomove/internal/notify"
)

type Service interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	GetWallet(ctx context.Context, userID string) (*Wallet, error)
	Credit(ctx context.Context, userID string, amount int64, description string, category ledger.Category) (*ledger.Transaction, error)
	Debit(ctx context.Context, userID string, amount int64, description string, category ledger.Category) (*ledger.Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]ledger.Transaction, error)
	Recharge(ctx context.Context, userID string, amount int64, method RechargeMethod) (*ledger.Transaction, error)
}

type service struct {
	ledger      ledger.Repository
	tx          db.Transactor
	notifier    notify.Publisher
	locks       *userLocks
	rechargeMax int64
}

func NewService(ledgerRepo ledger.Repository, tx db.Transactor, notifier notify.Publisher, rechargeMax int64) Service {
	return &service{
		ledger:      ledgerRepo,
		tx:          tx,
		notifier:    notifier,
		locks:       newUserLocks(),
		rechargeMax: rechargeMax,
	}
}

func (s *service) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperr.Invalid("user_id", "is required")
	}
	return s.ledger.SumByUser(ctx, userID)
}

func (s *service) GetWallet(ctx context.Context, userID string) (*Wallet, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.ledger.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Wallet{UserID: userID, Balance: balance, TransactionCount: count}, nil
}

func (s *service) Credit(ctx context.Context, userID string, amount int64, description string, category ledger.Category) (*ledger.Transaction, error) {
	if err := validateMovement(userID, amount, category); err != nil {
		return nil, err
	}

	var saved *ledger.Transaction
	err := s.serialized(ctx, userID, func(ctx context.Context) error {
		balance, err := s.ledger.SumByUser(ctx, userID)
		if err != nil {
			return err
		}
		if balance > math.MaxInt64-amount {
			return apperr.Invalid("amount", "would overflow the wallet balance")
		}

		saved, err = s.ledger.Append(ctx, &ledger.Transaction{
			UserID:      userID,
			Amount:      amount,
			Description: description,
			Category:    category,
		})
		if err != nil {
			return err
		}

		db.AfterCommit(ctx, func() {
			logger.Info("wallet credited", "user_id", userID, "amount", amount, "category", category, "transaction_id", saved.ID)
			metrics.RecordWalletOperation("credit", string(category), amount)
			notify.Dispatch(ctx, s.notifier, notify.Event{
				Type:      notify.WalletCredited,
				UserID:    userID,
				Title:     "Wallet credited",
				Body:      fmt.Sprintf("%d credited: %s", amount, description),
				Amount:    amount,
				Reference: saved.ID,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (s *service) Debit(ctx context.Context, userID string, amount int64, description string, category ledger.Category) (*ledger.Transaction, error) {
	if err := validateMovement(userID, amount, category); err != nil {
		return nil, err
	}

	var saved *ledger.Transaction
	err := s.serialized(ctx, userID, func(ctx context.Context) error {
		balance, err := s.ledger.SumByUser(ctx, userID)
		if err != nil {
			return err
		}
		if balance < amount {
			return &InsufficientFundsError{Balance: balance, Requested: amount}
		}

		saved, err = s.ledger.Append(ctx, &ledger.Transaction{
			UserID:      userID,
			Amount:      -amount,
			Description: description,
			Category:    category,
		})
		if err != nil {
			return err
		}

		db.AfterCommit(ctx, func() {
			logger.Info("wallet debited", "user_id", userID, "amount", amount, "category", category, "transaction_id", saved.ID)
			metrics.RecordWalletOperation("debit", string(category), amount)
			notify.Dispatch(ctx, s.notifier, notify.Event{
				Type:      notify.WalletDebited,
				UserID:    userID,
				Title:     "Payment completed",
				Body:      fmt.Sprintf("%d debited: %s", amount, description),
				Amount:    -amount,
				Reference: saved.ID,
			})
		})
		return nil
	})
	if err != nil {
		var insufficient *InsufficientFundsError
		if errors.As(err, &insufficient) {
			metrics.RecordInsufficientFunds()
			logger.Info("debit refused", "user_id", userID, "balance", insufficient.Balance, "requested", amount)
		}
		return nil, err
	}

	return saved, nil
}

func (s *service) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]ledger.Transaction, error) {
	if userID == "" {
		return nil, apperr.Invalid("user_id", "is required")
	}
	return s.ledger.ListByUser(ctx, userID, limit, offset)
}

// Recharge credits the wallet from an external rail. The rails are stubbed:
// the request is trusted as already settled.
func (s *service) Recharge(ctx context.Context, userID string, amount int64, method RechargeMethod) (*ledger.Transaction, error) {
	if !method.Valid() {
		return nil, apperr.Invalid("method", "unsupported recharge method")
	}
	if s.rechargeMax > 0 && amount > s.rechargeMax {
		return nil, apperr.Invalid("amount", fmt.Sprintf("must not exceed %d", s.rechargeMax))
	}
	return s.Credit(ctx, userID, amount, "recharge via "+string(method), ledger.CategoryRecharge)
}

// serialized runs fn with the user's wallet row locked. Standalone calls also
// queue on a per-user mutex before opening a transaction. Inside an outer
// unit of work only the row lock is taken, and it is held until that unit ends.
func (s *service) serialized(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	if !db.InUnit(ctx) {
		unlock := s.locks.lock(userID)
		defer unlock()
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.EnsureWallet(ctx, userID); err != nil {
			return err
		}
		return fn(ctx)
	})
}

func validateMovement(userID string, amount int64, category ledger.Category) error {
	if userID == "" {
		return apperr.Invalid("user_id", "is required")
	}
	if amount <= 0 {
		return apperr.Invalid("amount", "must be positive")
	}
	if !category.Valid() {
		return apperr.Invalid("category", "unknown category "+string(category))
	}
	return nil
}
