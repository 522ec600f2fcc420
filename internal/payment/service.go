package payment

import (
	"context"
	"errors"
	"time"

	"ecomove/internal/apperr"
	"ecomove/internal/db"
	"ecomove/internal/ledger"
	"ecomove/internal/logger"
	"ecomove/internal/metrics"
	"ecomove/internal/promo"
	"ecomove/internal/wallet"

	"github.com/google/uuid"
)

// Wallet is the subset of the wallet service a payment needs.
type Wallet interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, description string, category ledger.Category) (*ledger.Transaction, error)
}

type Promotions interface {
	Apply(ctx context.Context, code string, orderAmount int64, orderID string, now time.Time) (*promo.Result, error)
	Quote(ctx context.Context, code string, orderAmount int64, now time.Time) (*promo.Result, error)
}

type Service interface {
	Quote(ctx context.Context, req Request) (*Quote, error)
	// Checkout applies the promo code and debits the wallet as one unit of
	// work. If the debit fails the promo use is not consumed.
	Checkout(ctx context.Context, req Request) (*Receipt, error)
}

type service struct {
	tx     db.Transactor
	wallet Wallet
	promos Promotions
	now    func() time.Time
}

func NewService(tx db.Transactor, w Wallet, promos Promotions) Service {
	return &service{tx: tx, wallet: w, promos: promos, now: time.Now}
}

func (s *service) Quote(ctx context.Context, req Request) (*Quote, error) {
	if _, err := validate(req); err != nil {
		return nil, err
	}

	q := &Quote{Amount: req.Amount}
	if req.PromoCode != "" {
		res, err := s.promos.Quote(ctx, req.PromoCode, req.Amount, s.now())
		if err != nil {
			return nil, err
		}
		q.Discount = res.DiscountValue
		q.PromoCode = res.Code
	}
	q.FinalAmount = finalAmount(req.Amount, q.Discount)

	balance, err := s.wallet.GetBalance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	q.Balance = balance
	q.Sufficient = balance >= q.FinalAmount

	return q, nil
}

func (s *service) Checkout(ctx context.Context, req Request) (*Receipt, error) {
	category, err := validate(req)
	if err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		req.OrderID = uuid.NewString()
	}
	if req.Description == "" {
		req.Description = "order " + req.OrderID
	}
	withPromo := req.PromoCode != ""

	receipt := &Receipt{OrderID: req.OrderID, Amount: req.Amount}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if withPromo {
			res, err := s.promos.Apply(ctx, req.PromoCode, req.Amount, req.OrderID, s.now())
			if err != nil {
				return err
			}
			if res.Replayed {
				return ErrOrderAlreadyProcessed
			}
			receipt.Discount = res.DiscountValue
			receipt.PromoCode = res.Code
		}

		receipt.FinalAmount = finalAmount(req.Amount, receipt.Discount)
		if receipt.FinalAmount > 0 {
			txn, err := s.wallet.Debit(ctx, req.UserID, receipt.FinalAmount, req.Description, category)
			if err != nil {
				return err
			}
			receipt.Transaction = txn
		}

		balance, err := s.wallet.GetBalance(ctx, req.UserID)
		if err != nil {
			return err
		}
		receipt.Balance = balance
		return nil
	})
	if err != nil {
		metrics.RecordPayment(failureStatus(err), withPromo)
		logger.Info("checkout failed", "user_id", req.UserID, "order_id", req.OrderID, "error", err)
		return nil, err
	}

	db.AfterCommit(ctx, func() {
		metrics.RecordPayment("completed", withPromo)
		logger.Info("checkout completed",
			"user_id", req.UserID,
			"order_id", req.OrderID,
			"amount", req.Amount,
			"discount", receipt.Discount,
			"final_amount", receipt.FinalAmount,
		)
	})
	return receipt, nil
}

func validate(req Request) (ledger.Category, error) {
	if req.UserID == "" {
		return "", apperr.Invalid("user_id", "is required")
	}
	if req.Amount <= 0 {
		return "", apperr.Invalid("amount", "must be positive")
	}
	return ledger.ParseCategory(req.Category)
}

func finalAmount(amount, discount int64) int64 {
	return max(amount-discount, 0)
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return "insufficient_funds"
	case promo.IsRejection(err):
		return "promo_rejected"
	case errors.Is(err, ErrOrderAlreadyProcessed):
		return "duplicate"
	case errors.Is(err, apperr.ErrValidation):
		return "invalid"
	default:
		return "failed"
	}
}
