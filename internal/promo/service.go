package promo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"ecomove/internal/apperr"
	"ecomove/internal/db"
	"ecomove/internal/logger"
	"ecomove/internal/metrics"
	"ecomove/internal/settings"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

type Service interface {
	// Apply consumes one use of code for orderID and returns the discount.
	// Applying the same code to the same order again returns the stored
	// result without consuming another use.
	Apply(ctx context.Context, code string, orderAmount int64, orderID string, now time.Time) (*Result, error)
	// Quote evaluates code against orderAmount without consuming it.
	Quote(ctx context.Context, code string, orderAmount int64, now time.Time) (*Result, error)

	Create(ctx context.Context, in CreateInput, now time.Time) (*Code, error)
	Get(ctx context.Context, code string) (*Code, error)
	List(ctx context.Context, limit, offset int) ([]Code, error)
	Update(ctx context.Context, code string, in UpdateInput, now time.Time) (*Code, error)
	// Delete removes a never-redeemed code. Redeemed codes are deactivated
	// instead and the second return value is false.
	Delete(ctx context.Context, code string) (bool, error)
}

type CreateInput struct {
	Code       string       `json:"code" binding:"required"`
	Type       DiscountType `json:"type" binding:"required"`
	Value      int64        `json:"value" binding:"required"`
	UsageLimit int          `json:"usage_limit" binding:"required"`
	MinAmount  int64        `json:"min_amount"`
	ExpiryDate time.Time    `json:"expiry_date" binding:"required"`
	IsActive   *bool        `json:"is_active"`
}

type UpdateInput struct {
	Value      *int64     `json:"value"`
	UsageLimit *int       `json:"usage_limit"`
	MinAmount  *int64     `json:"min_amount"`
	ExpiryDate *time.Time `json:"expiry_date"`
	IsActive   *bool      `json:"is_active"`
}

type service struct {
	repo     Repository
	tx       db.Transactor
	settings settings.Provider
}

func NewService(repo Repository, tx db.Transactor, provider settings.Provider) Service {
	return &service{repo: repo, tx: tx, settings: provider}
}

func (s *service) Apply(ctx context.Context, raw string, orderAmount int64, orderID string, now time.Time) (*Result, error) {
	code := Normalize(raw)
	if err := validateRequest(code, orderAmount); err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, apperr.Invalid("order_id", "is required")
	}

	var res *Result
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		pc, err := s.repo.GetForUpdate(ctx, code)
		if err != nil {
			return err
		}

		prior, err := s.repo.FindRedemption(ctx, code, orderID)
		if err != nil {
			return err
		}
		if prior != nil {
			res = &Result{
				Code:          code,
				OrderID:       orderID,
				DiscountValue: prior.DiscountValue,
				NewUsageCount: prior.UsageCountAfter,
				Replayed:      true,
			}
			return nil
		}

		discount, err := s.discount(ctx, pc, orderAmount, now)
		if err != nil {
			return err
		}

		count, err := s.repo.IncrementUsage(ctx, code)
		if err != nil {
			return err
		}

		err = s.repo.SaveRedemption(ctx, &Redemption{
			Code:            code,
			OrderID:         orderID,
			DiscountValue:   discount,
			UsageCountAfter: count,
		})
		if err != nil {
			return err
		}

		res = &Result{Code: code, OrderID: orderID, DiscountValue: discount, NewUsageCount: count}
		return nil
	})
	if err != nil {
		s.recordRejection(code, err)
		return nil, err
	}

	if !res.Replayed {
		db.AfterCommit(ctx, func() {
			metrics.RecordPromoApplication("applied")
			logger.Info("promo applied", "code", code, "order_id", orderID, "discount", res.DiscountValue, "usage_count", res.NewUsageCount)
		})
	}
	return res, nil
}

func (s *service) Quote(ctx context.Context, raw string, orderAmount int64, now time.Time) (*Result, error) {
	code := Normalize(raw)
	if err := validateRequest(code, orderAmount); err != nil {
		return nil, err
	}

	pc, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	discount, err := s.discount(ctx, pc, orderAmount, now)
	if err != nil {
		return nil, err
	}

	return &Result{Code: code, DiscountValue: discount, NewUsageCount: pc.UsageCount}, nil
}

// discount evaluates pc and applies the global cap from settings.
func (s *service) discount(ctx context.Context, pc *Code, orderAmount int64, now time.Time) (int64, error) {
	discount, err := Evaluate(pc, orderAmount, now)
	if err != nil {
		return 0, err
	}

	capValue, err := s.settings.PromoMaxDiscount(ctx)
	if err != nil {
		return 0, fmt.Errorf("read promo cap: %w", err)
	}
	if capValue > 0 && discount > capValue {
		discount = capValue
	}
	return discount, nil
}

func (s *service) recordRejection(code string, err error) {
	reason := Reason(err)
	if reason == "error" {
		logger.Error("promo apply failed", "code", code, "error", err)
		return
	}
	metrics.RecordPromoApplication(reason)
	logger.Debug("promo rejected", "code", code, "reason", reason)
}

func (s *service) Create(ctx context.Context, in CreateInput, now time.Time) (*Code, error) {
	c := &Code{
		Code:       Normalize(in.Code),
		Type:       in.Type,
		Value:      in.Value,
		UsageLimit: in.UsageLimit,
		MinAmount:  in.MinAmount,
		ExpiryDate: in.ExpiryDate,
		IsActive:   true,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	if !codePattern.MatchString(c.Code) {
		return nil, apperr.Invalid("code", "must be 3-32 characters of A-Z, 0-9, _ or -")
	}
	if !c.Type.Valid() {
		return nil, apperr.Invalid("type", "must be percentage or fixed")
	}
	if err := validateTerms(c, now); err != nil {
		return nil, err
	}

	saved, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	logger.Info("promo code created", "code", saved.Code, "type", saved.Type, "value", saved.Value)
	return saved, nil
}

func (s *service) Get(ctx context.Context, code string) (*Code, error) {
	return s.repo.Get(ctx, Normalize(code))
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Code, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *service) Update(ctx context.Context, code string, in UpdateInput, now time.Time) (*Code, error) {
	var saved *Code
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, Normalize(code))
		if err != nil {
			return err
		}

		if in.Value != nil {
			c.Value = *in.Value
		}
		if in.UsageLimit != nil {
			c.UsageLimit = *in.UsageLimit
		}
		if in.MinAmount != nil {
			c.MinAmount = *in.MinAmount
		}
		if in.ExpiryDate != nil {
			c.ExpiryDate = *in.ExpiryDate
		}
		if in.IsActive != nil {
			c.IsActive = *in.IsActive
		}

		if c.UsageLimit < c.UsageCount {
			return apperr.Invalid("usage_limit", "cannot be lower than the current usage count")
		}
		// expiry is only re-checked when it changes
		if in.ExpiryDate == nil {
			now = time.Time{}
		}
		if err := validateTerms(c, now); err != nil {
			return err
		}

		saved, err = s.repo.Update(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *service) Delete(ctx context.Context, code string) (bool, error) {
	code = Normalize(code)
	deleted := false

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, code)
		if err != nil {
			return err
		}

		used, err := s.repo.CountRedemptions(ctx, code)
		if err != nil {
			return err
		}
		if used == 0 && c.UsageCount == 0 {
			deleted = true
			return s.repo.Delete(ctx, code)
		}

		c.IsActive = false
		_, err = s.repo.Update(ctx, c)
		return err
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func validateRequest(code string, orderAmount int64) error {
	if code == "" {
		return apperr.Invalid("code", "is required")
	}
	if orderAmount <= 0 {
		return apperr.Invalid("order_amount", "must be positive")
	}
	return nil
}

// validateTerms checks the numeric terms of c. A zero now skips the expiry check.
func validateTerms(c *Code, now time.Time) error {
	if c.Value <= 0 {
		return apperr.Invalid("value", "must be positive")
	}
	if c.Type == TypePercentage && c.Value > 100 {
		return apperr.Invalid("value", "percentage cannot exceed 100")
	}
	if c.UsageLimit < 1 {
		return apperr.Invalid("usage_limit", "must be at least 1")
	}
	if c.MinAmount < 0 {
		return apperr.Invalid("min_amount", "cannot be negative")
	}
	if c.ExpiryDate.IsZero() {
		return apperr.Invalid("expiry_date", "is required")
	}
	if !now.IsZero() && !c.ExpiryDate.After(now) {
		return apperr.Invalid("expiry_date", "must be in the future")
	}
	return nil
}

// IsRejection reports whether err is a business rejection of the code rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCodeNotFound) ||
		errors.Is(err, ErrCodeInactive) ||
		errors.Is(err, ErrCodeExpired) ||
		errors.Is(err, ErrCodeExhausted) ||
		errors.Is(err, ErrMinimumAmountNotMet)
}
