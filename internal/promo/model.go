package promo

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrCodeNotFound        = errors.New("promo code not found")
	ErrCodeInactive        = errors.New("promo code is inactive")
	ErrCodeExpired         = errors.New("promo code has expired")
	ErrCodeExhausted       = errors.New("promo code usage limit reached")
	ErrMinimumAmountNotMet = errors.New("order amount below promo minimum")
	ErrCodeExists          = errors.New("promo code already exists")
)

type DiscountType string

const (
	TypePercentage DiscountType = "percentage"
	TypeFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == TypePercentage || t == TypeFixed
}

type Code struct {
	Code       string       `db:"code" json:"code"`
	Type       DiscountType `db:"type" json:"type"`
	Value      int64        `db:"value" json:"value"`
	UsageLimit int          `db:"usage_limit" json:"usage_limit"`
	UsageCount int          `db:"usage_count" json:"usage_count"`
	MinAmount  int64        `db:"min_amount" json:"min_amount"`
	ExpiryDate time.Time    `db:"expiry_date" json:"expiry_date"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// Result describes a consumed (or previously consumed) application.
type Result struct {
	Code          string `json:"code"`
	OrderID       string `json:"order_id,omitempty"`
	DiscountValue int64  `json:"discount_value"`
	NewUsageCount int    `json:"new_usage_count"`
	// Replayed is set when the order had already applied this code and the
	// stored outcome was returned without consuming another use.
	Replayed bool `json:"replayed,omitempty"`
}

type Redemption struct {
	Code            string    `db:"code" json:"code"`
	OrderID         string    `db:"order_id" json:"order_id"`
	DiscountValue   int64     `db:"discount_value" json:"discount_value"`
	UsageCountAfter int       `db:"usage_count_after" json:"usage_count_after"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Normalize makes code lookups case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Reason maps an evaluation error onto a short label for metrics and API clients.
func Reason(err error) string {
	switch {
	case err == nil:
		return "applied"
	case errors.Is(err, ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrCodeInactive):
		return "inactive"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrCodeExhausted):
		return "exhausted"
	case errors.Is(err, ErrMinimumAmountNotMet):
		return "minimum_not_met"
	default:
		return "error"
	}
}
