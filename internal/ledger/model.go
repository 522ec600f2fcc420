package ledger

import (
	"time"

	"ecomove/internal/apperr"
)

type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryShopping     Category = "shopping"
	CategoryTransport    Category = "transport"
	CategoryDelivery     Category = "delivery"
	CategoryRecharge     Category = "recharge"
	CategoryCarbonCredit Category = "carbon-credit"
)

var categories = map[Category]struct{}{
	CategoryGeneral:      {},
	CategoryShopping:     {},
	CategoryTransport:    {},
	CategoryDelivery:     {},
	CategoryRecharge:     {},
	CategoryCarbonCredit: {},
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// ParseCategory maps client input onto a known category. Empty input means general.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryGeneral, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", apperr.Invalid("category", "unknown category "+s)
	}
	return c, nil
}

type Status string

const StatusCompleted Status = "completed"

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Transaction is one immutable ledger entry. Amount is signed in the
// smallest currency unit: credits are positive, debits negative.
type Transaction struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	Category    Category  `db:"category" json:"category"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ClampPage normalises listing parameters.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
