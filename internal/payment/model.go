package payment

import (
	"errors"

	"ecomove/internal/ledger"
)

// ErrOrderAlreadyProcessed is returned when a checkout replays an order whose
// promo code was already redeemed, meaning the order was paid before.
var ErrOrderAlreadyProcessed = errors.New("order already processed")

type Request struct {
	UserID      string `json:"-"`
	OrderID     string `json:"order_id" example:"b7c1d1c8-3f7e-4d59-9a55-0d7d3c2b2f10"`
	Amount      int64  `json:"amount" binding:"required,gt=0" example:"500"`
	Description string `json:"description" example:"Eco tote bag"`
	Category    string `json:"category" example:"shopping"`
	PromoCode   string `json:"promo_code" example:"SAVE10"`
}

// Quote is what the confirmation screen shows before the user pays.
type Quote struct {
	Amount      int64  `json:"amount"`
	Discount    int64  `json:"discount"`
	FinalAmount int64  `json:"final_amount"`
	PromoCode   string `json:"promo_code,omitempty"`
	Balance     int64  `json:"balance"`
	Sufficient  bool   `json:"sufficient"`
}

type Receipt struct {
	OrderID     string              `json:"order_id"`
	Amount      int64               `json:"amount"`
	Discount    int64               `json:"discount"`
	FinalAmount int64               `json:"final_amount"`
	PromoCode   string              `json:"promo_code,omitempty"`
	Transaction *ledger.Transaction `json:"transaction,omitempty"`
	Balance     int64               `json:"balance"`
}
