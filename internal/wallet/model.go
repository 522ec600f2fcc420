package wallet

import (
	"errors"
	"fmt"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// InsufficientFundsError carries the figures a client needs to offer a recharge.
type InsufficientFundsError struct {
	Balance   int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, requested %d", e.Balance, e.Requested)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Requested - e.Balance
}

// Wallet is a read model; the balance is always derived from the ledger.
type Wallet struct {
	UserID           string `json:"user_id"`
	Balance          int64  `json:"balance"`
	TransactionCount int    `json:"transaction_count"`
}

type RechargeMethod string

const (
	RechargeMobileMoney RechargeMethod = "mobile_money"
	RechargeCard        RechargeMethod = "card"
)

func (m RechargeMethod) Valid() bool {
	return m == RechargeMobileMoney || m == RechargeCard
}
