package ecohabit

import (
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("eco-habit declaration not found")
	ErrAlreadyDecided = errors.New("eco-habit declaration already decided")
)

type Category string

const (
	CategoryTransport Category = "transport"
	CategoryEnergy    Category = "energy"
	CategoryFood      Category = "food"
	CategoryWaste     Category = "waste"
	CategoryWater     Category = "water"
	CategoryOther     Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTransport, CategoryEnergy, CategoryFood, CategoryWaste, CategoryWater, CategoryOther:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyDaily      Frequency = "daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyOccasional Frequency = "occasional"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOccasional:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusValidated || s == StatusRejected
}

const MaxProofs = 10

// Declaration is a user's claim of a sustainable habit. It moves from pending
// to validated or rejected exactly once.
type Declaration struct {
	ID                  string              `db:"id" json:"id"`
	UserID              string              `db:"user_id" json:"user_id"`
	Title               string              `db:"title" json:"title"`
	Description         string              `db:"description" json:"description"`
	Category            Category            `db:"category" json:"category"`
	Frequency           Frequency           `db:"frequency" json:"frequency"`
	EstimatedImpactKg   decimal.Decimal     `db:"estimated_impact_kg" json:"estimated_impact_kg"`
	Proofs              pq.StringArray      `db:"proofs" json:"proofs"`
	Status              Status              `db:"status" json:"status"`
	AdminComment        string              `db:"admin_comment" json:"admin_comment"`
	ValidatedCo2Kg      decimal.NullDecimal `db:"validated_co2_kg" json:"validated_co2_kg"`
	CreditAmount        int64               `db:"credit_amount" json:"credit_amount"`
	CreditTransactionID *string             `db:"credit_transaction_id" json:"credit_transaction_id,omitempty"`
	CreatedAt           time.Time           `db:"created_at" json:"created_at"`
	ValidatedAt         *time.Time          `db:"validated_at" json:"validated_at,omitempty"`
}

type SubmitInput struct {
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description" binding:"required"`
	Category          Category        `json:"category" binding:"required"`
	Frequency         Frequency       `json:"frequency"`
	EstimatedImpactKg decimal.Decimal `json:"estimated_impact_kg"`
	Proofs            []string        `json:"proofs"`
}

// Decision is what an admin records when validating or rejecting.
type Decision struct {
	Co2SavedKg    decimal.Decimal
	CreditAmount  int64
	TransactionID string
	Comment       string
	At            time.Time
}
