package integration_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomove/internal/ecohabit"
	"ecomove/internal/ledger"
)

func TestValidateMintsCredits_Integration(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	decl, err := s.habits.Submit(ctx, "user-1", ecohabit.SubmitInput{
		Title:       "Cycling to work",
		Description: "20 km a day",
		Category:    ecohabit.CategoryTransport,
		Proofs:      []string{"https://example.com/strava.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, ecohabit.StatusPending, decl.Status)

	validated, err := s.habits.Validate(ctx, decl.ID, decimal.RequireFromString("15.5"), "looks right")
	require.NoError(t, err)
	assert.Equal(t, int64(961), validated.CreditAmount)

	stored, err := s.habits.Get(ctx, decl.ID)
	require.NoError(t, err)
	assert.Equal(t, ecohabit.StatusValidated, stored.Status)
	assert.Equal(t, []string{"https://example.com/strava.png"}, []string(stored.Proofs))
	require.NotNil(t, stored.CreditTransactionID)

	txs, err := s.wallet.ListTransactions(ctx, "user-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, *stored.CreditTransactionID, txs[0].ID)
	assert.Equal(t, ledger.CategoryCarbonCredit, txs[0].Category)
}

func TestConcurrentValidation_Integration(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	decl, err := s.habits.Submit(ctx, "user-1", ecohabit.SubmitInput{Title: "Compost", Description: "weekly", Category: ecohabit.CategoryWaste})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.habits.Validate(ctx, decl.ID, decimal.NewFromInt(10), "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ecohabit.ErrAlreadyDecided)
		}
	}
	assert.Equal(t, 1, ok)

	balance, err := s.wallet.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(620), balance)
}

func TestRateChangeAppliesToLaterDecisions_Integration(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	decl, err := s.habits.Submit(ctx, "user-1", ecohabit.SubmitInput{Title: "Bus", Description: "instead of car", Category: ecohabit.CategoryTransport})
	require.NoError(t, err)

	require.NoError(t, s.settings.SetConversionRate(ctx, decimal.NewFromInt(100)))

	validated, err := s.habits.Validate(ctx, decl.ID, decimal.NewFromInt(2), "")
	require.NoError(t, err)
	assert.Equal(t, int64(200), validated.CreditAmount)
}
