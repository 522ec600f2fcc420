package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecomove/internal/apperr"
	"ecomove/internal/db/dbtest"
	"ecomove/internal/ledger"
	"ecomove/internal/promo"
	"ecomove/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWallet struct{ mock.Mock }

func (m *MockWallet) GetBalance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWallet) Debit(ctx context.Context, userID string, amount int64, description string, category ledger.Category) (*ledger.Transaction, error) {
	args := m.Called(ctx, userID, amount, description, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

type MockPromotions struct{ mock.Mock }

func (m *MockPromotions) Apply(ctx context.Context, code string, orderAmount int64, orderID string, now time.Time) (*promo.Result, error) {
	args := m.Called(ctx, code, orderAmount, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promo.Result), args.Error(1)
}

func (m *MockPromotions) Quote(ctx context.Context, code string, orderAmount int64, now time.Time) (*promo.Result, error) {
	args := m.Called(ctx, code, orderAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promo.Result), args.Error(1)
}

func newTestService() (Service, *MockWallet, *MockPromotions, *dbtest.Transactor) {
	w := new(MockWallet)
	p := new(MockPromotions)
	tx := &dbtest.Transactor{}
	return NewService(tx, w, p), w, p, tx
}

func TestCheckout_WithPromo(t *testing.T) {
	svc, w, p, tx := newTestService()

	p.On("Apply", mock.Anything, "SAVE10", int64(500), "order-1").
		Return(&promo.Result{Code: "SAVE10", OrderID: "order-1", DiscountValue: 50, NewUsageCount: 1}, nil)
	w.On("Debit", mock.Anything, "user-1", int64(450), "Eco tote bag", ledger.CategoryShopping).
		Return(&ledger.Transaction{ID: "tx-1", Amount: -450}, nil)
	w.On("GetBalance", mock.Anything, "user-1").Return(int64(170), nil)

	receipt, err := svc.Checkout(context.Background(), Request{
		UserID: "user-1", OrderID: "order-1", Amount: 500,
		Description: "Eco tote bag", Category: "shopping", PromoCode: "SAVE10",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(50), receipt.Discount)
	assert.Equal(t, int64(450), receipt.FinalAmount)
	assert.Equal(t, int64(170), receipt.Balance)
	assert.Equal(t, "tx-1", receipt.Transaction.ID)
	assert.Equal(t, 1, tx.Commits)
}

func TestCheckout_InsufficientFundsRollsBackPromo(t *testing.T) {
	svc, w, p, tx := newTestService()

	p.On("Apply", mock.Anything, "SAVE10", int64(500), "order-1").
		Return(&promo.Result{Code: "SAVE10", DiscountValue: 50}, nil)
	w.On("Debit", mock.Anything, "user-1", int64(450), mock.Anything, mock.Anything).
		Return(nil, &wallet.InsufficientFundsError{Balance: 100, Requested: 450})

	_, err := svc.Checkout(context.Background(), Request{UserID: "user-1", OrderID: "order-1", Amount: 500, PromoCode: "SAVE10"})

	assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	assert.Equal(t, 1, tx.Rollbacks)
	assert.Zero(t, tx.Commits)
}

func TestCheckout_PromoRejectionSkipsWallet(t *testing.T) {
	svc, w, p, _ := newTestService()

	p.On("Apply", mock.Anything, "OLD", int64(500), mock.Anything).Return(nil, promo.ErrCodeExpired)

	_, err := svc.Checkout(context.Background(), Request{UserID: "user-1", Amount: 500, PromoCode: "OLD"})

	assert.ErrorIs(t, err, promo.ErrCodeExpired)
	w.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_ReplayedOrder(t *testing.T) {
	svc, w, p, _ := newTestService()

	p.On("Apply", mock.Anything, "SAVE10", int64(500), "order-1").
		Return(&promo.Result{Code: "SAVE10", DiscountValue: 50, Replayed: true}, nil)

	_, err := svc.Checkout(context.Background(), Request{UserID: "user-1", OrderID: "order-1", Amount: 500, PromoCode: "SAVE10"})

	assert.ErrorIs(t, err, ErrOrderAlreadyProcessed)
	w.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_FullDiscountSkipsDebit(t *testing.T) {
	svc, w, p, _ := newTestService()

	p.On("Apply", mock.Anything, "FREE", int64(300), mock.Anything).
		Return(&promo.Result{Code: "FREE", DiscountValue: 300}, nil)
	w.On("GetBalance", mock.Anything, "user-1").Return(int64(0), nil)

	receipt, err := svc.Checkout(context.Background(), Request{UserID: "user-1", Amount: 300, PromoCode: "FREE"})

	require.NoError(t, err)
	assert.Zero(t, receipt.FinalAmount)
	assert.Nil(t, receipt.Transaction)
	assert.NotEmpty(t, receipt.OrderID)
	w.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_WithoutPromo(t *testing.T) {
	svc, w, p, _ := newTestService()

	w.On("Debit", mock.Anything, "user-1", int64(120), mock.MatchedBy(func(desc string) bool {
		return len(desc) > len("order ")
	}), ledger.CategoryGeneral).Return(&ledger.Transaction{ID: "tx-1", Amount: -120}, nil)
	w.On("GetBalance", mock.Anything, "user-1").Return(int64(880), nil)

	receipt, err := svc.Checkout(context.Background(), Request{UserID: "user-1", Amount: 120})

	require.NoError(t, err)
	assert.Equal(t, int64(120), receipt.FinalAmount)
	p.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_Validation(t *testing.T) {
	svc, _, _, tx := newTestService()

	tests := []Request{
		{UserID: "", Amount: 100},
		{UserID: "user-1", Amount: 0},
		{UserID: "user-1", Amount: 100, Category: "lottery"},
	}
	for _, req := range tests {
		_, err := svc.Checkout(context.Background(), req)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Zero(t, tx.Commits+tx.Rollbacks)
}

func TestQuote(t *testing.T) {
	svc, w, p, _ := newTestService()

	p.On("Quote", mock.Anything, "SAVE10", int64(500)).Return(&promo.Result{Code: "SAVE10", DiscountValue: 50}, nil)
	w.On("GetBalance", mock.Anything, "user-1").Return(int64(400), nil)

	q, err := svc.Quote(context.Background(), Request{UserID: "user-1", Amount: 500, PromoCode: "SAVE10"})

	require.NoError(t, err)
	assert.Equal(t, int64(450), q.FinalAmount)
	assert.False(t, q.Sufficient)
	p.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFailureStatus(t *testing.T) {
	assert.Equal(t, "insufficient_funds", failureStatus(&wallet.InsufficientFundsError{}))
	assert.Equal(t, "promo_rejected", failureStatus(promo.ErrCodeExhausted))
	assert.Equal(t, "duplicate", failureStatus(ErrOrderAlreadyProcessed))
	assert.Equal(t, "invalid", failureStatus(apperr.Invalid("amount", "x")))
	assert.Equal(t, "failed", failureStatus(errors.New("boom")))
}
