package wallet

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"ecomove/internal/apperr"
	"ecomove/internal/db"
	"ecomove/internal/db/dbtest"
	"ecomove/internal/ledger"
	"ecomove/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedgerRepo struct{ mock.Mock }

func (m *MockLedgerRepo) EnsureWallet(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockLedgerRepo) Append(ctx context.Context, tx *ledger.Transaction) (*ledger.Transaction, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]ledger.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) SumByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

func newTestService(repo *MockLedgerRepo) (Service, *dbtest.Transactor, *recordingPublisher) {
	tx := &dbtest.Transactor{}
	pub := &recordingPublisher{}
	return NewService(repo, tx, pub, 100000), tx, pub
}

func appended(amount int64, category ledger.Category) interface{} {
	return mock.MatchedBy(func(t *ledger.Transaction) bool {
		return t.Amount == amount && t.Category == category
	})
}

func TestCredit_Success(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, tx, pub := newTestService(repo)

	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(0), nil)
	repo.On("Append", mock.Anything, appended(620, ledger.CategoryCarbonCredit)).
		Return(&ledger.Transaction{ID: "tx-1", UserID: "user-1", Amount: 620, Category: ledger.CategoryCarbonCredit}, nil)

	txn, err := svc.Credit(context.Background(), "user-1", 620, "carbon credit", ledger.CategoryCarbonCredit)

	require.NoError(t, err)
	assert.Equal(t, int64(620), txn.Amount)
	assert.Equal(t, 1, tx.Commits)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.WalletCredited, events[0].Type)
	assert.Equal(t, "tx-1", events[0].Reference)
	repo.AssertExpectations(t)
}

func TestCredit_Validation(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, tx, _ := newTestService(repo)

	tests := []struct {
		name     string
		userID   string
		amount   int64
		category ledger.Category
	}{
		{"zero amount", "user-1", 0, ledger.CategoryGeneral},
		{"negative amount", "user-1", -5, ledger.CategoryGeneral},
		{"missing user", "", 10, ledger.CategoryGeneral},
		{"unknown category", "user-1", 10, ledger.Category("lottery")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Credit(context.Background(), tt.userID, tt.amount, "x", tt.category)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	assert.Equal(t, 0, tx.Commits+tx.Rollbacks)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCredit_BalanceOverflow(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, tx, pub := newTestService(repo)

	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(math.MaxInt64-5), nil)

	_, err := svc.Credit(context.Background(), "user-1", 10, "x", ledger.CategoryGeneral)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
	assert.Equal(t, 1, tx.Rollbacks)
	assert.Empty(t, pub.Events())
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCredit_UpToLargestBalance(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, _, _ := newTestService(repo)

	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(math.MaxInt64-10), nil)
	repo.On("Append", mock.Anything, appended(10, ledger.CategoryGeneral)).
		Return(&ledger.Transaction{ID: "tx-1", Amount: 10}, nil)

	_, err := svc.Credit(context.Background(), "user-1", 10, "x", ledger.CategoryGeneral)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDebit_Success(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, _, pub := newTestService(repo)

	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(620), nil)
	repo.On("Append", mock.Anything, appended(-450, ledger.CategoryShopping)).
		Return(&ledger.Transaction{ID: "tx-2", UserID: "user-1", Amount: -450, Category: ledger.CategoryShopping}, nil)

	txn, err := svc.Debit(context.Background(), "user-1", 450, "order", ledger.CategoryShopping)

	require.NoError(t, err)
	assert.Equal(t, int64(-450), txn.Amount)
	require.Len(t, pub.Events(), 1)
	assert.Equal(t, int64(-450), pub.Events()[0].Amount)
}

func TestDebit_InsufficientFunds(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, tx, pub := newTestService(repo)

	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(100), nil)

	_, err := svc.Debit(context.Background(), "user-1", 450, "order", ledger.CategoryShopping)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(100), insufficient.Balance)
	assert.Equal(t, int64(450), insufficient.Requested)
	assert.Equal(t, int64(350), insufficient.Shortfall())

	assert.Equal(t, 1, tx.Rollbacks)
	assert.Empty(t, pub.Events())
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestDebit_ExactBalanceAllowed(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, _, _ := newTestService(repo)

	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(450), nil)
	repo.On("Append", mock.Anything, appended(-450, ledger.CategoryShopping)).
		Return(&ledger.Transaction{ID: "tx-3", Amount: -450}, nil)

	_, err := svc.Debit(context.Background(), "user-1", 450, "order", ledger.CategoryShopping)

	assert.NoError(t, err)
}

func TestDebit_LedgerWriteFailure(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, tx, pub := newTestService(repo)

	writeErr := apperr.LedgerWrite("append transaction", errors.New("connection reset"))
	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(1000), nil)
	repo.On("Append", mock.Anything, mock.Anything).Return(nil, writeErr)

	_, err := svc.Debit(context.Background(), "user-1", 10, "order", ledger.CategoryShopping)

	assert.ErrorIs(t, err, apperr.ErrLedgerWrite)
	assert.Equal(t, 1, tx.Rollbacks)
	assert.Empty(t, pub.Events())
}

func TestCredit_InsideOuterUnitDefersNotification(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, tx, pub := newTestService(repo)

	repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil)
	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(0), nil)
	repo.On("Append", mock.Anything, mock.Anything).Return(&ledger.Transaction{ID: "tx-1", Amount: 10}, nil)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := svc.Credit(ctx, "user-1", 10, "x", ledger.CategoryGeneral)
		require.NoError(t, err)
		assert.Empty(t, pub.Events())
		return errors.New("later step failed")
	})

	assert.Error(t, err)
	assert.Empty(t, pub.Events())
	assert.Equal(t, 1, tx.Rollbacks)
	assert.False(t, db.InUnit(context.Background()))
}

func TestGetWallet(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, _, _ := newTestService(repo)

	repo.On("SumByUser", mock.Anything, "user-1").Return(int64(170), nil)
	repo.On("CountByUser", mock.Anything, "user-1").Return(2, nil)

	w, err := svc.GetWallet(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, &Wallet{UserID: "user-1", Balance: 170, TransactionCount: 2}, w)
}

func TestGetBalance_UnknownUserIsZero(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, _, _ := newTestService(repo)

	repo.On("SumByUser", mock.Anything, "ghost").Return(int64(0), nil)

	balance, err := svc.GetBalance(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestRecharge(t *testing.T) {
	repo := new(MockLedgerRepo)
	svc, _, _ := newTestService(repo)

	t.Run("unsupported method", func(t *testing.T) {
		_, err := svc.Recharge(context.Background(), "user-1", 100, RechargeMethod("cash"))
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("above maximum", func(t *testing.T) {
		_, err := svc.Recharge(context.Background(), "user-1", 100001, RechargeCard)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("credits with recharge category", func(t *testing.T) {
		repo.On("EnsureWallet", mock.Anything, "user-1").Return(nil).Once()
		repo.On("SumByUser", mock.Anything, "user-1").Return(int64(0), nil).Once()
		repo.On("Append", mock.Anything, mock.MatchedBy(func(t *ledger.Transaction) bool {
			return t.Amount == 5000 && t.Category == ledger.CategoryRecharge && t.Description == "recharge via mobile_money"
		})).Return(&ledger.Transaction{ID: "tx-r", Amount: 5000, Category: ledger.CategoryRecharge}, nil).Once()

		txn, err := svc.Recharge(context.Background(), "user-1", 5000, RechargeMobileMoney)

		require.NoError(t, err)
		assert.Equal(t, ledger.CategoryRecharge, txn.Category)
	})
}

func TestUserLocks_ReleasesEntries(t *testing.T) {
	locks := newUserLocks()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("user-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, locks.size())
}
