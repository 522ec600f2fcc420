package payment

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecomove/internal/promo"
	"ecomove/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct{ mock.Mock }

func (m *MockService) Quote(ctx context.Context, req Request) (*Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Quote), args.Error(1)
}

func (m *MockService) Checkout(ctx context.Context, req Request) (*Receipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Receipt), args.Error(1)
}

func checkout(svc Service, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})
	router.POST("/payments/checkout", NewHandler(svc).Checkout)

	req := httptest.NewRequest("POST", "/payments/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckout_Handler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{"paid", nil, http.StatusCreated, `"final_amount":450`},
		{"insufficient funds", &wallet.InsufficientFundsError{Balance: 100, Requested: 450}, http.StatusPaymentRequired, `"recharge":true`},
		{"promo exhausted", promo.ErrCodeExhausted, http.StatusUnprocessableEntity, `"code":"exhausted"`},
		{"duplicate order", ErrOrderAlreadyProcessed, http.StatusConflict, "already processed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			matcher := mock.MatchedBy(func(r Request) bool {
				return r.UserID == "user-1" && r.Amount == 500 && r.PromoCode == "SAVE10"
			})
			if tt.err != nil {
				svc.On("Checkout", mock.Anything, matcher).Return(nil, tt.err)
			} else {
				svc.On("Checkout", mock.Anything, matcher).
					Return(&Receipt{OrderID: "order-1", Amount: 500, Discount: 50, FinalAmount: 450, Balance: 170}, nil)
			}

			w := checkout(svc, `{"amount":500,"promo_code":"SAVE10"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestCheckout_Handler_RejectsNonPositiveAmount(t *testing.T) {
	svc := new(MockService)

	w := checkout(svc, `{"amount":-5}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
}
