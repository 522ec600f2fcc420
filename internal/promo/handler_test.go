package promo

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct{ mock.Mock }

func (m *MockService) Apply(ctx context.Context, code string, orderAmount int64, orderID string, now time.Time) (*Result, error) {
	args := m.Called(ctx, code, orderAmount, orderID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockService) Quote(ctx context.Context, code string, orderAmount int64, now time.Time) (*Result, error) {
	args := m.Called(ctx, code, orderAmount, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockService) Create(ctx context.Context, in CreateInput, now time.Time) (*Code, error) {
	args := m.Called(ctx, in, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Code), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, code string) (*Code, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Code), args.Error(1)
}

func (m *MockService) List(ctx context.Context, limit, offset int) ([]Code, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Code), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, code string, in UpdateInput, now time.Time) (*Code, error) {
	args := m.Called(ctx, code, in, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Code), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func setupPromoRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	h := NewHandler(svc)
	router.POST("/promo/quote", h.Quote)
	router.POST("/admin/promo-codes", h.Create)
	router.GET("/admin/promo-codes/:code", h.Get)
	router.DELETE("/admin/promo-codes/:code", h.Delete)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestQuote_Handler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{"applies", nil, http.StatusOK, `"discount_value":50`},
		{"expired", ErrCodeExpired, http.StatusUnprocessableEntity, `"code":"expired"`},
		{"exhausted", ErrCodeExhausted, http.StatusUnprocessableEntity, `"code":"exhausted"`},
		{"unknown code", ErrCodeNotFound, http.StatusUnprocessableEntity, `"code":"not_found"`},
		{"minimum", ErrMinimumAmountNotMet, http.StatusUnprocessableEntity, `"code":"minimum_not_met"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.err != nil {
				svc.On("Quote", mock.Anything, "save10", int64(500), mock.Anything).Return(nil, tt.err)
			} else {
				svc.On("Quote", mock.Anything, "save10", int64(500), mock.Anything).
					Return(&Result{Code: "SAVE10", DiscountValue: 50, NewUsageCount: 3}, nil)
			}

			w := postJSON(setupPromoRouter(svc), "/promo/quote", `{"code":"save10","order_amount":500}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestQuote_Handler_MissingAmount(t *testing.T) {
	svc := new(MockService)

	w := postJSON(setupPromoRouter(svc), "/promo/quote", `{"code":"SAVE10"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_Handler_Conflict(t *testing.T) {
	svc := new(MockService)
	svc.On("Create", mock.Anything, mock.AnythingOfType("promo.CreateInput"), mock.Anything).Return(nil, ErrCodeExists)

	body := `{"code":"SAVE10","type":"percentage","value":10,"usage_limit":100,"expiry_date":"2030-01-01T00:00:00Z"}`
	w := postJSON(setupPromoRouter(svc), "/admin/promo-codes", body)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGet_Handler_NotFound(t *testing.T) {
	svc := new(MockService)
	svc.On("Get", mock.Anything, "NOPE").Return(nil, ErrCodeNotFound)

	w := httptest.NewRecorder()
	setupPromoRouter(svc).ServeHTTP(w, httptest.NewRequest("GET", "/admin/promo-codes/NOPE", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete_Handler_Deactivates(t *testing.T) {
	svc := new(MockService)
	svc.On("Delete", mock.Anything, "SAVE10").Return(false, nil)

	w := httptest.NewRecorder()
	setupPromoRouter(svc).ServeHTTP(w, httptest.NewRequest("DELETE", "/admin/promo-codes/SAVE10", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deactivated")
}
