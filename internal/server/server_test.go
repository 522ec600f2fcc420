package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecomove/internal/auth"
	"ecomove/internal/config"
	"ecomove/internal/ecohabit"
	"ecomove/internal/memstore"
	"ecomove/internal/notify"
	"ecomove/internal/payment"
	"ecomove/internal/promo"
	"ecomove/internal/settings"
	"ecomove/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(checks map[string]HealthCheck) *Server {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:            "test",
		StorageDriver:  config.StorageMemory,
		JWTSecret:      testSecret,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}

	store := memstore.New()
	static := settings.NewStatic(settings.Settings{ConversionRate: decimal.NewFromInt(62)})
	walletSvc := wallet.NewService(store.Ledger(), store, notify.Nop{}, 100000)
	promoSvc := promo.NewService(store.Promos(), store, static)

	return New(cfg, Handlers{
		Wallet:   wallet.NewHandler(walletSvc),
		Promo:    promo.NewHandler(promoSvc),
		EcoHabit: ecohabit.NewHandler(ecohabit.NewService(store.EcoHabits(), store, walletSvc, static, notify.Nop{})),
		Payment:  payment.NewHandler(payment.NewService(store, walletSvc, promoSvc)),
		Settings: settings.NewHandler(static),
	}, checks)
}

func call(t *testing.T, s *Server, method, path, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, _, err := auth.GenerateTokens(userID, role, testSecret, testSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	})

	w := call(t, s, "GET", "/health", "", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","storage":"memory","checks":{"store":"ok"}}`, w.Body.String())
}

func TestHealth_Degraded(t *testing.T) {
	s := newTestServer(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	w := call(t, s, "GET", "/health", "", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"unavailable"`)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestRoutes_RequireAuth(t *testing.T) {
	s := newTestServer(nil)

	for _, path := range []string{"/wallet", "/eco-habits", "/admin/settings"} {
		w := call(t, s, "GET", path, "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAdminRoutes_ForbiddenForUsers(t *testing.T) {
	s := newTestServer(nil)

	w := call(t, s, "GET", "/admin/wallets/user-2", "user-1", auth.RoleUser, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, s, "GET", "/admin/wallets/user-2", "admin-1", auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":0`)
}

func TestRechargeAndCheckoutFlow(t *testing.T) {
	s := newTestServer(nil)

	w := call(t, s, "POST", "/admin/promo-codes", "admin-1", auth.RoleAdmin, map[string]any{
		"code":        "SAVE10",
		"type":        "percentage",
		"value":       10,
		"usage_limit": 5,
		"expiry_date": "2099-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, s, "POST", "/payments/checkout", "user-1", auth.RoleUser, map[string]any{"amount": 500})
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), `"shortfall":500`)

	w = call(t, s, "POST", "/wallet/recharge", "user-1", auth.RoleUser, map[string]any{"amount": 1000, "method": "card"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, s, "POST", "/payments/checkout", "user-1", auth.RoleUser, map[string]any{
		"order_id":   "order-1",
		"amount":     500,
		"promo_code": "save10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt payment.Receipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, int64(450), receipt.FinalAmount)
	assert.Equal(t, int64(550), receipt.Balance)

	w = call(t, s, "GET", "/wallet", "user-1", auth.RoleUser, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":550`)
}
