package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("CONVERSION_RATE", "")
	t.Setenv("PROMO_MAX_DISCOUNT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.True(t, cfg.ConversionRate.Equal(decimal.NewFromInt(62)))
	assert.Equal(t, int64(0), cfg.PromoMaxDiscount)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CONVERSION_RATE", "70.5")
	t.Setenv("PROMO_MAX_DISCOUNT", "1500")
	t.Setenv("RATE_LIMIT_BURST", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "70.5", cfg.ConversionRate.String())
	assert.Equal(t, int64(1500), cfg.PromoMaxDiscount)
	assert.Equal(t, 3, cfg.RateLimitBurst)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"Unknown driver", "STORAGE_DRIVER", "mongo"},
		{"Zero rate", "CONVERSION_RATE", "0"},
		{"Garbage rate", "CONVERSION_RATE", "abc"},
		{"Negative promo cap", "PROMO_MAX_DISCOUNT", "-1"},
		{"Bad recharge cap", "RECHARGE_MAX_AMOUNT", "lots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
