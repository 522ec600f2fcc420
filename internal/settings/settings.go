package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"ecomove/internal/apperr"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	keyConversionRate   = "settings:conversion_rate"
	keyPromoMaxDiscount = "settings:promo_max_discount"
)

// Provider exposes the admin-tunable values read at decision time.
type Provider interface {
	// ConversionRate is the currency amount credited per kilogram of CO2 saved.
	ConversionRate(ctx context.Context) (decimal.Decimal, error)
	// PromoMaxDiscount caps any single promo discount. Zero means no cap.
	PromoMaxDiscount(ctx context.Context) (int64, error)
}

type Admin interface {
	Provider
	SetConversionRate(ctx context.Context, rate decimal.Decimal) error
	SetPromoMaxDiscount(ctx context.Context, maxDiscount int64) error
}

type Settings struct {
	ConversionRate   decimal.Decimal `json:"conversion_rate"`
	PromoMaxDiscount int64           `json:"promo_max_discount"`
}

func Snapshot(ctx context.Context, p Provider) (*Settings, error) {
	rate, err := p.ConversionRate(ctx)
	if err != nil {
		return nil, err
	}
	maxDiscount, err := p.PromoMaxDiscount(ctx)
	if err != nil {
		return nil, err
	}
	return &Settings{ConversionRate: rate, PromoMaxDiscount: maxDiscount}, nil
}

func validateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return apperr.Invalid("conversion_rate", "must be positive")
	}
	return nil
}

func validateMaxDiscount(maxDiscount int64) error {
	if maxDiscount < 0 {
		return apperr.Invalid("promo_max_discount", "cannot be negative")
	}
	return nil
}

// RedisStore keeps settings in Redis so every replica sees admin changes
// immediately. Missing keys fall back to the configured defaults.
type RedisStore struct {
	redis    *redis.Client
	defaults Settings
}

func NewRedisStore(client *redis.Client, defaults Settings) *RedisStore {
	return &RedisStore{redis: client, defaults: defaults}
}

func (s *RedisStore) ConversionRate(ctx context.Context) (decimal.Decimal, error) {
	raw, err := s.redis.Get(ctx, keyConversionRate).Result()
	if errors.Is(err, redis.Nil) {
		return s.defaults.ConversionRate, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read conversion rate: %w", err)
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse conversion rate %q: %w", raw, err)
	}
	return rate, nil
}

func (s *RedisStore) PromoMaxDiscount(ctx context.Context) (int64, error) {
	raw, err := s.redis.Get(ctx, keyPromoMaxDiscount).Result()
	if errors.Is(err, redis.Nil) {
		return s.defaults.PromoMaxDiscount, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read promo max discount: %w", err)
	}

	maxDiscount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse promo max discount %q: %w", raw, err)
	}
	return maxDiscount, nil
}

func (s *RedisStore) SetConversionRate(ctx context.Context, rate decimal.Decimal) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	return s.redis.Set(ctx, keyConversionRate, rate.String(), 0).Err()
}

func (s *RedisStore) SetPromoMaxDiscount(ctx context.Context, maxDiscount int64) error {
	if err := validateMaxDiscount(maxDiscount); err != nil {
		return err
	}
	return s.redis.Set(ctx, keyPromoMaxDiscount, strconv.FormatInt(maxDiscount, 10), 0).Err()
}

// Static holds settings in process memory.
type Static struct {
	mu sync.RWMutex
	s  Settings
}

func NewStatic(defaults Settings) *Static {
	return &Static{s: defaults}
}

func (s *Static) ConversionRate(context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s.ConversionRate, nil
}

func (s *Static) PromoMaxDiscount(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s.PromoMaxDiscount, nil
}

func (s *Static) SetConversionRate(_ context.Context, rate decimal.Decimal) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	s.mu.Lock()
	s.s.ConversionRate = rate
	s.mu.Unlock()
	return nil
}

func (s *Static) SetPromoMaxDiscount(_ context.Context, maxDiscount int64) error {
	if err := validateMaxDiscount(maxDiscount); err != nil {
		return err
	}
	s.mu.Lock()
	s.s.PromoMaxDiscount = maxDiscount
	s.mu.Unlock()
	return nil
}
