package promo

import "time"

// Evaluate checks whether c applies to an order of orderAmount at now and
// returns the discount. Checks run in a fixed order and the first failure wins.
// It has no side effects.
func Evaluate(c *Code, orderAmount int64, now time.Time) (int64, error) {
	if !c.IsActive {
		return 0, ErrCodeInactive
	}
	if now.After(c.ExpiryDate) {
		return 0, ErrCodeExpired
	}
	if c.UsageCount >= c.UsageLimit {
		return 0, ErrCodeExhausted
	}
	if orderAmount < c.MinAmount {
		return 0, ErrMinimumAmountNotMet
	}

	switch c.Type {
	case TypePercentage:
		// floor(orderAmount*value/100) without forming the full product;
		// value is at most 100 so neither term can overflow.
		return orderAmount/100*c.Value + orderAmount%100*c.Value/100, nil
	default:
		if c.Value > orderAmount {
			return orderAmount, nil
		}
		return c.Value, nil
	}
}
