package promo

import "context"

type Repository interface {
	Create(ctx context.Context, c *Code) (*Code, error)
	Get(ctx context.Context, code string) (*Code, error)
	// GetForUpdate locks the code row until the surrounding unit of work ends.
	GetForUpdate(ctx context.Context, code string) (*Code, error)
	List(ctx context.Context, limit, offset int) ([]Code, error)
	Update(ctx context.Context, c *Code) (*Code, error)
	Delete(ctx context.Context, code string) error

	// IncrementUsage adds exactly one use and returns the new count. It fails
	// with ErrCodeExhausted instead of going past the limit.
	IncrementUsage(ctx context.Context, code string) (int, error)

	// FindRedemption returns nil when the order has not used the code.
	FindRedemption(ctx context.Context, code, orderID string) (*Redemption, error)
	SaveRedemption(ctx context.Context, r *Redemption) error
	CountRedemptions(ctx context.Context, code string) (int, error)
}
