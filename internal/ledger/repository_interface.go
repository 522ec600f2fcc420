package ledger

import "context"

// Repository is the append-only ledger. There is no update or delete path.
type Repository interface {
	// EnsureWallet creates the user's wallet row if needed and holds its
	// lock until the surrounding unit of work ends.
	EnsureWallet(ctx context.Context, userID string) error
	Append(ctx context.Context, tx *Transaction) (*Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Transaction, error)
	SumByUser(ctx context.Context, userID string) (int64, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}
