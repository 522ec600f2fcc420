package ecohabit

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, d *Declaration) (*Declaration, error)
	Get(ctx context.Context, id string) (*Declaration, error)
	// GetForUpdate locks the declaration until the surrounding unit of work ends.
	GetForUpdate(ctx context.Context, id string) (*Declaration, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Declaration, error)
	// ListByStatus returns the oldest declarations first.
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Declaration, error)

	// MarkValidated and MarkRejected only move pending declarations and
	// return ErrAlreadyDecided otherwise.
	MarkValidated(ctx context.Context, id string, d Decision) error
	MarkRejected(ctx context.Context, id string, comment string, at time.Time) error
}
