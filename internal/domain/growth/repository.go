package growth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages growth entry persistence
type Repository interface {
	Create(ctx context.Context, entry *Entry) error

	// GetLatestByAccountID returns the most recent entry, or nil when the
	// account has never accrued growth.
	GetLatestByAccountID(ctx context.Context, accountID uuid.UUID) (*Entry, error)

	// GetRecentByAccountID returns up to limit entries, newest first
	GetRecentByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*Entry, error)

	WithTx(tx pgx.Tx) Repository
}
