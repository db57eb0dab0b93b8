package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines transaction persistence operations
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)

	// GetPendingByAccountID returns the account's pending transaction, or
	// nil when none exists. At most one can exist per account.
	GetPendingByAccountID(ctx context.Context, accountID uuid.UUID) (*Transaction, error)

	// MarkCompleted atomically transitions a transaction out of Pending,
	// storing the reference token. Returns ErrTransactionNotPending when the
	// row was already terminal (a concurrent confirmation won).
	MarkCompleted(ctx context.Context, id uuid.UUID, referenceToken string) error

	// MarkFailed atomically transitions a transaction out of Pending.
	// Returns ErrTransactionNotPending when the row was already terminal.
	MarkFailed(ctx context.Context, id uuid.UUID) error

	// ReferenceTokenInUse reports whether any completed transaction already
	// carries the given verifier reference token (replay detection).
	ReferenceTokenInUse(ctx context.Context, referenceToken string) (bool, error)

	// NetDeposits returns completed deposit total minus completed withdrawal
	// total for the account, floored at zero.
	NetDeposits(ctx context.Context, accountID uuid.UUID) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target carries a nil ID
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrTransactionNotPending indicates a conditional status update hit a row
// that had already reached a terminal state
type ErrTransactionNotPending struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotPending) Error() string {
	return "transaction is no longer pending: " + e.TransactionID.String()
}

// ErrPendingTransactionExists indicates the one-pending-per-account
// invariant would be violated
type ErrPendingTransactionExists struct {
	AccountID uuid.UUID
}

func (e ErrPendingTransactionExists) Error() string {
	return "account already has a pending transaction: " + e.AccountID.String()
}

// ErrReplayDetected indicates a verifier reference token was already consumed
// by a completed transaction. Surfaced to callers as a fraud warning.
type ErrReplayDetected struct {
	ReferenceToken string
}

func (e ErrReplayDetected) Error() string {
	return "reference token already used by a completed transaction: " + e.ReferenceToken
}
