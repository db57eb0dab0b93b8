package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind defines the two transaction directions
type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
)

// Status defines the transaction lifecycle states. Pending is the only
// non-terminal state; Completed and Failed admit no further transitions.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Common errors
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrBelowMinimumDeposit = errors.New("amount below minimum deposit")
	ErrNotPending          = errors.New("transaction is not pending")
	ErrMissingReference    = errors.New("completed deposit requires a reference token")
)

// Transaction represents a single deposit or withdrawal. Transactions are
// never deleted; terminal rows form the audit trail.
type Transaction struct {
	ID              uuid.UUID `json:"id"`
	AccountID       uuid.UUID `json:"account_id"`
	Kind            Kind      `json:"kind"`
	Amount          int64     `json:"amount"` // Stored in minor units
	Status          Status    `json:"status"`
	ReferenceToken  *string   `json:"reference_token,omitempty"` // Set from verifier output on completion
	CreatedAt       time.Time `json:"created_at"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}

// NewPendingDeposit creates a deposit awaiting proof confirmation. The
// confirmation window is anchored to CreatedAt, never to caller-side timers.
func NewPendingDeposit(accountID uuid.UUID, amount int64, minAmount int64, now time.Time) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount < minAmount {
		return nil, ErrBelowMinimumDeposit
	}

	return &Transaction{
		ID:              uuid.New(),
		AccountID:       accountID,
		Kind:            KindDeposit,
		Amount:          amount,
		Status:          StatusPending,
		CreatedAt:       now,
		StatusChangedAt: now,
	}, nil
}

// NewCompletedWithdrawal creates a withdrawal already in its terminal state.
// Withdrawals have no confirmation step; eligibility and withdrawable-amount
// checks happen before this constructor is reached.
func NewCompletedWithdrawal(accountID uuid.UUID, amount int64, now time.Time) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return &Transaction{
		ID:              uuid.New(),
		AccountID:       accountID,
		Kind:            KindWithdrawal,
		Amount:          amount,
		Status:          StatusCompleted,
		CreatedAt:       now,
		StatusChangedAt: now,
	}, nil
}

// Complete transitions a pending transaction to Completed, recording the
// verifier's reference token.
func (t *Transaction) Complete(referenceToken string, now time.Time) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}
	if referenceToken == "" {
		return ErrMissingReference
	}

	t.Status = StatusCompleted
	t.ReferenceToken = &referenceToken
	t.StatusChangedAt = now
	return nil
}

// Fail transitions a pending transaction to Failed (cancellation or window
// expiry).
func (t *Transaction) Fail(now time.Time) error {
	if t.Status != StatusPending {
		return ErrNotPending
	}

	t.Status = StatusFailed
	t.StatusChangedAt = now
	return nil
}

// IsTerminal reports whether the transaction admits no further transitions.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// WindowRemaining recomputes the time left in the confirmation window from
// the stored creation timestamp. Never negative.
func (t *Transaction) WindowRemaining(now time.Time, window time.Duration) time.Duration {
	remaining := window - now.Sub(t.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WindowExpired reports whether the confirmation window has elapsed.
func (t *Transaction) WindowExpired(now time.Time, window time.Duration) bool {
	return t.Status == StatusPending && now.Sub(t.CreatedAt) >= window
}
