// Package service implements the application's use cases on top of the
// domain repositories: account lifecycle, the deposit/withdrawal state
// machine, and growth accrual.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/growth"
	"github.com/growthvault-ledger/internal/domain/transaction"
	"github.com/growthvault-ledger/internal/platform/verifier"
)

// AccountService manages account lifecycle and reads
type AccountService interface {
	CreateAccount(ctx context.Context, ownerName, email string) (*account.Account, error)

	// GetAccount returns the account together with its withdrawable profit,
	// the portion of the balance not covered by net deposits.
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, int64, error)
	GetTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, int64, error)
	GetEligibility(ctx context.Context, accountID uuid.UUID) (*account.Decision, error)
}

// LedgerService drives the transaction state machine
type LedgerService interface {
	// CreateDeposit opens a pending deposit. A stale pending transaction
	// whose confirmation window has elapsed is expired first.
	CreateDeposit(ctx context.Context, accountID uuid.UUID, amount int64) (*transaction.Transaction, error)

	// ConfirmDeposit submits payment proof for a pending deposit. On a
	// passing verdict the deposit completes and the balance is credited
	// atomically with the replay-protection write.
	ConfirmDeposit(ctx context.Context, transactionID uuid.UUID, proof verifier.Proof) (*transaction.Transaction, error)

	// CancelTransaction fails a pending transaction. Calling it on a
	// terminal transaction is a no-op.
	CancelTransaction(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error)

	// CreateWithdrawal executes an immediate withdrawal against accrued
	// profit, subject to the eligibility gate.
	CreateWithdrawal(ctx context.Context, accountID uuid.UUID, amount int64) (*transaction.Transaction, error)

	GetTransaction(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error)
}

// GrowthStatus is the read model for an account's accrual schedule
type GrowthStatus struct {
	AccountID      uuid.UUID       `json:"account_id"`
	CurrentBalance int64           `json:"current_balance"`
	Rate           float64         `json:"rate"`
	NextGrowthTime time.Time       `json:"next_growth_time"`
	TimeUntil      time.Duration   `json:"-"`
	CanApplyGrowth bool            `json:"can_apply_growth"`
	RecentGrowth   []*growth.Entry `json:"recent_growth"`
}

// GrowthService applies and reports compounding growth
type GrowthService interface {
	// ApplyGrowth applies at most one accrual step when the account is due.
	// Returns the created entry, or nil when nothing was due.
	ApplyGrowth(ctx context.Context, accountID uuid.UUID) (*growth.Entry, error)

	GetGrowthStatus(ctx context.Context, accountID uuid.UUID) (*GrowthStatus, error)
}

// ErrConfirmationWindowExpired indicates the proof arrived after the
// confirmation window elapsed; the deposit has been failed.
type ErrConfirmationWindowExpired struct {
	TransactionID uuid.UUID
}

func (e ErrConfirmationWindowExpired) Error() string {
	return "confirmation window expired for transaction: " + e.TransactionID.String()
}

// ErrVerificationRejected indicates the verifier did not accept the proof
type ErrVerificationRejected struct {
	Reason     string
	Confidence int
}

func (e ErrVerificationRejected) Error() string {
	return fmt.Sprintf("payment proof rejected (confidence %d): %s", e.Confidence, e.Reason)
}

// ErrWithdrawalNotEligible indicates a rolling window blocks the withdrawal
type ErrWithdrawalNotEligible struct {
	Decision account.Decision
}

func (e ErrWithdrawalNotEligible) Error() string {
	return fmt.Sprintf("withdrawal not eligible: %s, %ds remaining", e.Decision.Reason, e.Decision.RemainingSeconds())
}

// ErrExceedsWithdrawable indicates the requested amount exceeds accrued
// profit
type ErrExceedsWithdrawable struct {
	Requested    int64
	Withdrawable int64
}

func (e ErrExceedsWithdrawable) Error() string {
	return fmt.Sprintf("requested %d exceeds withdrawable profit %d", e.Requested, e.Withdrawable)
}
