package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds for withdrawal")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrEmptyOwnerName    = errors.New("owner name cannot be empty")
	ErrEmptyEmail        = errors.New("email cannot be empty")
)

// Account represents a balance-bearing user account. The balance only moves
// through verified deposits, eligible withdrawals and growth accrual; it is
// never written from caller-supplied values.
type Account struct {
	ID                    uuid.UUID  `json:"id"`
	OwnerName             string     `json:"owner_name"`
	Email                 string     `json:"email"`
	Balance               int64      `json:"balance"` // Stored in minor units
	Version               int        `json:"version"` // For optimistic locking
	LastVerifiedDepositAt *time.Time `json:"last_verified_deposit_at,omitempty"`
	LastWithdrawalAt      *time.Time `json:"last_withdrawal_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// NewAccount creates an account with a zero balance
func NewAccount(ownerName, email string) (*Account, error) {
	if ownerName == "" {
		return nil, ErrEmptyOwnerName
	}
	if email == "" {
		return nil, ErrEmptyEmail
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		OwnerName: ownerName,
		Email:     email,
		Balance:   0,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CreditDeposit adds a verified deposit to the balance. verifiedAt arms the
// post-deposit withdrawal lockout and must be the completion time of the
// deposit, not its creation time.
func (a *Account) CreditDeposit(amount int64, verifiedAt time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	v := verifiedAt
	a.LastVerifiedDepositAt = &v
	a.UpdatedAt = verifiedAt
	a.Version++
	return nil
}

// DebitWithdrawal subtracts a completed withdrawal from the balance and arms
// the general withdrawal cooldown.
func (a *Account) DebitWithdrawal(amount int64, withdrawnAt time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	w := withdrawnAt
	a.LastWithdrawalAt = &w
	a.UpdatedAt = withdrawnAt
	a.Version++
	return nil
}

// CreditGrowth adds an accrued growth amount to the balance. Growth does not
// touch the lockout timestamps.
func (a *Account) CreditGrowth(amount int64, appliedAt time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	a.UpdatedAt = appliedAt
	a.Version++
	return nil
}

// WithdrawableProfit returns the portion of the balance not attributable to
// un-withdrawn principal: balance minus net deposits, floored at zero.
func (a *Account) WithdrawableProfit(netDeposits int64) int64 {
	if netDeposits < 0 {
		netDeposits = 0
	}
	profit := a.Balance - netDeposits
	if profit < 0 {
		return 0
	}
	return profit
}
