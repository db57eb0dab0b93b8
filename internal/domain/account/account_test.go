package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("creates account with zero balance", func(t *testing.T) {
		acc, err := NewAccount("Alice", "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Alice", acc.OwnerName)
		assert.Zero(t, acc.Balance)
		assert.Equal(t, 1, acc.Version)
		assert.Nil(t, acc.LastVerifiedDepositAt)
		assert.Nil(t, acc.LastWithdrawalAt)
	})

	t.Run("rejects empty owner name", func(t *testing.T) {
		_, err := NewAccount("", "alice@example.com")
		assert.ErrorIs(t, err, ErrEmptyOwnerName)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		_, err := NewAccount("Alice", "")
		assert.ErrorIs(t, err, ErrEmptyEmail)
	})
}

func TestAccount_CreditDeposit(t *testing.T) {
	t.Run("credits balance and arms the lockout", func(t *testing.T) {
		acc, err := NewAccount("Alice", "alice@example.com")
		require.NoError(t, err)
		verifiedAt := time.Now()

		require.NoError(t, acc.CreditDeposit(5000, verifiedAt))
		assert.Equal(t, int64(5000), acc.Balance)
		require.NotNil(t, acc.LastVerifiedDepositAt)
		assert.Equal(t, verifiedAt, *acc.LastVerifiedDepositAt)
		assert.Equal(t, 2, acc.Version)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		acc, err := NewAccount("Alice", "alice@example.com")
		require.NoError(t, err)

		assert.ErrorIs(t, acc.CreditDeposit(0, time.Now()), ErrInvalidAmount)
		assert.Zero(t, acc.Balance)
	})
}

func TestAccount_DebitWithdrawal(t *testing.T) {
	t.Run("debits balance and arms the cooldown", func(t *testing.T) {
		acc, err := NewAccount("Alice", "alice@example.com")
		require.NoError(t, err)
		require.NoError(t, acc.CreditDeposit(5000, time.Now()))
		withdrawnAt := time.Now()

		require.NoError(t, acc.DebitWithdrawal(2000, withdrawnAt))
		assert.Equal(t, int64(3000), acc.Balance)
		require.NotNil(t, acc.LastWithdrawalAt)
		assert.Equal(t, withdrawnAt, *acc.LastWithdrawalAt)
	})

	t.Run("rejects overdraw", func(t *testing.T) {
		acc, err := NewAccount("Alice", "alice@example.com")
		require.NoError(t, err)
		require.NoError(t, acc.CreditDeposit(1000, time.Now()))

		assert.ErrorIs(t, acc.DebitWithdrawal(1500, time.Now()), ErrInsufficientFunds)
		assert.Equal(t, int64(1000), acc.Balance)
		assert.Nil(t, acc.LastWithdrawalAt)
	})
}

func TestAccount_CreditGrowth(t *testing.T) {
	acc, err := NewAccount("Alice", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, acc.CreditDeposit(10000, time.Now()))
	depositAt := *acc.LastVerifiedDepositAt

	require.NoError(t, acc.CreditGrowth(1500, time.Now()))
	assert.Equal(t, int64(11500), acc.Balance)
	// Growth must not move the lockout timestamps
	assert.Equal(t, depositAt, *acc.LastVerifiedDepositAt)
	assert.Nil(t, acc.LastWithdrawalAt)
}

func TestAccount_WithdrawableProfit(t *testing.T) {
	acc := &Account{Balance: 15000}

	assert.Equal(t, int64(5000), acc.WithdrawableProfit(10000))
	assert.Equal(t, int64(0), acc.WithdrawableProfit(20000), "profit floors at zero")
	assert.Equal(t, int64(15000), acc.WithdrawableProfit(-500), "negative net deposits are clamped")
}
