package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/outbox"
	"github.com/growthvault-ledger/internal/domain/transaction"
	"github.com/growthvault-ledger/internal/platform/verifier"
)

func testLedgerConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		MinDepositAmount:   1000,
		ConfirmationWindow: 120 * time.Second,
		WithdrawalCooldown: 14 * 24 * time.Hour,
		DepositLockout:     14 * 24 * time.Hour,
	}
}

func testVerifierConfig() *config.VerifierConfig {
	return &config.VerifierConfig{
		URL:           "http://localhost:9090/verify",
		Timeout:       15 * time.Second,
		MinConfidence: 60,
	}
}

type ledgerServiceMocks struct {
	accountRepo     *MockAccountRepository
	transactionRepo *MockTransactionRepository
	outboxRepo      *MockOutboxRepository
	verifier        *MockVerifier
}

func newLedgerService(t *testing.T) (LedgerService, *ledgerServiceMocks) {
	t.Helper()
	mocks := &ledgerServiceMocks{
		accountRepo:     new(MockAccountRepository),
		transactionRepo: new(MockTransactionRepository),
		outboxRepo:      new(MockOutboxRepository),
		verifier:        new(MockVerifier),
	}
	svc := NewLedgerService(
		newTestLogger(),
		&fakeTxRunner{},
		testLedgerConfig(),
		testVerifierConfig(),
		mocks.accountRepo,
		mocks.transactionRepo,
		mocks.outboxRepo,
		mocks.verifier,
	)
	return svc, mocks
}

func testAccount(balance int64) *account.Account {
	now := time.Now().Add(-30 * 24 * time.Hour)
	return &account.Account{
		ID:        uuid.New(),
		OwnerName: "Test User",
		Email:     "test@example.com",
		Balance:   balance,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestLedgerService_CreateDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending deposit", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(0)

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("GetPendingByAccountID", ctx, acc.ID).Return(nil, nil).Once()
		mocks.transactionRepo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()

		txn, err := svc.CreateDeposit(ctx, acc.ID, 5000)
		require.NoError(t, err)
		assert.Equal(t, transaction.KindDeposit, txn.Kind)
		assert.Equal(t, transaction.StatusPending, txn.Status)
		assert.Equal(t, int64(5000), txn.Amount)
		mocks.transactionRepo.AssertExpectations(t)
	})

	t.Run("rejects amount below minimum", func(t *testing.T) {
		svc, _ := newLedgerService(t)

		txn, err := svc.CreateDeposit(ctx, uuid.New(), 500)
		require.ErrorIs(t, err, transaction.ErrBelowMinimumDeposit)
		assert.Nil(t, txn)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _ := newLedgerService(t)

		txn, err := svc.CreateDeposit(ctx, uuid.New(), 0)
		require.ErrorIs(t, err, transaction.ErrInvalidAmount)
		assert.Nil(t, txn)
	})

	t.Run("rejects when live pending transaction exists", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(0)
		pending, err := transaction.NewPendingDeposit(acc.ID, 2000, 1000, time.Now().Add(-10*time.Second))
		require.NoError(t, err)

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("GetPendingByAccountID", ctx, acc.ID).Return(pending, nil).Once()

		txn, err := svc.CreateDeposit(ctx, acc.ID, 5000)
		require.Error(t, err)
		var pendingErr transaction.ErrPendingTransactionExists
		assert.ErrorAs(t, err, &pendingErr)
		assert.Nil(t, txn)
		mocks.transactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("expires stale pending transaction then creates", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(0)
		stale, err := transaction.NewPendingDeposit(acc.ID, 2000, 1000, time.Now().Add(-5*time.Minute))
		require.NoError(t, err)

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("GetPendingByAccountID", ctx, acc.ID).Return(stale, nil).Once()
		mocks.transactionRepo.On("MarkFailed", ctx, stale.ID).Return(nil).Once()
		mocks.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()
		mocks.transactionRepo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()

		txn, err := svc.CreateDeposit(ctx, acc.ID, 5000)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusPending, txn.Status)
		mocks.transactionRepo.AssertExpectations(t)
		mocks.outboxRepo.AssertExpectations(t)
	})
}

// proofMatcher asserts the service stamped the stored transaction's identity
// and amount onto the proof before calling the verifier
func proofMatcher(transactionID uuid.UUID, amount int64) interface{} {
	return mock.MatchedBy(func(p verifier.Proof) bool {
		return p.TransactionID == transactionID.String() && p.Amount == amount
	})
}

func TestLedgerService_ConfirmDeposit(t *testing.T) {
	ctx := context.Background()
	proof := verifier.Proof{ImageData: "aW1hZ2U=", ContentType: "image/png"}

	t.Run("completes deposit and credits balance", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now().Add(-10*time.Second))
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, pending.ID).Return(pending, nil).Once()
		mocks.verifier.On("Verify", ctx, proofMatcher(pending.ID, 5000)).Return(&verifier.Result{
			Success:        true,
			Confidence:     92,
			ReferenceToken: "TXN-REF-1",
		}, nil).Once()
		mocks.transactionRepo.On("ReferenceTokenInUse", ctx, "TXN-REF-1").Return(false, nil).Once()
		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("MarkCompleted", ctx, pending.ID, "TXN-REF-1").Return(nil).Once()
		mocks.accountRepo.On("Update", ctx, mock.MatchedBy(func(a *account.Account) bool {
			return a.Balance == 6000 && a.LastVerifiedDepositAt != nil
		})).Return(nil).Once()
		mocks.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		txn, err := svc.ConfirmDeposit(ctx, pending.ID, proof)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusCompleted, txn.Status)
		require.NotNil(t, txn.ReferenceToken)
		assert.Equal(t, "TXN-REF-1", *txn.ReferenceToken)
		mocks.accountRepo.AssertExpectations(t)
		mocks.outboxRepo.AssertExpectations(t)
	})

	t.Run("late proof fails the deposit", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		stale, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now().Add(-3*time.Minute))
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, stale.ID).Return(stale, nil).Once()
		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("MarkFailed", ctx, stale.ID).Return(nil).Once()
		mocks.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		txn, err := svc.ConfirmDeposit(ctx, stale.ID, proof)
		require.Error(t, err)
		var windowErr ErrConfirmationWindowExpired
		assert.ErrorAs(t, err, &windowErr)
		assert.Equal(t, stale.ID, windowErr.TransactionID)
		assert.Nil(t, txn)
		assert.Equal(t, transaction.StatusFailed, stale.Status)
		mocks.verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("rejected verdict leaves the deposit pending", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now().Add(-10*time.Second))
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, pending.ID).Return(pending, nil).Once()
		mocks.verifier.On("Verify", ctx, proofMatcher(pending.ID, 5000)).Return(&verifier.Result{
			Success:    false,
			Confidence: 15,
			Reason:     "amount mismatch",
		}, nil).Once()

		txn, err := svc.ConfirmDeposit(ctx, pending.ID, proof)
		require.Error(t, err)
		var rejectedErr ErrVerificationRejected
		assert.ErrorAs(t, err, &rejectedErr)
		assert.Equal(t, "amount mismatch", rejectedErr.Reason)
		assert.Nil(t, txn)
		assert.Equal(t, transaction.StatusPending, pending.Status)
		mocks.transactionRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything)
		mocks.accountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("rejected deposit is confirmable on retry within the window", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now().Add(-10*time.Second))
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, pending.ID).Return(pending, nil).Twice()
		mocks.verifier.On("Verify", ctx, proofMatcher(pending.ID, 5000)).Return(&verifier.Result{
			Success: false,
			Reason:  "unreadable image",
		}, nil).Once()

		_, err = svc.ConfirmDeposit(ctx, pending.ID, proof)
		require.Error(t, err)
		require.Equal(t, transaction.StatusPending, pending.Status)

		mocks.verifier.On("Verify", ctx, proofMatcher(pending.ID, 5000)).Return(&verifier.Result{
			Success:        true,
			Confidence:     88,
			ReferenceToken: "TXN-REF-RETRY",
		}, nil).Once()
		mocks.transactionRepo.On("ReferenceTokenInUse", ctx, "TXN-REF-RETRY").Return(false, nil).Once()
		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("MarkCompleted", ctx, pending.ID, "TXN-REF-RETRY").Return(nil).Once()
		mocks.accountRepo.On("Update", ctx, mock.AnythingOfType("*account.Account")).Return(nil).Once()
		mocks.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		txn, err := svc.ConfirmDeposit(ctx, pending.ID, proof)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusCompleted, txn.Status)
		mocks.transactionRepo.AssertExpectations(t)
	})

	t.Run("low confidence verdict leaves the deposit pending", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now())
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, pending.ID).Return(pending, nil).Once()
		mocks.verifier.On("Verify", ctx, proofMatcher(pending.ID, 5000)).Return(&verifier.Result{
			Success:        true,
			Confidence:     40, // Below the 60 floor
			ReferenceToken: "TXN-REF-2",
		}, nil).Once()

		txn, err := svc.ConfirmDeposit(ctx, pending.ID, proof)
		require.Error(t, err)
		var rejectedErr ErrVerificationRejected
		assert.ErrorAs(t, err, &rejectedErr)
		assert.Equal(t, 40, rejectedErr.Confidence)
		assert.Nil(t, txn)
		assert.Equal(t, transaction.StatusPending, pending.Status)
		mocks.transactionRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything)
	})

	t.Run("unreachable verifier fails closed but keeps the deposit pending", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now())
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, pending.ID).Return(pending, nil).Once()
		mocks.verifier.On("Verify", ctx, proofMatcher(pending.ID, 5000)).Return(nil, errors.New("connection refused")).Once()

		txn, err := svc.ConfirmDeposit(ctx, pending.ID, proof)
		require.Error(t, err)
		var rejectedErr ErrVerificationRejected
		assert.ErrorAs(t, err, &rejectedErr)
		assert.Nil(t, txn)
		assert.Equal(t, transaction.StatusPending, pending.Status)
		mocks.transactionRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything)
		mocks.accountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("replayed reference token is detected and the deposit stays pending", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now())
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, pending.ID).Return(pending, nil).Once()
		mocks.verifier.On("Verify", ctx, proofMatcher(pending.ID, 5000)).Return(&verifier.Result{
			Success:        true,
			Confidence:     95,
			ReferenceToken: "TXN-REF-REUSED",
		}, nil).Once()
		mocks.transactionRepo.On("ReferenceTokenInUse", ctx, "TXN-REF-REUSED").Return(true, nil).Once()

		txn, err := svc.ConfirmDeposit(ctx, pending.ID, proof)
		require.Error(t, err)
		var replayErr transaction.ErrReplayDetected
		assert.ErrorAs(t, err, &replayErr)
		assert.Equal(t, "TXN-REF-REUSED", replayErr.ReferenceToken)
		assert.Nil(t, txn)
		assert.Equal(t, transaction.StatusPending, pending.Status)
		mocks.transactionRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything)
		mocks.accountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("confirming a terminal transaction is rejected", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		completed, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now())
		require.NoError(t, err)
		require.NoError(t, completed.Complete("TXN-REF-OLD", time.Now()))

		mocks.transactionRepo.On("GetByID", ctx, completed.ID).Return(completed, nil).Once()

		txn, err := svc.ConfirmDeposit(ctx, completed.ID, proof)
		require.Error(t, err)
		var notPendingErr transaction.ErrTransactionNotPending
		assert.ErrorAs(t, err, &notPendingErr)
		assert.Nil(t, txn)
		mocks.verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})
}

func TestLedgerService_CancelTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels pending transaction", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now())
		require.NoError(t, err)

		mocks.transactionRepo.On("GetByID", ctx, pending.ID).Return(pending, nil).Once()
		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("MarkFailed", ctx, pending.ID).Return(nil).Once()
		mocks.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		txn, err := svc.CancelTransaction(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusFailed, txn.Status)
		mocks.transactionRepo.AssertExpectations(t)
	})

	t.Run("cancelling a terminal transaction is a no-op", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(1000)
		completed, err := transaction.NewPendingDeposit(acc.ID, 5000, 1000, time.Now())
		require.NoError(t, err)
		require.NoError(t, completed.Complete("TXN-REF-3", time.Now()))

		mocks.transactionRepo.On("GetByID", ctx, completed.ID).Return(completed, nil).Once()

		txn, err := svc.CancelTransaction(ctx, completed.ID)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusCompleted, txn.Status)
		mocks.transactionRepo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything)
	})
}

func TestLedgerService_CreateWithdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("withdraws accrued profit", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(15000) // 10000 principal + 5000 profit

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("GetPendingByAccountID", ctx, acc.ID).Return(nil, nil).Once()
		mocks.transactionRepo.On("NetDeposits", ctx, acc.ID).Return(int64(10000), nil).Once()
		mocks.transactionRepo.On("Create", ctx, mock.MatchedBy(func(txn *transaction.Transaction) bool {
			return txn.Kind == transaction.KindWithdrawal && txn.Status == transaction.StatusCompleted && txn.Amount == 3000
		})).Return(nil).Once()
		mocks.accountRepo.On("Update", ctx, mock.MatchedBy(func(a *account.Account) bool {
			return a.Balance == 12000 && a.LastWithdrawalAt != nil
		})).Return(nil).Once()
		mocks.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(nil).Once()

		txn, err := svc.CreateWithdrawal(ctx, acc.ID, 3000)
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusCompleted, txn.Status)
		mocks.accountRepo.AssertExpectations(t)
		mocks.outboxRepo.AssertExpectations(t)
	})

	t.Run("denied during general cooldown", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(15000)
		acc.LastWithdrawalAt = timePtr(time.Now().Add(-24 * time.Hour)) // 13 days remain

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()

		txn, err := svc.CreateWithdrawal(ctx, acc.ID, 3000)
		require.Error(t, err)
		var notEligibleErr ErrWithdrawalNotEligible
		assert.ErrorAs(t, err, &notEligibleErr)
		assert.Equal(t, account.DenialGeneralCooldown, notEligibleErr.Decision.Reason)
		assert.Positive(t, notEligibleErr.Decision.RemainingSeconds())
		assert.Nil(t, txn)
		mocks.transactionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("denied during post-deposit lockout", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(15000)
		acc.LastVerifiedDepositAt = timePtr(time.Now().Add(-time.Hour))

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()

		txn, err := svc.CreateWithdrawal(ctx, acc.ID, 3000)
		require.Error(t, err)
		var notEligibleErr ErrWithdrawalNotEligible
		assert.ErrorAs(t, err, &notEligibleErr)
		assert.Equal(t, account.DenialVerifiedDepositLockout, notEligibleErr.Decision.Reason)
		assert.Nil(t, txn)
	})

	t.Run("larger remaining window wins when both are active", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(15000)
		acc.LastWithdrawalAt = timePtr(time.Now().Add(-13 * 24 * time.Hour))     // 1 day remains
		acc.LastVerifiedDepositAt = timePtr(time.Now().Add(-2 * 24 * time.Hour)) // 12 days remain

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()

		_, err := svc.CreateWithdrawal(ctx, acc.ID, 3000)
		require.Error(t, err)
		var notEligibleErr ErrWithdrawalNotEligible
		assert.ErrorAs(t, err, &notEligibleErr)
		assert.Equal(t, account.DenialVerifiedDepositLockout, notEligibleErr.Decision.Reason)
	})

	t.Run("rejects amount above withdrawable profit", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(15000)

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("GetPendingByAccountID", ctx, acc.ID).Return(nil, nil).Once()
		mocks.transactionRepo.On("NetDeposits", ctx, acc.ID).Return(int64(10000), nil).Once()

		txn, err := svc.CreateWithdrawal(ctx, acc.ID, 8000) // Only 5000 is profit
		require.Error(t, err)
		var exceedsErr ErrExceedsWithdrawable
		assert.ErrorAs(t, err, &exceedsErr)
		assert.Equal(t, int64(5000), exceedsErr.Withdrawable)
		assert.Nil(t, txn)
		mocks.accountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _ := newLedgerService(t)

		txn, err := svc.CreateWithdrawal(ctx, uuid.New(), -5)
		require.ErrorIs(t, err, transaction.ErrInvalidAmount)
		assert.Nil(t, txn)
	})

	t.Run("rejects while a live pending transaction exists", func(t *testing.T) {
		svc, mocks := newLedgerService(t)
		acc := testAccount(15000)
		pending, err := transaction.NewPendingDeposit(acc.ID, 2000, 1000, time.Now())
		require.NoError(t, err)

		mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		mocks.transactionRepo.On("GetPendingByAccountID", ctx, acc.ID).Return(pending, nil).Once()

		txn, err := svc.CreateWithdrawal(ctx, acc.ID, 3000)
		require.Error(t, err)
		var pendingErr transaction.ErrPendingTransactionExists
		assert.ErrorAs(t, err, &pendingErr)
		assert.Nil(t, txn)
	})
}

func TestLedgerService_OutboxMessageCarriesEvent(t *testing.T) {
	ctx := context.Background()
	svc, mocks := newLedgerService(t)
	acc := testAccount(15000)

	var staged *outbox.Message
	mocks.accountRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
	mocks.transactionRepo.On("GetPendingByAccountID", ctx, acc.ID).Return(nil, nil).Once()
	mocks.transactionRepo.On("NetDeposits", ctx, acc.ID).Return(int64(10000), nil).Once()
	mocks.transactionRepo.On("Create", ctx, mock.AnythingOfType("*transaction.Transaction")).Return(nil).Once()
	mocks.accountRepo.On("Update", ctx, mock.AnythingOfType("*account.Account")).Return(nil).Once()
	mocks.outboxRepo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Run(func(args mock.Arguments) {
		staged = args.Get(1).(*outbox.Message)
	}).Return(nil).Once()

	txn, err := svc.CreateWithdrawal(ctx, acc.ID, 3000)
	require.NoError(t, err)
	require.NotNil(t, staged)

	event, err := staged.GetEvent()
	require.NoError(t, err)
	assert.Equal(t, txn.ID, event.TransactionID)
	assert.Equal(t, acc.ID, event.AccountID)
	assert.Equal(t, int64(3000), event.Amount)
	assert.Equal(t, int64(12000), event.Balance)
}
