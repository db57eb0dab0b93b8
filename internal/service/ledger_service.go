package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/outbox"
	"github.com/growthvault-ledger/internal/domain/shared"
	"github.com/growthvault-ledger/internal/domain/transaction"
	"github.com/growthvault-ledger/internal/platform/persistence"
	"github.com/growthvault-ledger/internal/platform/verifier"
)

type ledgerService struct {
	logger          *slog.Logger
	db              persistence.TxRunner
	accountRepo     account.Repository
	transactionRepo transaction.Repository
	outboxRepo      outbox.Repository
	verifier        verifier.Verifier
	gate            account.Gate

	minDepositAmount   int64
	confirmationWindow time.Duration
	minConfidence      int
}

// NewLedgerService creates the transaction state machine service
func NewLedgerService(
	logger *slog.Logger,
	db persistence.TxRunner,
	ledgerCfg *config.LedgerConfig,
	verifierCfg *config.VerifierConfig,
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
	outboxRepo outbox.Repository,
	proofVerifier verifier.Verifier,
) LedgerService {
	return &ledgerService{
		logger:          logger,
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		verifier:        proofVerifier,
		gate: account.Gate{
			Cooldown: ledgerCfg.WithdrawalCooldown,
			Lockout:  ledgerCfg.DepositLockout,
		},
		minDepositAmount:   ledgerCfg.MinDepositAmount,
		confirmationWindow: ledgerCfg.ConfirmationWindow,
		minConfidence:      verifierCfg.MinConfidence,
	}
}

// CreateDeposit opens a pending deposit for later proof confirmation. If the
// account holds a stale pending transaction whose window has elapsed it is
// expired inside the same database transaction, so the one-pending-per-account
// invariant never blocks a fresh deposit spuriously.
func (s *ledgerService) CreateDeposit(ctx context.Context, accountID uuid.UUID, amount int64) (*transaction.Transaction, error) {
	now := time.Now()

	txn, err := transaction.NewPendingDeposit(accountID, amount, s.minDepositAmount, now)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accRepo := s.accountRepo.WithTx(tx)
		txnRepo := s.transactionRepo.WithTx(tx)

		acc, err := accRepo.LockForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		pending, err := txnRepo.GetPendingByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		if pending != nil {
			if !pending.WindowExpired(now, s.confirmationWindow) {
				return transaction.ErrPendingTransactionExists{AccountID: accountID}
			}
			// Lazily expire the stale transaction before admitting a new one
			if err := txnRepo.MarkFailed(ctx, pending.ID); err != nil {
				return err
			}
			if err := s.stageEvent(ctx, tx, shared.NewLedgerEvent(
				shared.EventTransactionFailed, accountID, pending.ID, pending.Amount, acc.Balance,
				shared.CorrelationIDFromContext(ctx), now,
			)); err != nil {
				return err
			}
			s.logger.Info("Expired stale pending transaction",
				"transaction_id", pending.ID.String(),
				"account_id", accountID.String(),
			)
		}

		return txnRepo.Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deposit created",
		"transaction_id", txn.ID.String(),
		"account_id", accountID.String(),
		"amount", amount,
	)
	return txn, nil
}

// ConfirmDeposit verifies the submitted proof and, on a passing verdict,
// completes the deposit and credits the balance atomically. The confirmation
// window is recomputed from the stored creation timestamp; a late proof fails
// the deposit instead of completing it.
func (s *ledgerService) ConfirmDeposit(ctx context.Context, transactionID uuid.UUID, proof verifier.Proof) (*transaction.Transaction, error) {
	now := time.Now()

	txn, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Kind != transaction.KindDeposit || txn.IsTerminal() {
		return nil, transaction.ErrTransactionNotPending{TransactionID: transactionID}
	}

	if txn.WindowExpired(now, s.confirmationWindow) {
		if failErr := s.failTransaction(ctx, txn, now); failErr != nil {
			return nil, failErr
		}
		return nil, ErrConfirmationWindowExpired{TransactionID: transactionID}
	}

	// The stored transaction is authoritative for what the proof must show
	proof.TransactionID = txn.ID.String()
	proof.Amount = txn.Amount

	// The verifier call happens outside any database transaction; it can
	// take seconds and must not hold row locks.
	// A failing verdict, an unreachable verifier, or a replayed token all
	// leave the row Pending: the caller may retry with better proof until
	// the window elapses. Only expiry transitions the deposit to Failed.
	result, err := s.verifier.Verify(ctx, proof)
	if err != nil {
		// Fail closed: an unreachable verifier is a rejection
		return nil, ErrVerificationRejected{Reason: err.Error()}
	}
	if !result.Success || result.Confidence < s.minConfidence || result.ReferenceToken == "" {
		return nil, ErrVerificationRejected{Reason: result.Reason, Confidence: result.Confidence}
	}

	// Replay pre-check. The partial unique index re-checks this inside the
	// transaction, so a racing confirmation still cannot double-spend a
	// reference token.
	inUse, err := s.transactionRepo.ReferenceTokenInUse(ctx, result.ReferenceToken)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, transaction.ErrReplayDetected{ReferenceToken: result.ReferenceToken}
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accRepo := s.accountRepo.WithTx(tx)
		txnRepo := s.transactionRepo.WithTx(tx)

		acc, err := accRepo.LockForUpdate(ctx, txn.AccountID)
		if err != nil {
			return err
		}

		if err := txnRepo.MarkCompleted(ctx, txn.ID, result.ReferenceToken); err != nil {
			return err
		}

		if err := acc.CreditDeposit(txn.Amount, now); err != nil {
			return err
		}
		if err := accRepo.Update(ctx, acc); err != nil {
			return err
		}

		return s.stageEvent(ctx, tx, shared.NewLedgerEvent(
			shared.EventDepositCompleted, txn.AccountID, txn.ID, txn.Amount, acc.Balance,
			shared.CorrelationIDFromContext(ctx), now,
		))
	})
	if err != nil {
		return nil, err
	}

	if err := txn.Complete(result.ReferenceToken, now); err != nil {
		// The row already transitioned; reload for an accurate response
		return s.transactionRepo.GetByID(ctx, transactionID)
	}

	s.logger.Info("Deposit confirmed",
		"transaction_id", txn.ID.String(),
		"account_id", txn.AccountID.String(),
		"amount", txn.Amount,
		"confidence", result.Confidence,
	)
	return txn, nil
}

// CancelTransaction fails a pending transaction. Cancelling a transaction
// that already reached a terminal state is a no-op and returns its current
// state unchanged.
func (s *ledgerService) CancelTransaction(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	now := time.Now()

	txn, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.IsTerminal() {
		return txn, nil
	}

	if err := s.failTransaction(ctx, txn, now); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction cancelled",
		"transaction_id", txn.ID.String(),
		"account_id", txn.AccountID.String(),
	)
	return txn, nil
}

// CreateWithdrawal executes an immediate withdrawal. The eligibility gate and
// the withdrawable-profit ceiling are evaluated under a row lock so racing
// withdrawals cannot both pass.
func (s *ledgerService) CreateWithdrawal(ctx context.Context, accountID uuid.UUID, amount int64) (*transaction.Transaction, error) {
	if amount <= 0 {
		return nil, transaction.ErrInvalidAmount
	}

	now := time.Now()
	var txn *transaction.Transaction

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accRepo := s.accountRepo.WithTx(tx)
		txnRepo := s.transactionRepo.WithTx(tx)

		acc, err := accRepo.LockForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		if decision := s.gate.Evaluate(acc, now); !decision.Allowed {
			return ErrWithdrawalNotEligible{Decision: decision}
		}

		pending, err := txnRepo.GetPendingByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		if pending != nil && !pending.WindowExpired(now, s.confirmationWindow) {
			return transaction.ErrPendingTransactionExists{AccountID: accountID}
		}

		netDeposits, err := txnRepo.NetDeposits(ctx, accountID)
		if err != nil {
			return err
		}
		if withdrawable := acc.WithdrawableProfit(netDeposits); amount > withdrawable {
			return ErrExceedsWithdrawable{Requested: amount, Withdrawable: withdrawable}
		}

		if err := acc.DebitWithdrawal(amount, now); err != nil {
			return err
		}

		txn, err = transaction.NewCompletedWithdrawal(accountID, amount, now)
		if err != nil {
			return err
		}
		if err := txnRepo.Create(ctx, txn); err != nil {
			return err
		}
		if err := accRepo.Update(ctx, acc); err != nil {
			return err
		}

		return s.stageEvent(ctx, tx, shared.NewLedgerEvent(
			shared.EventWithdrawalCompleted, accountID, txn.ID, amount, acc.Balance,
			shared.CorrelationIDFromContext(ctx), now,
		))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal completed",
		"transaction_id", txn.ID.String(),
		"account_id", accountID.String(),
		"amount", amount,
	)
	return txn, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, transactionID)
}

// failTransaction marks the row failed and stages the failure event. The
// in-memory transaction is updated to match.
func (s *ledgerService) failTransaction(ctx context.Context, txn *transaction.Transaction, now time.Time) error {
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accRepo := s.accountRepo.WithTx(tx)
		txnRepo := s.transactionRepo.WithTx(tx)

		acc, err := accRepo.LockForUpdate(ctx, txn.AccountID)
		if err != nil {
			return err
		}
		if err := txnRepo.MarkFailed(ctx, txn.ID); err != nil {
			return err
		}
		return s.stageEvent(ctx, tx, shared.NewLedgerEvent(
			shared.EventTransactionFailed, txn.AccountID, txn.ID, txn.Amount, acc.Balance,
			shared.CorrelationIDFromContext(ctx), now,
		))
	})
	if err != nil {
		return err
	}
	return txn.Fail(now)
}

// stageEvent writes the event to the transactional outbox
func (s *ledgerService) stageEvent(ctx context.Context, tx pgx.Tx, event *shared.LedgerEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}
