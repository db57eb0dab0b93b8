package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/growthvault-ledger/internal/domain/transaction"
	"github.com/growthvault-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Partial unique index names enforced by the schema. Violations are mapped
// to typed domain errors.
const (
	onePendingIndexName     = "idx_transactions_one_pending"
	referenceTokenIndexName = "idx_transactions_reference_token"
)

// TransactionRepository implements the transaction.Repository interface for
// PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new transaction. The one-pending-per-account index turns a
// duplicate pending insert into ErrPendingTransactionExists.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, kind, amount, status, reference_token, created_at, status_changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.AccountID,
		txn.Kind,
		txn.Amount,
		txn.Status,
		txn.ReferenceToken,
		txn.CreatedAt,
		txn.StatusChangedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			if pgErr.ConstraintName == onePendingIndexName {
				return transaction.ErrPendingTransactionExists{AccountID: txn.AccountID}
			}
			if pgErr.ConstraintName == referenceTokenIndexName && txn.ReferenceToken != nil {
				return transaction.ErrReplayDetected{ReferenceToken: *txn.ReferenceToken}
			}
		}
		r.logger.Error("Failed to create transaction", "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT id, account_id, kind, amount, status, reference_token, created_at, status_changed_at
		FROM transactions
		WHERE id = $1
	`

	var txn transaction.Transaction
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Kind,
		&txn.Amount,
		&txn.Status,
		&txn.ReferenceToken,
		&txn.CreatedAt,
		&txn.StatusChangedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

// GetByAccountID retrieves a page of an account's transactions, newest first
func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT id, account_id, kind, amount, status, reference_token, created_at, status_changed_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get transactions by account", "accountID", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get transactions by account: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		var txn transaction.Transaction
		if err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&txn.Kind,
			&txn.Amount,
			&txn.Status,
			&txn.ReferenceToken,
			&txn.CreatedAt,
			&txn.StatusChangedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// CountByAccountID returns the total number of an account's transactions
func (r *TransactionRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE account_id = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count transactions", "accountID", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// GetPendingByAccountID returns the account's single pending transaction, or
// nil when none exists
func (r *TransactionRepository) GetPendingByAccountID(ctx context.Context, accountID uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT id, account_id, kind, amount, status, reference_token, created_at, status_changed_at
		FROM transactions
		WHERE account_id = $1 AND status = 'PENDING'
	`

	var txn transaction.Transaction
	err := r.querier.QueryRow(ctx, query, accountID).Scan(
		&txn.ID,
		&txn.AccountID,
		&txn.Kind,
		&txn.Amount,
		&txn.Status,
		&txn.ReferenceToken,
		&txn.CreatedAt,
		&txn.StatusChangedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get pending transaction", "accountID", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get pending transaction: %w", err)
	}

	return &txn, nil
}

// MarkCompleted transitions a pending transaction to COMPLETED, recording the
// verifier reference token. The conditional WHERE keeps the transition
// single-shot; the partial unique index on reference_token turns a replayed
// token into ErrReplayDetected.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, referenceToken string) error {
	query := `
		UPDATE transactions
		SET status = 'COMPLETED', reference_token = $1, status_changed_at = NOW()
		WHERE id = $2 AND status = 'PENDING'
	`

	result, err := r.querier.Exec(ctx, query, referenceToken, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == referenceTokenIndexName {
			return transaction.ErrReplayDetected{ReferenceToken: referenceToken}
		}
		r.logger.Error("Failed to mark transaction completed", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark transaction completed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotPending{TransactionID: id}
	}

	return nil
}

// MarkFailed transitions a pending transaction to FAILED
func (r *TransactionRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET status = 'FAILED', status_changed_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to mark transaction failed", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark transaction failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotPending{TransactionID: id}
	}

	return nil
}

// ReferenceTokenInUse reports whether a completed transaction already carries
// the reference token
func (r *TransactionRepository) ReferenceTokenInUse(ctx context.Context, referenceToken string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE reference_token = $1 AND status = 'COMPLETED'
		)
	`

	var inUse bool
	if err := r.querier.QueryRow(ctx, query, referenceToken).Scan(&inUse); err != nil {
		r.logger.Error("Failed to check reference token", "error", err)
		return false, fmt.Errorf("failed to check reference token: %w", err)
	}

	return inUse, nil
}

// NetDeposits returns completed deposit total minus completed withdrawal
// total, floored at zero
func (r *TransactionRepository) NetDeposits(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT GREATEST(
			COALESCE(SUM(amount) FILTER (WHERE kind = 'DEPOSIT'), 0) -
			COALESCE(SUM(amount) FILTER (WHERE kind = 'WITHDRAWAL'), 0),
			0
		)
		FROM transactions
		WHERE account_id = $1 AND status = 'COMPLETED'
	`

	var net int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&net); err != nil {
		r.logger.Error("Failed to compute net deposits", "accountID", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to compute net deposits: %w", err)
	}

	return net, nil
}
