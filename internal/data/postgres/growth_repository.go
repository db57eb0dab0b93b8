package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/growthvault-ledger/internal/domain/growth"
	"github.com/growthvault-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// GrowthRepository implements the growth.Repository interface for PostgreSQL
type GrowthRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewGrowthRepository creates a new PostgreSQL growth entry repository
func NewGrowthRepository(logger *slog.Logger, db *persistence.PostgresDB) growth.Repository {
	return &GrowthRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *GrowthRepository) WithTx(tx pgx.Tx) growth.Repository {
	return &GrowthRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a growth entry. Entries are append-only.
func (r *GrowthRepository) Create(ctx context.Context, entry *growth.Entry) error {
	query := `
		INSERT INTO growth_entries (id, account_id, old_balance, new_balance, rate, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.OldBalance,
		entry.NewBalance,
		entry.Rate,
		entry.AppliedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create growth entry", "accountID", entry.AccountID.String(), "error", err)
		return fmt.Errorf("failed to create growth entry: %w", err)
	}

	return nil
}

// GetLatestByAccountID returns the most recent growth entry, or nil when the
// account has never accrued growth
func (r *GrowthRepository) GetLatestByAccountID(ctx context.Context, accountID uuid.UUID) (*growth.Entry, error) {
	query := `
		SELECT id, account_id, old_balance, new_balance, rate, applied_at
		FROM growth_entries
		WHERE account_id = $1
		ORDER BY applied_at DESC
		LIMIT 1
	`

	var entry growth.Entry
	err := r.querier.QueryRow(ctx, query, accountID).Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.OldBalance,
		&entry.NewBalance,
		&entry.Rate,
		&entry.AppliedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest growth entry", "accountID", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get latest growth entry: %w", err)
	}

	return &entry, nil
}

// GetRecentByAccountID returns up to limit entries, newest first
func (r *GrowthRepository) GetRecentByAccountID(ctx context.Context, accountID uuid.UUID, limit int) ([]*growth.Entry, error) {
	query := `
		SELECT id, account_id, old_balance, new_balance, rate, applied_at
		FROM growth_entries
		WHERE account_id = $1
		ORDER BY applied_at DESC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit)
	if err != nil {
		r.logger.Error("Failed to get recent growth entries", "accountID", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get recent growth entries: %w", err)
	}
	defer rows.Close()

	var entries []*growth.Entry
	for rows.Next() {
		var entry growth.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.OldBalance,
			&entry.NewBalance,
			&entry.Rate,
			&entry.AppliedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan growth entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate growth entries: %w", err)
	}

	return entries, nil
}
