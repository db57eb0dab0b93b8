package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/growth"
	"github.com/growthvault-ledger/internal/domain/outbox"
	"github.com/growthvault-ledger/internal/domain/shared"
	"github.com/growthvault-ledger/internal/platform/persistence"
)

const recentGrowthLimit = 10

type growthService struct {
	logger      *slog.Logger
	db          persistence.TxRunner
	accountRepo account.Repository
	growthRepo  growth.Repository
	outboxRepo  outbox.Repository

	rate     float64
	interval time.Duration
}

// NewGrowthService creates the growth accrual service
func NewGrowthService(
	logger *slog.Logger,
	db persistence.TxRunner,
	cfg *config.GrowthConfig,
	accountRepo account.Repository,
	growthRepo growth.Repository,
	outboxRepo outbox.Repository,
) GrowthService {
	return &growthService{
		logger:      logger,
		db:          db,
		accountRepo: accountRepo,
		growthRepo:  growthRepo,
		outboxRepo:  outboxRepo,
		rate:        cfg.Rate,
		interval:    cfg.Interval,
	}
}

// ApplyGrowth applies one accrual step if the account is due. The anchor is
// the most recent growth entry's timestamp, falling back to the account's
// creation time, so the schedule survives restarts without drift. At most
// one step is applied per call regardless of how many intervals elapsed; the
// new step is anchored at now.
func (s *growthService) ApplyGrowth(ctx context.Context, accountID uuid.UUID) (*growth.Entry, error) {
	now := time.Now()
	var entry *growth.Entry

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accRepo := s.accountRepo.WithTx(tx)
		growthRepo := s.growthRepo.WithTx(tx)

		acc, err := accRepo.LockForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Balance <= 0 {
			return nil
		}

		latest, err := growthRepo.GetLatestByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		anchor := acc.CreatedAt
		if latest != nil {
			anchor = latest.AppliedAt
		}
		if now.Sub(anchor) < s.interval {
			return nil
		}

		oldBalance := acc.Balance
		amount := int64(float64(oldBalance) * s.rate)
		if amount <= 0 {
			return nil
		}

		if err := acc.CreditGrowth(amount, now); err != nil {
			return err
		}

		entry = growth.NewEntry(accountID, oldBalance, acc.Balance, s.rate, now)
		if err := growthRepo.Create(ctx, entry); err != nil {
			return err
		}
		if err := accRepo.Update(ctx, acc); err != nil {
			return err
		}

		return s.stageEvent(ctx, tx, shared.NewLedgerEvent(
			shared.EventGrowthApplied, accountID, uuid.Nil, amount, acc.Balance,
			shared.CorrelationIDFromContext(ctx), now,
		))
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.logger.Info("Growth applied",
			"account_id", accountID.String(),
			"old_balance", entry.OldBalance,
			"new_balance", entry.NewBalance,
		)
	}
	return entry, nil
}

// GetGrowthStatus reports the accrual schedule without mutating anything
func (s *growthService) GetGrowthStatus(ctx context.Context, accountID uuid.UUID) (*GrowthStatus, error) {
	now := time.Now()

	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	latest, err := s.growthRepo.GetLatestByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	anchor := acc.CreatedAt
	if latest != nil {
		anchor = latest.AppliedAt
	}

	recent, err := s.growthRepo.GetRecentByAccountID(ctx, accountID, recentGrowthLimit)
	if err != nil {
		return nil, err
	}

	next := anchor.Add(s.interval)
	timeUntil := next.Sub(now)
	if timeUntil < 0 {
		timeUntil = 0
	}

	return &GrowthStatus{
		AccountID:      accountID,
		CurrentBalance: acc.Balance,
		Rate:           s.rate,
		NextGrowthTime: next,
		TimeUntil:      timeUntil,
		CanApplyGrowth: timeUntil == 0 && acc.Balance > 0,
		RecentGrowth:   recent,
	}, nil
}

func (s *growthService) stageEvent(ctx context.Context, tx pgx.Tx, event *shared.LedgerEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}
