// Package scheduler runs the periodic growth sweep. Each sweep pages through
// all accounts and submits one accrual check per account to a worker pool;
// the per-account row lock makes concurrent checks safe.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/service"
)

// GrowthSweeper periodically applies due growth across all accounts
type GrowthSweeper struct {
	logger        *slog.Logger
	accountRepo   account.Repository
	growthService service.GrowthService
	pool          *ants.Pool

	sweepInterval time.Duration
	pageSize      int

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewGrowthSweeper creates the sweep scheduler backed by a worker pool
func NewGrowthSweeper(
	logger *slog.Logger,
	growthCfg *config.GrowthConfig,
	poolCfg *config.WorkerPoolConfig,
	accountRepo account.Repository,
	growthService service.GrowthService,
) (*GrowthSweeper, error) {
	pool, err := ants.NewPool(poolCfg.Size)
	if err != nil {
		return nil, err
	}

	return &GrowthSweeper{
		logger:        logger,
		accountRepo:   accountRepo,
		growthService: growthService,
		pool:          pool,
		sweepInterval: growthCfg.SweepInterval,
		pageSize:      growthCfg.SweepPageSize,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}, nil
}

// Start runs the sweep loop until Stop is called. An initial sweep runs
// immediately so accrual resumes promptly after a restart.
func (s *GrowthSweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.doneCh)

		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		s.Sweep(ctx)

		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Sweep pages through all accounts and applies any due accrual. It blocks
// until every submitted check has finished.
func (s *GrowthSweeper) Sweep(ctx context.Context) {
	start := time.Now()
	var wg sync.WaitGroup
	var checked int

	for offset := 0; ; offset += s.pageSize {
		ids, err := s.accountRepo.ListIDs(ctx, s.pageSize, offset)
		if err != nil {
			s.logger.Error("Growth sweep failed to list accounts", "offset", offset, "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			accountID := id
			wg.Add(1)
			if err := s.pool.Submit(func() {
				defer wg.Done()
				s.applyOne(ctx, accountID)
			}); err != nil {
				wg.Done()
				s.logger.Error("Failed to submit growth check to worker pool",
					"account_id", accountID.String(),
					"error", err,
				)
			}
		}
		checked += len(ids)

		if len(ids) < s.pageSize {
			break
		}
	}

	wg.Wait()
	s.logger.Info("Growth sweep finished",
		"accounts_checked", checked,
		"duration", time.Since(start),
	)
}

func (s *GrowthSweeper) applyOne(ctx context.Context, accountID uuid.UUID) {
	entry, err := s.growthService.ApplyGrowth(ctx, accountID)
	if err != nil {
		s.logger.Error("Growth accrual failed", "account_id", accountID.String(), "error", err)
		return
	}
	if entry != nil {
		s.logger.Debug("Growth accrued during sweep",
			"account_id", accountID.String(),
			"amount", entry.NewBalance-entry.OldBalance,
		)
	}
}

// Stop halts the sweep loop and releases the worker pool
func (s *GrowthSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh

	s.logger.Info("Shutting down growth sweeper", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of busy workers in the pool
func (s *GrowthSweeper) Running() int {
	return s.pool.Running()
}
