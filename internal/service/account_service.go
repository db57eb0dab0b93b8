package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/transaction"
)

type accountService struct {
	logger          *slog.Logger
	accountRepo     account.Repository
	transactionRepo transaction.Repository
	gate            account.Gate
}

// NewAccountService creates the account use-case service
func NewAccountService(
	logger *slog.Logger,
	cfg *config.LedgerConfig,
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
) AccountService {
	return &accountService{
		logger:          logger,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		gate: account.Gate{
			Cooldown: cfg.WithdrawalCooldown,
			Lockout:  cfg.DepositLockout,
		},
	}
}

func (s *accountService) CreateAccount(ctx context.Context, ownerName, email string) (*account.Account, error) {
	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, account.ErrDuplicateEmail{Email: email}
	}

	acc, err := account.NewAccount(ownerName, email)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "account_id", acc.ID.String(), "owner", ownerName)
	return acc, nil
}

func (s *accountService) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, int64, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	netDeposits, err := s.transactionRepo.NetDeposits(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	return acc, acc.WithdrawableProfit(netDeposits), nil
}

func (s *accountService) GetTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, int64, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	transactions, err := s.transactionRepo.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.transactionRepo.CountByAccountID(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// GetEligibility recomputes the withdrawal gate from persisted timestamps
func (s *accountService) GetEligibility(ctx context.Context, accountID uuid.UUID) (*account.Decision, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	decision := s.gate.Evaluate(acc, time.Now())
	return &decision, nil
}
