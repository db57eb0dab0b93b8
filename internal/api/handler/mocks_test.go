package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/growth"
	"github.com/growthvault-ledger/internal/domain/transaction"
	"github.com/growthvault-ledger/internal/platform/verifier"
	"github.com/growthvault-ledger/internal/service"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, ownerName, email string) (*account.Account, error) {
	args := m.Called(ctx, ownerName, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, int64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*account.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountService) GetTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, int64, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*transaction.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountService) GetEligibility(ctx context.Context, accountID uuid.UUID) (*account.Decision, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Decision), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateDeposit(ctx context.Context, accountID uuid.UUID, amount int64) (*transaction.Transaction, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) ConfirmDeposit(ctx context.Context, transactionID uuid.UUID, proof verifier.Proof) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID, proof)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) CancelTransaction(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) CreateWithdrawal(ctx context.Context, accountID uuid.UUID, amount int64) (*transaction.Transaction, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

type MockGrowthService struct {
	mock.Mock
}

func (m *MockGrowthService) ApplyGrowth(ctx context.Context, accountID uuid.UUID) (*growth.Entry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*growth.Entry), args.Error(1)
}

func (m *MockGrowthService) GetGrowthStatus(ctx context.Context, accountID uuid.UUID) (*service.GrowthStatus, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GrowthStatus), args.Error(1)
}

var (
	_ service.AccountService = (*MockAccountService)(nil)
	_ service.LedgerService  = (*MockLedgerService)(nil)
	_ service.GrowthService  = (*MockGrowthService)(nil)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// decodeData unmarshals the "data" field of a wrapped response into out
func decodeData(t *testing.T, body []byte, out interface{}) {
	t.Helper()
	var response Response
	require.NoError(t, json.Unmarshal(body, &response))
	require.NotNil(t, response.Data, "'data' field should not be nil")
	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(dataBytes, out))
}
