package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/transaction"
	"github.com/growthvault-ledger/internal/service"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create opens a new account, rejecting duplicate email addresses
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.OwnerName, req.Email)
	if err != nil {
		var duplicateEmailErr account.ErrDuplicateEmail
		if errors.As(err, &duplicateEmailErr) {
			h.logger.Warn("Attempt to create account with duplicate email", "email", req.Email)
			RespondConflict(c, "DUPLICATE_EMAIL", "Account with this email already exists")
			return
		}
		h.logger.Error("Failed to create account", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc, 0))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	acc, withdrawable, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc, withdrawable))
}

// GetTransactions retrieves paginated transaction history for an account
func (h *AccountHandler) GetTransactions(c *gin.Context) {
	accountID, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	offset := (pagination.Page - 1) * pagination.PerPage
	txns, total, err := h.accountService.GetTransactions(c.Request.Context(), accountID, pagination.PerPage, offset)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get transactions", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn, 0))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// GetEligibility reports whether the account may withdraw right now and, if
// not, which rolling window blocks it and for how long
func (h *AccountHandler) GetEligibility(c *gin.Context) {
	accountID, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	decision, err := h.accountService.GetEligibility(c.Request.Context(), accountID)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to evaluate eligibility", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, EligibilityResponse{
		Allowed:          decision.Allowed,
		Reason:           string(decision.Reason),
		RemainingSeconds: decision.RemainingSeconds(),
	})
}

// parseIDParam parses the :id path parameter, responding 400 on failure
func parseIDParam(c *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account, withdrawable int64) AccountResponse {
	response := AccountResponse{
		ID:                 acc.ID.String(),
		OwnerName:          acc.OwnerName,
		Email:              acc.Email,
		Balance:            acc.Balance,
		WithdrawableProfit: withdrawable,
		CreatedAt:          acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.LastVerifiedDepositAt != nil {
		response.LastVerifiedDepositAt = acc.LastVerifiedDepositAt.Format(time.RFC3339)
	}
	if acc.LastWithdrawalAt != nil {
		response.LastWithdrawalAt = acc.LastWithdrawalAt.Format(time.RFC3339)
	}
	return response
}

// mapTransactionToResponse maps a transaction to its response DTO. A non-zero
// windowRemaining is included for pending deposits only.
func mapTransactionToResponse(txn *transaction.Transaction, windowRemaining int64) TransactionResponse {
	response := TransactionResponse{
		ID:              txn.ID.String(),
		AccountID:       txn.AccountID.String(),
		Kind:            string(txn.Kind),
		Amount:          txn.Amount,
		Status:          string(txn.Status),
		CreatedAt:       txn.CreatedAt.Format(time.RFC3339),
		StatusChangedAt: txn.StatusChangedAt.Format(time.RFC3339),
	}
	if txn.ReferenceToken != nil {
		response.ReferenceToken = *txn.ReferenceToken
	}
	if txn.Status == transaction.StatusPending {
		response.WindowRemaining = windowRemaining
	}
	return response
}
