package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/growthvault-ledger/internal/api/middleware"
	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/transaction"
	"github.com/growthvault-ledger/internal/platform/verifier"
	"github.com/growthvault-ledger/internal/service"
)

// TransactionHandler handles HTTP requests for deposits and withdrawals
type TransactionHandler struct {
	ledgerService      service.LedgerService
	logger             *slog.Logger
	confirmationWindow time.Duration
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, cfg *config.LedgerConfig, ledgerService service.LedgerService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService:      ledgerService,
		logger:             logger,
		confirmationWindow: cfg.ConfirmationWindow,
	}
}

// CreateDeposit opens a pending deposit. The response includes the seconds
// left in the confirmation window so clients can drive a countdown.
func (h *TransactionHandler) CreateDeposit(c *gin.Context) {
	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	txn, err := h.ledgerService.CreateDeposit(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		h.respondTransactionError(c, err)
		return
	}

	RespondCreated(c, h.mapWithWindow(txn))
}

// ConfirmDeposit submits payment proof for a pending deposit
func (h *TransactionHandler) ConfirmDeposit(c *gin.Context) {
	transactionID, ok := parseIDParam(c, "Invalid transaction ID")
	if !ok {
		return
	}

	var req ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txn, err := h.ledgerService.ConfirmDeposit(c.Request.Context(), transactionID, verifier.Proof{
		TransactionID: transactionID.String(),
		ImageData:     req.ImageData,
		ContentType:   req.ContentType,
	})
	if err != nil {
		h.respondTransactionError(c, err)
		return
	}

	RespondOK(c, h.mapWithWindow(txn))
}

// Cancel fails a pending transaction. Cancelling an already terminal
// transaction succeeds and returns its current state.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	transactionID, ok := parseIDParam(c, "Invalid transaction ID")
	if !ok {
		return
	}

	txn, err := h.ledgerService.CancelTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.respondTransactionError(c, err)
		return
	}

	RespondOK(c, h.mapWithWindow(txn))
}

// CreateWithdrawal executes an immediate withdrawal of accrued profit
func (h *TransactionHandler) CreateWithdrawal(c *gin.Context) {
	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	txn, err := h.ledgerService.CreateWithdrawal(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		h.respondTransactionError(c, err)
		return
	}

	RespondCreated(c, h.mapWithWindow(txn))
}

// GetByID retrieves transaction details by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	transactionID, ok := parseIDParam(c, "Invalid transaction ID")
	if !ok {
		return
	}

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.respondTransactionError(c, err)
		return
	}

	RespondOK(c, h.mapWithWindow(txn))
}

func (h *TransactionHandler) mapWithWindow(txn *transaction.Transaction) TransactionResponse {
	remaining := int64(txn.WindowRemaining(time.Now(), h.confirmationWindow).Seconds())
	return mapTransactionToResponse(txn, remaining)
}

// respondTransactionError maps service and domain errors to HTTP responses.
// Replay detections deliberately name the condition so operators can treat
// them as fraud signals.
func (h *TransactionHandler) respondTransactionError(c *gin.Context, err error) {
	var (
		accNotFound    account.ErrAccountNotFound
		txnNotFound    transaction.ErrTransactionNotFound
		pendingExists  transaction.ErrPendingTransactionExists
		notPending     transaction.ErrTransactionNotPending
		replayDetected transaction.ErrReplayDetected
		windowExpired  service.ErrConfirmationWindowExpired
		verifyRejected service.ErrVerificationRejected
		notEligible    service.ErrWithdrawalNotEligible
		exceedsProfit  service.ErrExceedsWithdrawable
	)

	switch {
	case errors.Is(err, transaction.ErrInvalidAmount):
		RespondBadRequest(c, "Amount must be positive")
	case errors.Is(err, transaction.ErrBelowMinimumDeposit):
		RespondBadRequest(c, "Amount is below the minimum deposit")
	case errors.As(err, &accNotFound):
		RespondNotFound(c, "Account not found")
	case errors.As(err, &txnNotFound):
		RespondNotFound(c, "Transaction not found")
	case errors.As(err, &pendingExists):
		RespondConflict(c, "PENDING_TRANSACTION_EXISTS", "Account already has a pending transaction")
	case errors.As(err, &notPending):
		RespondConflict(c, "TRANSACTION_NOT_PENDING", "Transaction is no longer pending")
	case errors.As(err, &replayDetected):
		h.logger.Warn("Replay attempt detected", "error", err)
		RespondConflict(c, "REPLAY_DETECTED", "Payment proof was already used by another transaction")
	case errors.As(err, &windowExpired):
		RespondGone(c, "CONFIRMATION_WINDOW_EXPIRED", "Confirmation window expired; the deposit has been failed")
	case errors.As(err, &verifyRejected):
		RespondUnprocessable(c, "VERIFICATION_REJECTED", "Payment proof was rejected")
	case errors.As(err, &notEligible):
		// The denial payload carries the gate verdict so clients can show a
		// countdown without a second request
		response := NewErrorResponse("WITHDRAWAL_NOT_ELIGIBLE", "Withdrawal is not eligible yet")
		response.Data = EligibilityResponse{
			Allowed:          false,
			Reason:           string(notEligible.Decision.Reason),
			RemainingSeconds: notEligible.Decision.RemainingSeconds(),
		}
		response.CorrelationID = middleware.GetCorrelationID(c)
		c.JSON(http.StatusForbidden, response)
	case errors.As(err, &exceedsProfit):
		RespondUnprocessable(c, "EXCEEDS_WITHDRAWABLE", "Requested amount exceeds withdrawable profit")
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Insufficient funds for withdrawal")
	default:
		h.logger.Error("Transaction operation failed", "error", err)
		RespondInternalError(c)
	}
}
