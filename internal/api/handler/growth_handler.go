package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/growthvault-ledger/internal/domain/account"
	"github.com/growthvault-ledger/internal/domain/growth"
	"github.com/growthvault-ledger/internal/service"
)

// GrowthHandler handles HTTP requests for growth accrual
type GrowthHandler struct {
	growthService service.GrowthService
	logger        *slog.Logger
}

// NewGrowthHandler creates a new growth handler
func NewGrowthHandler(logger *slog.Logger, growthService service.GrowthService) *GrowthHandler {
	return &GrowthHandler{
		growthService: growthService,
		logger:        logger,
	}
}

// GetStatus reports the account's accrual schedule and recent growth history
func (h *GrowthHandler) GetStatus(c *gin.Context) {
	accountID, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	status, err := h.growthService.GetGrowthStatus(c.Request.Context(), accountID)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get growth status", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	recent := make([]GrowthEntryResponse, 0, len(status.RecentGrowth))
	for _, entry := range status.RecentGrowth {
		recent = append(recent, mapGrowthEntryToResponse(entry))
	}

	RespondOK(c, GrowthStatusResponse{
		AccountID:        status.AccountID.String(),
		CurrentBalance:   status.CurrentBalance,
		Rate:             status.Rate,
		NextGrowthTime:   status.NextGrowthTime.Format(time.RFC3339),
		SecondsUntilNext: int64(status.TimeUntil.Seconds()),
		CanApplyGrowth:   status.CanApplyGrowth,
		RecentGrowth:     recent,
	})
}

// Apply triggers an accrual step for the account. When nothing is due the
// current status is returned unchanged, so the endpoint is safe to poll.
func (h *GrowthHandler) Apply(c *gin.Context) {
	accountID, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	entry, err := h.growthService.ApplyGrowth(c.Request.Context(), accountID)
	if err != nil {
		var accNotFound account.ErrAccountNotFound
		if errors.As(err, &accNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to apply growth", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	if entry == nil {
		RespondOK(c, gin.H{"applied": false})
		return
	}

	RespondOK(c, gin.H{"applied": true, "entry": mapGrowthEntryToResponse(entry)})
}

// mapGrowthEntryToResponse maps a growth entry to its response DTO
func mapGrowthEntryToResponse(entry *growth.Entry) GrowthEntryResponse {
	return GrowthEntryResponse{
		ID:         entry.ID.String(),
		OldBalance: entry.OldBalance,
		NewBalance: entry.NewBalance,
		Rate:       entry.Rate,
		AppliedAt:  entry.AppliedAt.Format(time.RFC3339),
	}
}
