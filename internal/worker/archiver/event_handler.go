// Package archiver consumes ledger events from Kafka and archives them to
// the event store.
package archiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/growthvault-ledger/internal/domain/archive"
	"github.com/growthvault-ledger/internal/domain/shared"
	"github.com/growthvault-ledger/internal/platform/messaging/producers"
)

// LedgerEventHandler archives incoming ledger events
type LedgerEventHandler struct {
	archiveRepo archive.Repository
	dlqProducer producers.DeadLetterPublisher
	logger      *slog.Logger
}

// NewLedgerEventHandler creates a new handler
func NewLedgerEventHandler(
	logger *slog.Logger,
	archiveRepo archive.Repository,
	dlqProducer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		archiveRepo: archiveRepo,
		dlqProducer: dlqProducer,
		logger:      logger,
	}
}

// HandleMessage archives one Kafka message. Returning nil commits the
// offset; redelivered events dedupe on event id so processing stays
// idempotent.
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal ledger event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available; retrying a malformed payload cannot help
		if h.dlqProducer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.dlqProducer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key))
				return nil
			}
		}
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	if err := h.archiveRepo.Create(ctx, archive.FromEvent(&event)); err != nil {
		var duplicate archive.ErrDuplicateEvent
		if errors.As(err, &duplicate) {
			logger.Debug("Event already archived, committing offset", "event_id", event.EventID.String())
			return nil
		}
		logger.Error("Failed to archive ledger event",
			"event_id", event.EventID.String(),
			"account_id", event.AccountID.String(),
			"error", err,
		)
		return fmt.Errorf("archiving event %s failed: %w", event.EventID.String(), err)
	}

	logger.Info("Archived ledger event",
		"event_id", event.EventID.String(),
		"type", string(event.Type),
		"account_id", event.AccountID.String(),
	)
	return nil
}
