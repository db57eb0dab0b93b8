package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies ledger events on the wire
type EventType string

const (
	EventDepositCompleted    EventType = "DEPOSIT_COMPLETED"
	EventWithdrawalCompleted EventType = "WITHDRAWAL_COMPLETED"
	EventTransactionFailed   EventType = "TRANSACTION_FAILED"
	EventGrowthApplied       EventType = "GROWTH_APPLIED"
)

// LedgerEvent is the Kafka message emitted for every balance-affecting
// state change. Events are staged in the transactional outbox alongside the
// mutation they describe and archived to MongoDB by the worker.
type LedgerEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	Type          EventType `json:"type"`
	AccountID     uuid.UUID `json:"account_id"`
	TransactionID uuid.UUID `json:"transaction_id,omitempty"` // Nil for growth events
	Amount        int64     `json:"amount"`
	Balance       int64     `json:"balance"` // Account balance after the change
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewLedgerEvent stamps a fresh event id
func NewLedgerEvent(eventType EventType, accountID, transactionID uuid.UUID, amount, balance int64, correlationID string, occurredAt time.Time) *LedgerEvent {
	return &LedgerEvent{
		EventID:       uuid.New(),
		Type:          eventType,
		AccountID:     accountID,
		TransactionID: transactionID,
		Amount:        amount,
		Balance:       balance,
		CorrelationID: correlationID,
		OccurredAt:    occurredAt,
	}
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
