// Package archive defines the append-only ledger event archive. Events flow
// from the transactional outbox through Kafka into the archive store, giving
// an immutable audit trail separate from the operational database.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/growthvault-ledger/internal/domain/shared"
)

// ArchivedEvent is the stored form of a ledger event
type ArchivedEvent struct {
	EventID       uuid.UUID        `bson:"event_id" json:"event_id"`
	Type          shared.EventType `bson:"type" json:"type"`
	AccountID     uuid.UUID        `bson:"account_id" json:"account_id"`
	TransactionID uuid.UUID        `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	Amount        int64            `bson:"amount" json:"amount"`
	Balance       int64            `bson:"balance" json:"balance"`
	CorrelationID string           `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`
	OccurredAt    time.Time        `bson:"occurred_at" json:"occurred_at"`
	ArchivedAt    time.Time        `bson:"archived_at" json:"archived_at"`
}

// FromEvent converts a wire event into its archived form
func FromEvent(event *shared.LedgerEvent) *ArchivedEvent {
	return &ArchivedEvent{
		EventID:       event.EventID,
		Type:          event.Type,
		AccountID:     event.AccountID,
		TransactionID: event.TransactionID,
		Amount:        event.Amount,
		Balance:       event.Balance,
		CorrelationID: event.CorrelationID,
		OccurredAt:    event.OccurredAt,
		ArchivedAt:    time.Now(),
	}
}

// Repository manages the archived event store
type Repository interface {
	Create(ctx context.Context, event *ArchivedEvent) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*ArchivedEvent, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ArchivedEvent, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*ArchivedEvent, error)
}

// ErrDuplicateEvent indicates the event was already archived. Consumers treat
// this as success so redelivered Kafka messages stay idempotent.
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "event already archived: " + e.EventID.String()
}

// ErrEventNotFound indicates a missing archived event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "archived event not found: " + e.EventID.String()
}

// Is matches any ErrEventNotFound when the target carries a nil ID
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}
