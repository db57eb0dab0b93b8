// Package mongo provides the MongoDB implementation of the ledger event
// archive. The archive is append-only; events are written once by the
// archiver worker and read for audit queries.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/growthvault-ledger/internal/domain/archive"
)

const (
	// EventCollectionName is the name of the archived events collection
	EventCollectionName = "ledger_events"
)

// EventArchiveRepository implements the archive.Repository interface for MongoDB
type EventArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewEventArchiveRepository creates a new MongoDB event archive repository
func NewEventArchiveRepository(logger *slog.Logger, db *mongo.Database) archive.Repository {
	return &EventArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an archived event after checking for duplicates.
// Returns ErrDuplicateEvent if an event with the same event ID exists, which
// keeps redelivered messages idempotent.
func (r *EventArchiveRepository) Create(ctx context.Context, event *archive.ArchivedEvent) error {
	collection := r.db.Collection(EventCollectionName)

	existing, err := r.GetByEventID(ctx, event.EventID)
	if err != nil && !errors.Is(err, archive.ErrEventNotFound{}) {
		r.logger.Error("Failed to check for existing archived event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing archived event: %w", err)
	}

	if existing != nil {
		return archive.ErrDuplicateEvent{EventID: event.EventID}
	}

	_, err = collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to archive event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to archive event: %w", err)
	}

	return nil
}

// GetByEventID retrieves an archived event by its event ID.
// Returns ErrEventNotFound if no event exists with the given ID.
func (r *EventArchiveRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*archive.ArchivedEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"event_id": eventID}
	var event archive.ArchivedEvent
	err := collection.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, archive.ErrEventNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get archived event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived event: %w", err)
	}

	return &event, nil
}

// GetByAccountID retrieves paginated archived events for an account.
// Results are sorted by occurrence time in descending order (newest first).
func (r *EventArchiveRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*archive.ArchivedEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived events",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*archive.ArchivedEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode archived events",
			"account_id", accountID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived events: %w", err)
	}

	return events, nil
}

// CountByAccountID counts the total number of archived events for an account
func (r *EventArchiveRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"account_id": accountID}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count archived events",
			"account_id", accountID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count archived events: %w", err)
	}

	return count, nil
}

// GetByTimeRange retrieves paginated archived events within the specified
// time window, newest first.
func (r *EventArchiveRepository) GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*archive.ArchivedEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{
		"occurred_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived events by time range",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to get archived events by time range: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*archive.ArchivedEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode archived events",
			"start_time", startTime,
			"end_time", endTime,
			"error", err)
		return nil, fmt.Errorf("failed to decode archived events: %w", err)
	}

	return events, nil
}
