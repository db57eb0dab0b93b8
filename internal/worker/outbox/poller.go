// Package outbox drains the transactional outbox into Kafka. Publishing is
// at-least-once: a message is only marked processed after the broker
// acknowledges the write, so consumers must tolerate redelivery.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/domain/outbox"
	"github.com/growthvault-ledger/internal/domain/shared"
	"github.com/growthvault-ledger/internal/platform/messaging/producers"
)

// Poller periodically publishes pending outbox messages
type Poller struct {
	logger    *slog.Logger
	repo      outbox.Repository
	publisher producers.MessagePublisher

	pollingInterval  time.Duration
	batchSize        int
	maxRetryAttempts int

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPoller creates the outbox poller
func NewPoller(
	logger *slog.Logger,
	cfg *config.OutboxConfig,
	repo outbox.Repository,
	publisher producers.MessagePublisher,
) *Poller {
	return &Poller{
		logger:           logger,
		repo:             repo,
		publisher:        publisher,
		pollingInterval:  cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called
func (p *Poller) Start(ctx context.Context) {
	go func() {
		defer close(p.doneCh)

		ticker := time.NewTicker(p.pollingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.Drain(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Drain publishes one batch of pending messages. Events are keyed by account
// ID so Kafka preserves per-account ordering.
func (p *Poller) Drain(ctx context.Context) {
	messages, err := p.repo.GetPending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("Failed to fetch pending outbox messages", "error", err)
		return
	}

	for _, message := range messages {
		p.publishOne(ctx, message)
	}
}

func (p *Poller) publishOne(ctx context.Context, message *outbox.Message) {
	if err := p.repo.IncrementAttempts(ctx, message.ID); err != nil {
		p.logger.Error("Failed to record outbox attempt", "message_id", message.ID, "error", err)
		return
	}
	message.IncrementAttempts()

	event, err := message.GetEvent()
	if err != nil {
		// The payload is unreadable; retrying cannot help
		p.logger.Error("Outbox message carries an unreadable payload",
			"message_id", message.ID,
			"event_id", message.EventID.String(),
			"error", err,
		)
		p.markFailed(ctx, message)
		return
	}

	if err := p.publisher.Publish(ctx, message.AccountID.String(), event); err != nil {
		p.logger.Error("Failed to publish outbox message",
			"message_id", message.ID,
			"event_id", message.EventID.String(),
			"attempts", message.Attempts,
			"error", err,
		)
		if message.Attempts >= p.maxRetryAttempts {
			p.markFailed(ctx, message)
		}
		return
	}

	if err := p.repo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		// The event went out but the status write failed; the next drain will
		// republish and consumers dedupe on event id
		p.logger.Error("Failed to mark outbox message processed",
			"message_id", message.ID,
			"error", err,
		)
		return
	}

	p.logger.Debug("Published ledger event",
		"message_id", message.ID,
		"event_id", message.EventID.String(),
		"type", string(event.Type),
	)
}

func (p *Poller) markFailed(ctx context.Context, message *outbox.Message) {
	p.logger.Warn("Giving up on outbox message",
		"message_id", message.ID,
		"event_id", message.EventID.String(),
		"attempts", message.Attempts,
	)
	if err := p.repo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); err != nil {
		p.logger.Error("Failed to mark outbox message failed", "message_id", message.ID, "error", err)
	}
}

// Stop halts the polling loop
func (p *Poller) Stop() {
	close(p.stopCh)
	<-p.doneCh
}
