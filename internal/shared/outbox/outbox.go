package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
)

// Record is an outbox row persisted next to the state change it announces.
// The relay reads pending rows and publishes them to the message bus.
type Record struct {
	OutboxID    string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type Repository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]Record, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event eventsv1.Envelope) error
}

// Relay publishes persisted outbox records to the event bus. Module names the
// owning context in logs.
type Relay struct {
	Outbox    Repository
	Publisher Publisher
	Now       func() time.Time
	BatchSize int
	Module    string
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending rows and marks each row
// published only after the broker accepted it. It stops on the first failure
// so the next cycle retries the remaining rows in order.
func (r Relay) RunOnce(ctx context.Context) (int, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list failed",
			"event", "outbox_list_failed",
			"module", r.Module,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		logger.Debug("outbox relay found no pending rows",
			"event", "outbox_relay_noop",
			"module", r.Module,
			"layer", "worker",
			"batch_size", limit,
		)
		return 0, nil
	}

	now := time.Now().UTC()
	if r.Now != nil {
		now = r.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		var event eventsv1.Envelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("outbox decode failed",
				"event", "outbox_decode_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("outbox publish failed",
				"event", "outbox_publish_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("outbox mark published failed",
				"event", "outbox_mark_published_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	logger.Info("outbox relay cycle completed",
		"event", "outbox_relay_completed",
		"module", r.Module,
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}
